// Package resolve drives the three-stage resolution pipeline: classify,
// fan out, reconcile. A partial result is always returned; upstream
// failures accumulate in the evidence payload and never abort a request.
package resolve

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/sportsettle/sportsettle/internal/advisor"
	"github.com/sportsettle/sportsettle/internal/classify"
	"github.com/sportsettle/sportsettle/internal/evidence"
	"github.com/sportsettle/sportsettle/internal/metrics"
)

// InsufficientData is the null resolution: evidence did not clear a gate.
const InsufficientData = "insufficient_data"

// Confidence levels for null resolutions.
const (
	classificationFailureConfidence = 0.25
	insufficientConsensusConfidence = 0.30
)

// defaultDeadline bounds a request when the caller supplies none.
const defaultDeadline = 30 * time.Second

// ResolutionResult is the single inbound contract: the answer, its
// calibrated confidence, and the audit evidence it was derived from.
type ResolutionResult struct {
	Resolution string           `json:"resolution"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
	Sources    []string         `json:"sources"`
	Evidence   evidence.Payload `json:"evidence"`
}

// Resolver owns the pipeline. Construct with New; zero value is not usable.
type Resolver struct {
	classifier *classify.Classifier
	source     Source
	advisor    advisor.Advisor
	now        func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAdvisor attaches an LLM advisor.
func WithAdvisor(a advisor.Advisor) Option {
	return func(r *Resolver) { r.advisor = a }
}

// WithClassifier substitutes the classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(r *Resolver) { r.classifier = c }
}

// WithNow pins the clock (tests).
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New builds a resolver over the given envelope source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		classifier: classify.New(),
		source:     source,
		advisor:    advisor.Noop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers one natural-language query. It never returns an error:
// every failure mode degrades to insufficient_data with the failure recorded
// in the evidence.
func (r *Resolver) Resolve(ctx context.Context, query string) ResolutionResult {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultDeadline)
		defer cancel()
	}

	start := r.now()
	classified, err := r.classifier.Classify(query)
	if err != nil {
		asm := evidence.NewAssembler(query, "none", start)
		asm.Error(errors.Wrap(err, "classification failed").Error())
		metrics.Resolutions.WithLabelValues("none", InsufficientData).Inc()
		return ResolutionResult{
			Resolution: InsufficientData,
			Confidence: classificationFailureConfidence,
			Reasoning:  "The query could not be classified into a supported question shape.",
			Sources:    []string{},
			Evidence:   asm.Finish(r.now()),
		}
	}

	if classified.Statistic != nil {
		return r.resolveStatistic(ctx, query, classified.Statistic, start)
	}
	return r.resolveOutcome(ctx, query, classified.Outcome, start)
}

// review runs the advisor and folds its suggestions into the result under
// the never-override policy. Advisor failures are dropped silently.
func (r *Resolver) review(ctx context.Context, in advisor.Input, asm *evidence.Assembler, result *ResolutionResult) {
	out, err := r.advisor.Review(ctx, in)
	if err != nil {
		log.Debug().Err(err).Msg("advisor call failed")
		return
	}
	if out == nil {
		return
	}

	if raw, err := sonic.Marshal(out); err == nil {
		asm.ModelOutput(string(raw))
	}

	merged := advisor.Merge(result.Reasoning, result.Sources, result.Confidence, result.Resolution, out)
	result.Reasoning = merged.Reasoning
	result.Sources = merged.Sources
	result.Confidence = merged.Confidence
	if merged.MismatchErr != "" {
		asm.Error(merged.MismatchErr)
	}
	asm.Summary(result.Reasoning, out.Reasoning)
}
