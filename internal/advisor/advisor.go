// Package advisor defines the optional LLM review pass. The advisor is a
// suggestion channel only: it may rewrite reasoning, contribute sources and
// nudge confidence, but it can never change the deterministic resolution.
package advisor

import (
	"context"
	"fmt"

	"github.com/sportsettle/sportsettle/internal/confidence"
	"github.com/sportsettle/sportsettle/internal/domain"
)

// MaxSources caps the merged source list.
const MaxSources = 8

// Input is everything the advisor sees about a chosen resolution.
type Input struct {
	Query            string                  `json:"query"`
	Outcome          *domain.OutcomeQuery    `json:"outcome,omitempty"`
	Statistic        *domain.StatisticQuery  `json:"statistic,omitempty"`
	AcceptedGroupKey string                  `json:"accepted_group_key,omitempty"`
	Resolution       string                  `json:"resolution"`
	Confidence       float64                 `json:"confidence"`
	Providers        []string                `json:"providers"`
}

// Output is the advisor's suggestion set. All fields are optional.
type Output struct {
	Reasoning  string   `json:"reasoning,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
}

// Advisor reviews a deterministic resolution.
type Advisor interface {
	Review(ctx context.Context, in Input) (*Output, error)
}

// Noop is the default advisor; it suggests nothing.
type Noop struct{}

func (Noop) Review(context.Context, Input) (*Output, error) { return nil, nil }

// Merged is the post-review state of the advisory fields.
type Merged struct {
	Reasoning  string
	Sources    []string
	Confidence float64
	// MismatchErr is set when the advisor proposed a different resolution;
	// the proposal is recorded, never applied.
	MismatchErr string
}

// Merge applies the advisory policy: reasoning replaces, sources union to
// the cap, confidence averages, resolution mismatches are recorded as
// errors.
func Merge(reasoning string, sources []string, conf float64, resolution string, out *Output) Merged {
	m := Merged{Reasoning: reasoning, Sources: MergeSources(sources, nil), Confidence: conf}
	if out == nil {
		return m
	}
	if out.Reasoning != "" {
		m.Reasoning = out.Reasoning
	}
	m.Sources = MergeSources(sources, out.Sources)
	if out.Confidence != nil {
		m.Confidence = confidence.Clamp01((conf + *out.Confidence) / 2)
	}
	if out.Resolution != "" && out.Resolution != resolution {
		m.MismatchErr = fmt.Sprintf(
			"advisor proposed %q against deterministic %q; keeping deterministic",
			out.Resolution, resolution)
	}
	return m
}

// MergeSources unions two source lists, preserving first-seen order and
// capping at MaxSources.
func MergeSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, MaxSources)
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
			if len(out) == MaxSources {
				return out
			}
		}
	}
	return out
}
