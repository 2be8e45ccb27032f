package resolve

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sportsettle/sportsettle/internal/advisor"
	"github.com/sportsettle/sportsettle/internal/confidence"
	"github.com/sportsettle/sportsettle/internal/consensus"
	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/evidence"
	"github.com/sportsettle/sportsettle/internal/metrics"
	"github.com/sportsettle/sportsettle/internal/normalize"
	"github.com/sportsettle/sportsettle/internal/validate"
)

func (r *Resolver) resolveStatistic(ctx context.Context, query string, q *domain.StatisticQuery, start time.Time) ResolutionResult {
	asm := evidence.NewAssembler(query, "statistic", start)
	asm.Artifact(q)

	if !q.CanResolveNow {
		asm.Warning("event has not ended at least 15 minutes ago; statistic is not yet resolvable")
		metrics.Resolutions.WithLabelValues("statistic", InsufficientData).Inc()
		return ResolutionResult{
			Resolution: InsufficientData,
			Confidence: classificationFailureConfidence,
			Reasoning:  "The event has not finished long enough ago to settle this statistic.",
			Sources:    []string{},
			Evidence:   asm.Finish(r.now()),
		}
	}

	envelopes := r.source.StatisticEnvelopes(ctx, q)
	recordEnvelopes(envelopes, asm)

	var stats []domain.NormalizedStatistic
	for _, env := range envelopes {
		stats = append(stats, normalize.Statistic(env, q)...)
	}

	report := validate.Check(stats)
	for _, w := range report.Warnings {
		asm.Warning(w)
	}

	valid := dropInvalidSources(stats, report.InvalidSources)
	cons := consensus.Statistic(valid, q)

	var sources []domain.StatisticSource
	for _, s := range valid {
		sources = append(sources, s.Sources...)
	}
	score := confidence.Statistic(cons, sources, report.Warnings, r.now())

	asm.Statistics(&evidence.Statistics{
		Providers:            envelopes,
		NormalizedStatistics: stats,
		Validation:           report,
		Consensus:            cons,
		Confidence:           score,
		Errors:               []string{},
		Warnings:             report.Warnings,
	})

	if !cons.Agreed {
		asm.Error(fmt.Sprintf(
			"insufficient consensus: %d agreeing sources, %d stats providers, variance %.2f",
			cons.AgreementCount, cons.StatsProviderCount, cons.Variance))
		metrics.Resolutions.WithLabelValues("statistic", InsufficientData).Inc()
		return ResolutionResult{
			Resolution: InsufficientData,
			Confidence: insufficientConsensusConfidence,
			Reasoning:  "Provider values did not converge on an agreed statistic.",
			Sources:    advisor.MergeSources(cons.SupportingSources, nil),
			Evidence:   asm.Finish(r.now()),
		}
	}

	resolution, reasoning := deriveStatistic(q, cons)
	result := ResolutionResult{
		Resolution: resolution,
		Confidence: score.Value,
		Reasoning:  reasoning,
		Sources:    advisor.MergeSources(cons.SupportingSources, nil),
	}

	r.review(ctx, advisor.Input{
		Query:      query,
		Statistic:  q,
		Resolution: result.Resolution,
		Confidence: result.Confidence,
		Providers:  cons.SupportingSources,
	}, asm, &result)

	metrics.Resolutions.WithLabelValues("statistic", "resolved").Inc()
	result.Evidence = asm.Finish(r.now())
	return result
}

// deriveStatistic maps an agreed value onto the query: threshold queries
// evaluate the comparator, everything else reports the value.
func deriveStatistic(q *domain.StatisticQuery, cons domain.StatisticConsensus) (resolution, reasoning string) {
	agreed := *cons.AgreedValue
	rendered := formatValue(agreed, cons.Unit)

	if q.QueryType == domain.StatQueryThreshold {
		answer := "no"
		if q.Comparator.Evaluate(agreed, *q.Threshold) {
			answer = "yes"
		}
		return answer, fmt.Sprintf(
			"%d sources agree on %s = %s; %s %s %s is %s.",
			cons.AgreementCount, q.StatisticType, rendered,
			rendered, q.Comparator, formatValue(*q.Threshold, cons.Unit), answer)
	}

	return fmt.Sprintf("%s:%s", q.StatisticType, rendered), fmt.Sprintf(
		"%d sources agree on %s = %s.", cons.AgreementCount, q.StatisticType, rendered)
}

func formatValue(v float64, unit domain.Unit) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit == domain.UnitPercentage {
		return s + "%"
	}
	return s
}

// dropInvalidSources removes statistic entries whose sources failed range
// validation. Invalidation is scoped per (source, type): a source with one
// out-of-range corners value still contributes its yellow-cards value.
func dropInvalidSources(stats []domain.NormalizedStatistic, invalid []string) []domain.NormalizedStatistic {
	if len(invalid) == 0 {
		return stats
	}
	bad := make(map[string]struct{}, len(invalid))
	for _, s := range invalid {
		bad[s] = struct{}{}
	}

	var out []domain.NormalizedStatistic
	for _, s := range stats {
		var kept []domain.StatisticSource
		for _, src := range s.Sources {
			if _, drop := bad[validate.InvalidKey(src.Source, s.Type)]; !drop {
				kept = append(kept, src)
			}
		}
		if len(kept) == 0 {
			continue
		}
		s.Sources = kept
		out = append(out, s)
	}
	return out
}
