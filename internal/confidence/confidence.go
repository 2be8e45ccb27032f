// Package confidence turns consensus outputs into calibrated scores in
// [0,1]. Every adjustment is recorded with its reason so a resolution can be
// re-derived from the evidence alone.
package confidence

import (
	"fmt"
	"strings"
	"time"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

// Adjustment records one applied factor. Additive adjustments carry Delta,
// multiplicative ones Multiplier.
type Adjustment struct {
	Reason     string  `json:"reason"`
	Delta      float64 `json:"delta,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

// Score is a confidence value with its derivation.
type Score struct {
	Value       float64      `json:"value"`
	Adjustments []Adjustment `json:"adjustments"`
}

// FreshnessWindow is the window inside which outcome facts earn the
// freshness bonus.
const FreshnessWindow = 72 * time.Hour

// Outcome scores the outcome path: a base from the distinct provider count,
// a conflict penalty, a reliability adjustment and a freshness bonus.
func Outcome(providerCount, conflicts int, avgReliability float64, facts []domain.NormalizedFact, now time.Time) Score {
	var s Score

	base := 0.3
	switch {
	case providerCount >= 5:
		base = 0.9
	case providerCount == 4:
		base = 0.75
	case providerCount == 3:
		base = 0.6
	}
	s.Value = base
	s.Adjustments = append(s.Adjustments, Adjustment{
		Reason: fmt.Sprintf("base for %d corroborating providers", providerCount),
		Delta:  base,
	})

	if conflicts > 0 {
		penalty := float64(conflicts) * 0.1
		if penalty > 0.25 {
			penalty = 0.25
		}
		s.Value -= penalty
		s.Adjustments = append(s.Adjustments, Adjustment{
			Reason: fmt.Sprintf("%d conflicting groups", conflicts),
			Delta:  -penalty,
		})
	}

	relAdj := (avgReliability - 0.7) * 0.15
	s.Value += relAdj
	s.Adjustments = append(s.Adjustments, Adjustment{
		Reason: fmt.Sprintf("average reliability %.2f", avgReliability),
		Delta:  relAdj,
	})

	if bonus, reason := freshnessBonus(facts, now); bonus > 0 {
		s.Value += bonus
		s.Adjustments = append(s.Adjustments, Adjustment{Reason: reason, Delta: bonus})
	}

	s.Value = clamp01(s.Value)
	return s
}

// freshnessBonus rewards recently collected facts: +0.05 when all fall
// inside the window, +0.02 when a majority does.
func freshnessBonus(facts []domain.NormalizedFact, now time.Time) (float64, string) {
	if len(facts) == 0 {
		return 0, ""
	}
	fresh := 0
	for _, f := range facts {
		ts := f.CollectedAt
		if ts.IsZero() && f.EndTimestamp != nil {
			ts = *f.EndTimestamp
		}
		if !ts.IsZero() && now.Sub(ts) <= FreshnessWindow {
			fresh++
		}
	}
	switch {
	case fresh == len(facts):
		return 0.05, "all facts within 72h"
	case fresh*2 > len(facts):
		return 0.02, "majority of facts within 72h"
	default:
		return 0, ""
	}
}

// Statistic scores the statistic path as a weighted sum with multiplicative
// penalties.
func Statistic(cons domain.StatisticConsensus, sources []domain.StatisticSource, warnings []string, now time.Time) Score {
	var s Score
	tol := domain.Tolerance(cons.Unit)

	add := func(reason string, delta float64) {
		s.Value += delta
		s.Adjustments = append(s.Adjustments, Adjustment{Reason: reason, Delta: delta})
	}

	if supportedByStatsProvider(cons) {
		add("stats provider agreement", 0.40)
	}
	if cons.Tier1Count >= 1 {
		add("tier-1 agreement", 0.25)
	}

	denom := len(sources)
	if denom < 3 {
		denom = 3
	}
	ratio := float64(cons.AgreementCount) / float64(denom)
	if ratio > 1 {
		ratio = 1
	}
	add(fmt.Sprintf("%d of %d sources agree", cons.AgreementCount, len(sources)), ratio*0.15)

	if cons.BettingMarketAlignment {
		add("betting market alignment", 0.10)
	}

	lowVariance := clamp01(1 - cons.Variance/tol)
	add(fmt.Sprintf("variance %.2f against tolerance %.0f", cons.Variance, tol), lowVariance*0.05)

	add("data freshness", freshnessScore(sources, now)*0.05)

	mul := func(reason string, factor float64) {
		s.Value *= factor
		s.Adjustments = append(s.Adjustments, Adjustment{Reason: reason, Multiplier: factor})
	}
	if cons.Variance > 2 {
		mul("variance above 2", 0.8)
	}
	if len(cons.Outliers) >= 2 {
		mul(fmt.Sprintf("%d outlying sources", len(cons.Outliers)), 0.9)
	}
	for _, w := range warnings {
		if strings.Contains(w, "Unusual value") {
			mul("unusual value warning", 0.95)
			break
		}
	}

	s.Value = clamp01(s.Value)
	return s
}

func supportedByStatsProvider(cons domain.StatisticConsensus) bool {
	for _, src := range cons.SupportingSources {
		if _, ok := providers.StatsProviders[src]; ok {
			return true
		}
	}
	return false
}

// freshnessScore maps the average source age to a band score.
func freshnessScore(sources []domain.StatisticSource, now time.Time) float64 {
	if len(sources) == 0 {
		return 0.2
	}
	var total time.Duration
	for _, src := range sources {
		total += now.Sub(src.Timestamp)
	}
	avg := total / time.Duration(len(sources))
	switch {
	case avg <= 15*time.Minute:
		return 1
	case avg <= 60*time.Minute:
		return 0.8
	case avg <= 180*time.Minute:
		return 0.6
	case avg <= 720*time.Minute:
		return 0.4
	default:
		return 0.2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 bounds an externally merged confidence to [0,1].
func Clamp01(v float64) float64 { return clamp01(v) }
