// Package validate checks normalized statistics against domain ranges and
// cross-statistic logic before consensus sees them.
package validate

import (
	"fmt"
	"math"

	"github.com/sportsettle/sportsettle/internal/domain"
)

// RangeRule bounds a statistic type. A value outside [Min, Max] invalidates
// that source for that statistic type; values outside the typical band only warn.
type RangeRule struct {
	Min        float64
	Max        float64
	TypicalLo  float64
	TypicalHi  float64
}

// rangeRules is keyed by statistic type. A type without a rule is not
// range-checked.
var rangeRules = map[domain.StatType]RangeRule{
	domain.StatYellowCards:       {0, 15, 0, 8},
	domain.StatRedCards:          {0, 5, 0, 2},
	domain.StatTotalCards:        {0, 20, 0, 10},
	domain.StatCorners:           {0, 30, 2, 16},
	domain.StatShotsOnTarget:     {0, 30, 1, 15},
	domain.StatShotsTotal:        {0, 60, 5, 30},
	domain.StatFouls:             {0, 50, 5, 30},
	domain.StatPossession:        {0, 100, 25, 75},
	domain.StatPasses:            {0, 1500, 200, 900},
	domain.StatPassAccuracy:      {0, 100, 50, 95},
	domain.StatKeyPasses:         {0, 40, 0, 20},
	domain.StatSaves:             {0, 20, 0, 12},
	domain.StatTackles:           {0, 60, 5, 40},
	domain.StatInterceptions:     {0, 40, 2, 25},
	domain.StatFreeKicks:         {0, 40, 5, 30},
	domain.StatPenaltiesAwarded:  {0, 5, 0, 2},
	domain.StatPenaltiesScored:   {0, 5, 0, 2},
	domain.StatTechnicalFouls:    {0, 10, 0, 3},
	domain.StatFlagrantFouls:     {0, 6, 0, 2},
	domain.StatTurnovers:         {0, 40, 8, 25},
	domain.StatReboundsOffensive: {0, 30, 5, 18},
	domain.StatReboundsDefensive: {0, 50, 20, 40},
	domain.StatReboundsTotal:     {0, 80, 30, 60},
	domain.StatBlocks:            {0, 20, 2, 10},
	domain.StatSteals:            {0, 25, 3, 12},
	domain.StatThreePointersMade: {0, 35, 5, 22},
	domain.StatThreePointersAttempted: {0, 70, 20, 50},
	domain.StatFreeThrowsMade:         {0, 60, 10, 30},
	domain.StatFreeThrowsAttempted:    {0, 70, 12, 40},
	domain.StatMinutesPlayed:          {0, 70, 0, 48},
	domain.StatPenalties:              {0, 30, 2, 15},
	domain.StatPenaltyYards:           {0, 250, 20, 120},
	domain.StatFumbles:                {0, 10, 0, 4},
	domain.StatSacks:                  {0, 15, 0, 8},
	domain.StatTimeOfPossession:       {0, 100, 35, 65},
	domain.StatThirdDownConversions:   {0, 25, 2, 12},
	domain.StatRedZoneEfficiency:      {0, 100, 20, 90},
	domain.StatGoals:                  {0, 15, 0, 6},
	domain.StatAssists:                {0, 50, 0, 35},
}

// Report is the validation outcome for one statistic set. InvalidSources
// entries are (source, type) keys built with InvalidKey: range rules apply
// per statistic type, so one bad value must not taint the same source's
// other statistics.
type Report struct {
	WithinRange        bool     `json:"within_range"`
	LogicallyConsistent bool    `json:"logically_consistent"`
	Warnings           []string `json:"warnings"`
	InvalidSources     []string `json:"invalid_sources"`
}

// InvalidKey identifies one source's values for one statistic type.
func InvalidKey(source string, t domain.StatType) string {
	return source + "|" + string(t)
}

// Check runs range and logical rules over the normalized statistics.
func Check(stats []domain.NormalizedStatistic) Report {
	report := Report{WithinRange: true, LogicallyConsistent: true}

	for _, s := range stats {
		rule, ok := rangeRules[s.Type]
		if !ok {
			continue
		}
		for _, src := range s.Sources {
			v := src.ParsedValue
			if v < rule.Min || v > rule.Max {
				report.WithinRange = false
				report.InvalidSources = append(report.InvalidSources, InvalidKey(src.Source, s.Type))
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"Value %.1f for %s from %s outside valid range [%.0f, %.0f]",
					v, s.Type, src.Source, rule.Min, rule.Max))
				continue
			}
			if v < rule.TypicalLo || v > rule.TypicalHi {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"Unusual value %.1f for %s from %s (typical %.0f-%.0f)",
					v, s.Type, src.Source, rule.TypicalLo, rule.TypicalHi))
			}
		}
	}

	checkLogical(stats, &report)
	return report
}

// checkLogical evaluates cross-statistic rules per source.
func checkLogical(stats []domain.NormalizedStatistic, report *Report) {
	// Sum each source's values by type; possession rows are kept separate
	// for the two-sided sum rule.
	sums := map[string]map[domain.StatType]float64{}
	seen := map[string]map[domain.StatType]bool{}
	possession := map[string][]float64{}

	for _, s := range stats {
		for _, src := range s.Sources {
			if sums[src.Source] == nil {
				sums[src.Source] = map[domain.StatType]float64{}
				seen[src.Source] = map[domain.StatType]bool{}
			}
			sums[src.Source][s.Type] += src.ParsedValue
			seen[src.Source][s.Type] = true
			if s.Type == domain.StatPossession {
				possession[src.Source] = append(possession[src.Source], src.ParsedValue)
			}
		}
	}

	fail := func(format string, args ...any) {
		report.LogicallyConsistent = false
		report.Warnings = append(report.Warnings, fmt.Sprintf(format, args...))
	}

	for source, byType := range sums {
		has := seen[source]
		if has[domain.StatShotsOnTarget] && has[domain.StatShotsTotal] &&
			byType[domain.StatShotsOnTarget] > byType[domain.StatShotsTotal] {
			fail("%s: shots on target %.0f exceed total shots %.0f",
				source, byType[domain.StatShotsOnTarget], byType[domain.StatShotsTotal])
		}
		if has[domain.StatGoals] && has[domain.StatShotsOnTarget] &&
			byType[domain.StatGoals] > byType[domain.StatShotsOnTarget] {
			fail("%s: goals %.0f exceed shots on target %.0f",
				source, byType[domain.StatGoals], byType[domain.StatShotsOnTarget])
		}
		if has[domain.StatYellowCards] && has[domain.StatRedCards] && has[domain.StatTotalCards] {
			sum := byType[domain.StatYellowCards] + byType[domain.StatRedCards]
			if sum != byType[domain.StatTotalCards] {
				fail("%s: yellow %.0f + red %.0f != total cards %.0f",
					source, byType[domain.StatYellowCards], byType[domain.StatRedCards],
					byType[domain.StatTotalCards])
			}
		}
		if rows := possession[source]; len(rows) == 2 {
			sum := rows[0] + rows[1]
			if math.Abs(sum-100) > 2 {
				fail("%s: possession sums to %.1f", source, sum)
			}
		}
	}
}
