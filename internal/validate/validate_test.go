package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sportsettle/sportsettle/internal/domain"
)

func stat(source string, t domain.StatType, value float64) domain.NormalizedStatistic {
	return domain.NormalizedStatistic{
		Type:  t,
		Value: value,
		Unit:  domain.UnitFor(t),
		Sources: []domain.StatisticSource{{
			Source:      source,
			ParsedValue: value,
		}},
	}
}

func TestCheck_AllValid(t *testing.T) {
	report := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatYellowCards, 4),
		stat("STATSBOMB", domain.StatYellowCards, 4),
	})
	assert.True(t, report.WithinRange)
	assert.True(t, report.LogicallyConsistent)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.InvalidSources)
}

func TestCheck_OutOfRangeInvalidatesSource(t *testing.T) {
	report := Check([]domain.NormalizedStatistic{
		stat("FLASHSCORE", domain.StatYellowCards, 22),
	})
	assert.False(t, report.WithinRange)
	assert.Equal(t, []string{InvalidKey("FLASHSCORE", domain.StatYellowCards)}, report.InvalidSources)
}

func TestCheck_InvalidationIsScopedPerType(t *testing.T) {
	// One bad corners value must not invalidate the same source's
	// yellow-cards value.
	report := Check([]domain.NormalizedStatistic{
		stat("FLASHSCORE", domain.StatCorners, 999),
		stat("FLASHSCORE", domain.StatYellowCards, 4),
	})
	assert.False(t, report.WithinRange)
	assert.Equal(t, []string{InvalidKey("FLASHSCORE", domain.StatCorners)}, report.InvalidSources)
	assert.NotContains(t, report.InvalidSources, InvalidKey("FLASHSCORE", domain.StatYellowCards))
}

func TestCheck_AtypicalValueWarns(t *testing.T) {
	report := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatYellowCards, 11),
	})
	assert.True(t, report.WithinRange)
	assert.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Unusual value")
}

func TestCheck_ShotsOnTargetRule(t *testing.T) {
	report := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatShotsOnTarget, 12),
		stat("OPTA_STATS", domain.StatShotsTotal, 9),
	})
	assert.False(t, report.LogicallyConsistent)
}

func TestCheck_GoalsVsShotsOnTargetRule(t *testing.T) {
	report := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatGoals, 5),
		stat("OPTA_STATS", domain.StatShotsOnTarget, 3),
	})
	assert.False(t, report.LogicallyConsistent)
}

func TestCheck_CardArithmetic(t *testing.T) {
	bad := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatYellowCards, 4),
		stat("OPTA_STATS", domain.StatRedCards, 1),
		stat("OPTA_STATS", domain.StatTotalCards, 9),
	})
	assert.False(t, bad.LogicallyConsistent)

	good := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatYellowCards, 4),
		stat("OPTA_STATS", domain.StatRedCards, 1),
		stat("OPTA_STATS", domain.StatTotalCards, 5),
	})
	assert.True(t, good.LogicallyConsistent)
}

func TestCheck_PossessionSum(t *testing.T) {
	bad := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatPossession, 58),
		stat("OPTA_STATS", domain.StatPossession, 52),
	})
	assert.False(t, bad.LogicallyConsistent)

	good := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatPossession, 58),
		stat("OPTA_STATS", domain.StatPossession, 42),
	})
	assert.True(t, good.LogicallyConsistent)

	// Rounded possession within the 2-point slack passes.
	rounded := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatPossession, 58),
		stat("OPTA_STATS", domain.StatPossession, 41),
	})
	assert.True(t, rounded.LogicallyConsistent)
}

func TestCheck_RulesAreScopedPerSource(t *testing.T) {
	// Conflicting figures from different sources are not a logical breach.
	report := Check([]domain.NormalizedStatistic{
		stat("OPTA_STATS", domain.StatShotsOnTarget, 12),
		stat("FLASHSCORE", domain.StatShotsTotal, 9),
	})
	assert.True(t, report.LogicallyConsistent)
}
