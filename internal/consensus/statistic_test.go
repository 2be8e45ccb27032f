package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

func statWith(source string, tier int, value float64) domain.NormalizedStatistic {
	return domain.NormalizedStatistic{
		Type:  domain.StatYellowCards,
		Value: value,
		Unit:  domain.UnitCount,
		Sources: []domain.StatisticSource{{
			Source:      source,
			Tier:        tier,
			Weight:      providers.Weight(tier),
			ParsedValue: value,
			Timestamp:   time.Now(),
		}},
	}
}

func cardsQuery() *domain.StatisticQuery {
	return &domain.StatisticQuery{
		QueryType:     domain.StatQueryMatch,
		StatisticType: domain.StatYellowCards,
	}
}

func TestStatistic_AgreementScenario(t *testing.T) {
	stats := []domain.NormalizedStatistic{
		statWith(providers.OfficialLeague, 1, 4),
		statWith(providers.OptaStats, 1, 4),
		statWith(providers.APIFootball, 2, 4),
		statWith(providers.Flashscore, 3, 3),
	}

	cons := Statistic(stats, cardsQuery())
	assert.True(t, cons.Agreed)
	require.NotNil(t, cons.AgreedValue)
	assert.Equal(t, 4.0, *cons.AgreedValue)
	assert.Equal(t, 3, cons.AgreementCount)
	require.Len(t, cons.Outliers, 1)
	assert.Equal(t, providers.Flashscore, cons.Outliers[0].Source)
	assert.Equal(t, 3.0, cons.Outliers[0].Value)
	assert.Equal(t, 1, cons.StatsProviderCount)
	assert.Equal(t, 2, cons.Tier1Count)
	assert.True(t, cons.OfficialSourcePresent)
	assert.False(t, cons.BettingMarketAlignment)
	assert.InDelta(t, 0.1875, cons.Variance, 1e-9)
}

func TestStatistic_NoStatsProviderBlocksAgreement(t *testing.T) {
	stats := []domain.NormalizedStatistic{
		statWith(providers.OfficialLeague, 1, 4),
		statWith(providers.APIFootball, 2, 4),
		statWith(providers.Flashscore, 3, 4),
	}
	cons := Statistic(stats, cardsQuery())
	assert.False(t, cons.Agreed)
	assert.Nil(t, cons.AgreedValue)
	assert.Equal(t, 3, cons.AgreementCount)
	assert.Zero(t, cons.StatsProviderCount)
}

func TestStatistic_TwoSourcesInsufficient(t *testing.T) {
	stats := []domain.NormalizedStatistic{
		statWith(providers.OptaStats, 1, 4),
		statWith(providers.APIFootball, 2, 4),
	}
	cons := Statistic(stats, cardsQuery())
	assert.False(t, cons.Agreed)
	assert.Equal(t, 2, cons.AgreementCount)
}

func TestStatistic_HighVarianceBlocksAgreement(t *testing.T) {
	stats := []domain.NormalizedStatistic{
		statWith(providers.OptaStats, 1, 4),
		statWith(providers.StatsBomb, 2, 4),
		statWith(providers.APIFootball, 2, 4),
		statWith(providers.Flashscore, 3, 12),
	}
	cons := Statistic(stats, cardsQuery())
	// Three sources agree on 4 but the spread blows past the tolerance.
	assert.Equal(t, 3, cons.AgreementCount)
	assert.Greater(t, cons.Variance, 1.0)
	assert.False(t, cons.Agreed)
}

func TestStatistic_TieBreaksTowardSmallerValue(t *testing.T) {
	values := []float64{5, 5, 3, 3}
	best, count := bestValue(values, 1)
	assert.Equal(t, 3.0, best)
	assert.Equal(t, 2, count)
}

func TestStatistic_PercentageTolerance(t *testing.T) {
	q := cardsQuery()
	q.StatisticType = domain.StatPossession

	mk := func(source string, tier int, v float64) domain.NormalizedStatistic {
		s := statWith(source, tier, v)
		s.Type = domain.StatPossession
		s.Unit = domain.UnitPercentage
		return s
	}
	stats := []domain.NormalizedStatistic{
		mk(providers.OptaStats, 1, 58),
		mk(providers.StatsBomb, 2, 57),
		mk(providers.Sofascore, 3, 56),
	}
	cons := Statistic(stats, q)
	assert.True(t, cons.Agreed)
	assert.Equal(t, 3, cons.AgreementCount)
	// Tie at three peers each resolves to the smallest candidate.
	assert.Equal(t, 56.0, *cons.AgreedValue)
}

func TestStatistic_FiltersByTypeAndEntity(t *testing.T) {
	q := cardsQuery()
	q.Entities.Team = "Arsenal"

	arsenal := statWith(providers.OptaStats, 1, 4)
	arsenal.Team = "Arsenal"
	chelsea := statWith(providers.StatsBomb, 2, 9)
	chelsea.Team = "Chelsea"
	corners := statWith(providers.SportsRadar, 1, 11)
	corners.Type = domain.StatCorners

	cons := Statistic([]domain.NormalizedStatistic{arsenal, chelsea, corners}, q)
	assert.Equal(t, 1, cons.AgreementCount)
	assert.False(t, cons.Agreed)
}

func TestStatistic_BettingMarketAlignment(t *testing.T) {
	stats := []domain.NormalizedStatistic{
		statWith(providers.OptaStats, 1, 9),
		statWith(providers.OfficialLeague, 1, 9),
		statWith(providers.APIFootball, 2, 9),
		statWith(providers.BettingMarket, 3, 9),
	}
	cons := Statistic(stats, cardsQuery())
	assert.True(t, cons.Agreed)
	assert.True(t, cons.BettingMarketAlignment)
	assert.Equal(t, []string{
		providers.APIFootball, providers.BettingMarket,
		providers.OfficialLeague, providers.OptaStats,
	}, cons.SupportingSources)
}

func TestStatistic_Empty(t *testing.T) {
	cons := Statistic(nil, cardsQuery())
	assert.False(t, cons.Agreed)
	assert.Zero(t, cons.AgreementCount)
	assert.Empty(t, cons.Outliers)
}
