package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

func cardsQuery() *domain.StatisticQuery {
	return &domain.StatisticQuery{
		QueryType:     domain.StatQueryMatch,
		StatisticType: domain.StatYellowCards,
		Entities: domain.QueryEntities{
			Match: &domain.MatchEntity{Home: "Arsenal", Away: "Chelsea", Date: "2024-11-05"},
		},
		Aggregation: domain.AggTotal,
		Period:      domain.PeriodFullTime,
	}
}

func statEnvelope(provider string, tier int, payload any) domain.ProviderResponse {
	return domain.ProviderResponse{
		Provider:    provider,
		Tier:        tier,
		Weight:      providers.Weight(tier),
		CollectedAt: time.Date(2024, 11, 6, 0, 0, 0, 0, time.UTC),
		Payload:     payload,
	}
}

func TestStatistic_ContainerWithTypedValues(t *testing.T) {
	payload := map[string]any{
		"statistics": []any{
			map[string]any{"type": "Yellow Cards", "value": float64(4), "team": "Arsenal"},
			map[string]any{"type": "Corners", "value": float64(9)},
		},
	}

	stats := Statistic(statEnvelope(providers.OptaStats, 1, payload), cardsQuery())
	require.Len(t, stats, 2)

	assert.Equal(t, domain.StatYellowCards, stats[0].Type)
	assert.Equal(t, 4.0, stats[0].Value)
	assert.Equal(t, "Arsenal", stats[0].Team)
	assert.Equal(t, domain.UnitCount, stats[0].Unit)
	require.Len(t, stats[0].Sources, 1)
	assert.Equal(t, providers.OptaStats, stats[0].Sources[0].Source)
	assert.Equal(t, 1, stats[0].Sources[0].Tier)

	assert.Equal(t, domain.StatCorners, stats[1].Type)
	assert.Equal(t, 9.0, stats[1].Value)
}

func TestStatistic_PrimitiveAliasKeys(t *testing.T) {
	payload := map[string]any{
		"yellow_cards": float64(4),
		"red_cards":    float64(1),
		"irrelevant":   "text with no number key match",
	}

	stats := Statistic(statEnvelope(providers.APIFootball, 2, payload), cardsQuery())
	require.Len(t, stats, 2)

	byType := map[domain.StatType]float64{}
	for _, s := range stats {
		byType[s.Type] = s.Value
	}
	assert.Equal(t, 4.0, byType[domain.StatYellowCards])
	assert.Equal(t, 1.0, byType[domain.StatRedCards])
}

func TestStatistic_EmbeddedText(t *testing.T) {
	payload := map[string]any{
		"data": []any{
			map[string]any{"text": "Arsenal picked up 4 yellow cards in a feisty derby"},
		},
	}
	stats := Statistic(statEnvelope(providers.Flashscore, 3, payload), cardsQuery())
	require.Len(t, stats, 1)
	assert.Equal(t, domain.StatYellowCards, stats[0].Type)
	assert.Equal(t, 4.0, stats[0].Value)
}

func TestStatistic_StringLeafInheritsQueryType(t *testing.T) {
	payload := map[string]any{"items": []any{"4"}}
	stats := Statistic(statEnvelope(providers.Sofascore, 3, payload), cardsQuery())
	require.Len(t, stats, 1)
	assert.Equal(t, domain.StatYellowCards, stats[0].Type)
	assert.Equal(t, 4.0, stats[0].Value)
	assert.Equal(t, domain.PeriodFullTime, stats[0].Period)
	assert.Equal(t, domain.AggTotal, stats[0].Aggregation)
}

func TestStatistic_PercentageValues(t *testing.T) {
	q := cardsQuery()
	q.StatisticType = domain.StatPossession
	payload := map[string]any{
		"statistics": []any{
			map[string]any{"type": "Possession", "value": "58%", "team": "Arsenal"},
			map[string]any{"type": "Possession", "value": "42%", "team": "Chelsea"},
		},
	}
	stats := Statistic(statEnvelope(providers.OptaStats, 1, payload), q)
	require.Len(t, stats, 2)
	assert.Equal(t, 58.0, stats[0].Value)
	assert.Equal(t, domain.UnitPercentage, stats[0].Unit)
	assert.Equal(t, "58%", stats[0].Sources[0].RawValue)
}

func TestStatistic_NestedObjectsAreReached(t *testing.T) {
	payload := map[string]any{
		"match": map[string]any{
			"breakdown": map[string]any{
				"cards": map[string]any{"yellowCards": float64(3)},
			},
		},
	}
	stats := Statistic(statEnvelope(providers.SportsRadar, 1, payload), cardsQuery())
	require.Len(t, stats, 1)
	assert.Equal(t, domain.StatYellowCards, stats[0].Type)
	assert.Equal(t, 3.0, stats[0].Value)
}

func TestStatistic_SkippedEnvelope(t *testing.T) {
	env := domain.ProviderResponse{Provider: providers.OptaStats, Skipped: true}
	assert.Empty(t, Statistic(env, cardsQuery()))
}
