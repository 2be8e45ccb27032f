package consensus

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsettle/sportsettle/internal/domain"
)

func winnerFact(provider, winner, key, status string, reliability float64) domain.NormalizedFact {
	return domain.NormalizedFact{
		Provider:     provider,
		CanonicalKey: key,
		Category:     domain.CategoryResult,
		Winner:       winner,
		Status:       status,
		Reliability:  reliability,
	}
}

func TestOutcome_SelectsLargestProviderSet(t *testing.T) {
	facts := []domain.NormalizedFact{
		winnerFact("A", "Lakers", "winner:lakers:k:d", "FT", 0.8),
		winnerFact("B", "Lakers", "winner:lakers:k:d", "finished", 0.7),
		winnerFact("C", "Lakers", "winner:lakers:k:d", "FT", 0.7),
		winnerFact("D", "Suns", "winner:suns:k:d", "FT", 0.9),
		winnerFact("E", "Suns", "winner:suns:k:d", "FT", 0.9),
	}

	res := Outcome(facts)
	require.NotNil(t, res.Accepted)
	assert.Equal(t, "winner:lakers:k:d", res.Accepted.Key)
	assert.Equal(t, []string{"A", "B", "C"}, res.Accepted.Providers)
	assert.Equal(t, 1, res.Conflicts)
	assert.True(t, res.Corroborated())
}

func TestOutcome_TieBreaksOnReliability(t *testing.T) {
	facts := []domain.NormalizedFact{
		winnerFact("A", "Lakers", "winner:lakers:k:d", "FT", 0.9),
		winnerFact("B", "Lakers", "winner:lakers:k:d", "FT", 0.9),
		winnerFact("C", "Suns", "winner:suns:k:d", "FT", 0.5),
		winnerFact("D", "Suns", "winner:suns:k:d", "FT", 0.5),
	}
	res := Outcome(facts)
	require.NotNil(t, res.Accepted)
	assert.Equal(t, "winner:lakers:k:d", res.Accepted.Key)
	assert.False(t, res.Corroborated(), "two providers are below the floor")
}

func TestOutcome_DeterministicUnderPermutation(t *testing.T) {
	base := []domain.NormalizedFact{
		winnerFact("A", "Lakers", "winner:lakers:k:d", "FT", 0.8),
		winnerFact("B", "Lakers", "winner:lakers:k:d", "FT", 0.7),
		winnerFact("C", "Lakers", "winner:lakers:k:d", "FT", 0.7),
		winnerFact("D", "Suns", "winner:suns:k:d", "FT", 0.9),
		winnerFact("E", "Suns", "winner:suns:k:d", "FT", 0.9),
		winnerFact("F", "Suns", "score:k:1-1:d", "FT", 0.9),
	}
	want := Outcome(base).Accepted.Key

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.NormalizedFact, len(base))
		copy(shuffled, base)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		res := Outcome(shuffled)
		require.NotNil(t, res.Accepted)
		assert.Equal(t, want, res.Accepted.Key)
		assert.Equal(t, []string{"A", "B", "C"}, res.Accepted.Providers)
	}
}

func TestOutcome_FinalFactFiltering(t *testing.T) {
	facts := []domain.NormalizedFact{
		winnerFact("A", "Lakers", "winner:lakers:k:d", "FT", 0.8),
		winnerFact("B", "Lakers", "winner:lakers:k:d", "scheduled", 0.8),
		winnerFact("C", "Lakers", "winner:lakers:k:d", "after overtime", 0.8),
	}
	res := Outcome(facts)
	require.NotNil(t, res.Accepted)
	require.Len(t, res.FinalFacts, 2)
	for _, f := range res.FinalFacts {
		assert.True(t, IsFinal(f))
	}
}

func TestOutcome_NewsFactsAreFinal(t *testing.T) {
	f := domain.NormalizedFact{Category: domain.CategoryNews}
	assert.True(t, IsFinal(f))
	assert.False(t, IsFinal(domain.NormalizedFact{Status: "scheduled"}))
	assert.True(t, IsFinal(domain.NormalizedFact{Status: "Match Finished"}))
	assert.True(t, IsFinal(domain.NormalizedFact{Status: "AET"}))
}

func TestOutcome_NoFacts(t *testing.T) {
	res := Outcome(nil)
	assert.Nil(t, res.Accepted)
	assert.False(t, res.Corroborated())
	assert.Zero(t, res.Conflicts)
}

func TestOutcome_RoundTripSingleGroup(t *testing.T) {
	facts := []domain.NormalizedFact{
		winnerFact("A", "Lakers", "winner:lakers:k:d", "FT", 0.8),
		winnerFact("B", "Lakers", "winner:lakers:k:d", "FT", 0.7),
	}
	res := Outcome(facts)
	require.Len(t, res.Groups, 1)
	assert.Len(t, res.Groups[0].Facts, 2)
	assert.Zero(t, res.Conflicts)
}
