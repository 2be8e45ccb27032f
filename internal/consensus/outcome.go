// Package consensus reconciles normalized facts and statistics into a single
// agreed answer. All operations are pure and order-independent: permuting
// the inputs yields the same selection.
package consensus

import (
	"sort"
	"strings"

	"github.com/sportsettle/sportsettle/internal/domain"
)

// MinCorroboratingProviders is the floor of distinct providers an accepted
// group needs before any non-null resolution is derived from it.
const MinCorroboratingProviders = 3

// finalStatusMarkers identify a fact describing a completed match.
var finalStatusMarkers = []string{
	"ft", "fulltime", "finished", "final", "completed",
	"after overtime", "aet", "ended", "finale",
}

// OutcomeResult is the reconciliation of the outcome fact set.
type OutcomeResult struct {
	Groups    []domain.EvidenceGroup
	Accepted  *domain.EvidenceGroup
	// FinalFacts is the accepted group's fact set restricted to facts from
	// completed matches, or the whole group when none are marked final.
	FinalFacts []domain.NormalizedFact
	Conflicts  int
}

// Outcome groups facts by canonical key and selects the group with the most
// distinct providers, breaking ties by higher average reliability and then
// by key for determinism.
func Outcome(facts []domain.NormalizedFact) OutcomeResult {
	byKey := make(map[string][]domain.NormalizedFact)
	for _, f := range facts {
		if f.CanonicalKey == "" {
			continue
		}
		byKey[f.CanonicalKey] = append(byKey[f.CanonicalKey], f)
	}

	groups := make([]domain.EvidenceGroup, 0, len(byKey))
	for key, members := range byKey {
		providerSet := make(map[string]struct{})
		total := 0.0
		for _, f := range members {
			providerSet[f.Provider] = struct{}{}
			total += f.Reliability
		}
		providerIDs := make([]string, 0, len(providerSet))
		for p := range providerSet {
			providerIDs = append(providerIDs, p)
		}
		sort.Strings(providerIDs)
		groups = append(groups, domain.EvidenceGroup{
			Key:                key,
			Facts:              members,
			Providers:          providerIDs,
			ReliabilityAverage: total / float64(len(members)),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Providers) != len(groups[j].Providers) {
			return len(groups[i].Providers) > len(groups[j].Providers)
		}
		if groups[i].ReliabilityAverage != groups[j].ReliabilityAverage {
			return groups[i].ReliabilityAverage > groups[j].ReliabilityAverage
		}
		return groups[i].Key < groups[j].Key
	})

	res := OutcomeResult{Groups: groups}
	if len(groups) == 0 {
		return res
	}
	res.Accepted = &groups[0]
	res.FinalFacts = finalFacts(groups[0].Facts)
	for _, g := range groups[1:] {
		if len(g.Providers) > 0 {
			res.Conflicts++
		}
	}
	return res
}

// finalFacts restricts facts to those describing a completed match; when no
// fact is marked final the whole set is used.
func finalFacts(facts []domain.NormalizedFact) []domain.NormalizedFact {
	var final []domain.NormalizedFact
	for _, f := range facts {
		if IsFinal(f) {
			final = append(final, f)
		}
	}
	if len(final) == 0 {
		return facts
	}
	return final
}

// IsFinal reports whether a fact comes from a completed match: news facts
// count, as does any status containing a completion marker.
func IsFinal(f domain.NormalizedFact) bool {
	if f.Category == domain.CategoryNews {
		return true
	}
	status := strings.ToLower(f.Status)
	if status == "" {
		return false
	}
	for _, marker := range finalStatusMarkers {
		if strings.Contains(status, marker) {
			return true
		}
	}
	return false
}

// Corroborated reports whether the accepted group clears the distinct
// provider floor.
func (r OutcomeResult) Corroborated() bool {
	return r.Accepted != nil && len(r.Accepted.Providers) >= MinCorroboratingProviders
}
