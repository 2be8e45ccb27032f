package consensus

import (
	"math"
	"sort"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

// MinStatisticAgreement is the floor of agreeing sources for a statistic
// consensus.
const MinStatisticAgreement = 3

// Statistic reconciles normalized statistics against the query. Candidates
// are filtered by type and entities, then the value with the most peers
// inside the unit tolerance wins, ties broken by the smaller value.
func Statistic(stats []domain.NormalizedStatistic, q *domain.StatisticQuery) domain.StatisticConsensus {
	unit := domain.UnitFor(q.StatisticType)
	tol := domain.Tolerance(unit)

	filtered := filterStatistics(stats, q)

	cons := domain.StatisticConsensus{
		StatisticType: q.StatisticType,
		Unit:          unit,
		Outliers:      []domain.Outlier{},
	}

	var sources []domain.StatisticSource
	var values []float64
	for _, s := range filtered {
		for _, src := range s.Sources {
			sources = append(sources, src)
			values = append(values, src.ParsedValue)
		}
	}
	if len(sources) == 0 {
		return cons
	}

	for _, src := range sources {
		if _, ok := providers.StatsProviders[src.Source]; ok {
			cons.StatsProviderCount++
		}
		if src.Source == providers.OfficialLeague {
			cons.OfficialSourcePresent = true
		}
	}

	agreedValue, agreementCount := bestValue(values, tol)
	cons.AgreementCount = agreementCount
	cons.Variance = populationVariance(values)

	supporting := make([]string, 0, len(sources))
	for _, src := range sources {
		if math.Abs(src.ParsedValue-agreedValue) < tol {
			supporting = append(supporting, src.Source)
			if src.Tier == 1 {
				cons.Tier1Count++
			}
			if src.Source == providers.BettingMarket {
				cons.BettingMarketAlignment = true
			}
		} else {
			cons.Outliers = append(cons.Outliers, domain.Outlier{
				Source: src.Source,
				Value:  src.ParsedValue,
			})
		}
	}
	sort.Strings(supporting)
	cons.SupportingSources = supporting

	if agreementCount >= MinStatisticAgreement &&
		cons.StatsProviderCount >= 1 &&
		cons.Variance <= tol {
		cons.Agreed = true
		v := agreedValue
		cons.AgreedValue = &v
	}
	return cons
}

// filterStatistics keeps candidates matching the query's statistic type and,
// when both sides name an entity, intersecting entities. A candidate with no
// entity attribution is taken to describe the queried match.
func filterStatistics(stats []domain.NormalizedStatistic, q *domain.StatisticQuery) []domain.NormalizedStatistic {
	var out []domain.NormalizedStatistic
	for _, s := range stats {
		if s.Type != q.StatisticType {
			continue
		}
		if !entityMatches(s, q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func entityMatches(s domain.NormalizedStatistic, q *domain.StatisticQuery) bool {
	if q.Entities.Player != "" && s.Player != "" &&
		domain.Normalize(q.Entities.Player) != domain.Normalize(s.Player) {
		return false
	}
	if q.Entities.Team != "" && s.Team != "" &&
		domain.Normalize(q.Entities.Team) != domain.Normalize(s.Team) {
		return false
	}
	if m := q.Entities.Match; m != nil && s.Team != "" {
		team := domain.Normalize(s.Team)
		if team != domain.Normalize(m.Home) && team != domain.Normalize(m.Away) {
			return false
		}
	}
	return true
}

// bestValue scans each observed value, counting peers strictly inside the
// tolerance. The highest count wins; ties break toward the smaller value so
// the scan is order-independent.
func bestValue(values []float64, tol float64) (best float64, count int) {
	for _, candidate := range values {
		peers := 0
		for _, v := range values {
			if math.Abs(v-candidate) < tol {
				peers++
			}
		}
		if peers > count || (peers == count && candidate < best) {
			best = candidate
			count = peers
		}
	}
	return best, count
}

func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
