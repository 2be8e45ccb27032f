package normalize

import (
	"fmt"
	"strings"

	"github.com/sportsettle/sportsettle/internal/domain"
)

// statAliases maps normalized JSON keys and labels to statistic types.
var statAliases = map[string]domain.StatType{
	"yellowcards":            domain.StatYellowCards,
	"yellowcard":             domain.StatYellowCards,
	"bookings":               domain.StatYellowCards,
	"redcards":               domain.StatRedCards,
	"redcard":                domain.StatRedCards,
	"totalcards":             domain.StatTotalCards,
	"cards":                  domain.StatTotalCards,
	"corners":                domain.StatCorners,
	"cornerkicks":            domain.StatCorners,
	"shotsontarget":          domain.StatShotsOnTarget,
	"shotsongoal":            domain.StatShotsOnTarget,
	"shots":                  domain.StatShotsTotal,
	"totalshots":             domain.StatShotsTotal,
	"shotstotal":             domain.StatShotsTotal,
	"fouls":                  domain.StatFouls,
	"possession":             domain.StatPossession,
	"ballpossession":         domain.StatPossession,
	"passes":                 domain.StatPasses,
	"totalpasses":            domain.StatPasses,
	"passaccuracy":           domain.StatPassAccuracy,
	"passingaccuracy":        domain.StatPassAccuracy,
	"keypasses":              domain.StatKeyPasses,
	"saves":                  domain.StatSaves,
	"tackles":                domain.StatTackles,
	"interceptions":          domain.StatInterceptions,
	"freekicks":              domain.StatFreeKicks,
	"penaltiesawarded":       domain.StatPenaltiesAwarded,
	"penaltiesscored":        domain.StatPenaltiesScored,
	"technicalfouls":         domain.StatTechnicalFouls,
	"flagrantfouls":          domain.StatFlagrantFouls,
	"turnovers":              domain.StatTurnovers,
	"offensiverebounds":      domain.StatReboundsOffensive,
	"reboundsoffensive":      domain.StatReboundsOffensive,
	"defensiverebounds":      domain.StatReboundsDefensive,
	"reboundsdefensive":      domain.StatReboundsDefensive,
	"rebounds":               domain.StatReboundsTotal,
	"totalrebounds":          domain.StatReboundsTotal,
	"blocks":                 domain.StatBlocks,
	"steals":                 domain.StatSteals,
	"threepointersmade":      domain.StatThreePointersMade,
	"threepointers":          domain.StatThreePointersMade,
	"threepointersattempted": domain.StatThreePointersAttempted,
	"freethrowsmade":         domain.StatFreeThrowsMade,
	"freethrows":             domain.StatFreeThrowsMade,
	"freethrowsattempted":    domain.StatFreeThrowsAttempted,
	"minutesplayed":          domain.StatMinutesPlayed,
	"minutes":                domain.StatMinutesPlayed,
	"penalties":              domain.StatPenalties,
	"penaltyyards":           domain.StatPenaltyYards,
	"fumbles":                domain.StatFumbles,
	"sacks":                  domain.StatSacks,
	"timeofpossession":       domain.StatTimeOfPossession,
	"thirddownconversions":   domain.StatThirdDownConversions,
	"redzoneefficiency":      domain.StatRedZoneEfficiency,
	"goals":                  domain.StatGoals,
	"assists":                domain.StatAssists,
}

func aliasType(key string) (domain.StatType, bool) {
	t, ok := statAliases[normalizeKey(key)]
	return t, ok
}

// subArrayKeys are the container keys the walker descends into first.
var subArrayKeys = []string{"statistics", "data", "items"}

// typeSiblingKeys disambiguate a "value" field.
var typeSiblingKeys = []string{"type", "statType", "stat_type", "label", "name"}

// walkContext carries the team/player attribution picked up while
// descending.
type walkContext struct {
	team   string
	player string
}

// Statistic walks one provider payload and emits normalized statistic
// candidates. Candidates with no recognizable type inherit the query's
// statistic type; all inherit its period and aggregation (providers are
// queried with those parameters).
func Statistic(env domain.ProviderResponse, q *domain.StatisticQuery) []domain.NormalizedStatistic {
	if env.Skipped || env.Payload == nil {
		return nil
	}
	w := &statWalker{env: env, query: q}
	w.walk(env.Payload, walkContext{})
	return w.out
}

type statWalker struct {
	env   domain.ProviderResponse
	query *domain.StatisticQuery
	out   []domain.NormalizedStatistic
}

func (w *statWalker) emit(t domain.StatType, value float64, raw string, ctx walkContext) {
	q := w.query
	stat := domain.NormalizedStatistic{
		Type:        t,
		Team:        ctx.team,
		Player:      ctx.player,
		Match:       q.Entities.Match,
		Value:       value,
		Unit:        domain.UnitFor(t),
		Period:      q.Period,
		Aggregation: q.Aggregation,
		Sources: []domain.StatisticSource{{
			Source:      w.env.Provider,
			Tier:        w.env.Tier,
			Weight:      w.env.Weight,
			RawValue:    raw,
			ParsedValue: value,
			Timestamp:   w.env.CollectedAt,
		}},
	}
	w.out = append(w.out, stat)
}

func (w *statWalker) walk(node any, ctx walkContext) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			w.walk(item, ctx)
		}
	case string:
		if value, ok := parseNumericToken(v); ok {
			w.emit(w.query.StatisticType, value, v, ctx)
		}
	case map[string]any:
		w.walkObject(v, ctx)
	}
}

func (w *statWalker) walkObject(obj map[string]any, ctx walkContext) {
	if team := getString(obj, "team"); team != "" {
		ctx.team = team
	}
	if player := getString(obj, "player"); player != "" {
		ctx.player = player
	}

	// (a) known statistic containers
	descended := false
	for _, key := range subArrayKeys {
		if arr, ok := asSlice(obj[key]); ok {
			descended = true
			for _, item := range arr {
				w.walk(item, ctx)
			}
		}
	}
	if descended {
		return
	}

	// (b) embedded free text
	if text := getString(obj, "text"); text != "" {
		if value, ok := parseNumericToken(text); ok {
			w.emit(w.typeFromText(text), value, text, ctx)
			return
		}
	}

	// (c) a value field with a type-bearing sibling
	if rawValue, hasValue := obj["value"]; hasValue {
		if value, ok := toNumber(rawValue); ok {
			t := w.query.StatisticType
			for _, sib := range typeSiblingKeys {
				if label := getString(obj, sib); label != "" {
					if aliased, ok := aliasType(label); ok {
						t = aliased
						break
					}
				}
			}
			w.emit(t, value, fmt.Sprint(rawValue), ctx)
			return
		}
	}

	// (d) primitive pairs keyed by a type alias, (e) nested objects
	for key, raw := range obj {
		switch child := raw.(type) {
		case map[string]any:
			w.walkObject(child, ctx)
		case []any:
			w.walk(child, ctx)
		default:
			if t, ok := aliasType(key); ok {
				if value, ok := toNumber(raw); ok {
					w.emit(t, value, fmt.Sprint(raw), ctx)
				}
			}
		}
	}
}

// typeFromText infers a statistic type from a free-text fragment, falling
// back to the query's type.
func (w *statWalker) typeFromText(text string) domain.StatType {
	lower := strings.ToLower(text)
	for _, phrase := range textPhrases {
		if strings.Contains(lower, phrase.phrase) {
			return phrase.typ
		}
	}
	return w.query.StatisticType
}

type textPhrase struct {
	phrase string
	typ    domain.StatType
}

var textPhrases = []textPhrase{
	{"shots on target", domain.StatShotsOnTarget},
	{"yellow cards", domain.StatYellowCards},
	{"red cards", domain.StatRedCards},
	{"total cards", domain.StatTotalCards},
	{"pass accuracy", domain.StatPassAccuracy},
	{"corners", domain.StatCorners},
	{"possession", domain.StatPossession},
	{"fouls", domain.StatFouls},
	{"saves", domain.StatSaves},
	{"goals", domain.StatGoals},
	{"assists", domain.StatAssists},
	{"rebounds", domain.StatReboundsTotal},
	{"turnovers", domain.StatTurnovers},
	{"cards", domain.StatTotalCards},
}
