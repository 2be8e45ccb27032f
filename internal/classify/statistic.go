package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sportsettle/sportsettle/internal/domain"
)

// statSynonym binds a phrase to a statistic type. The table is scanned in
// declared order, most specific phrases first, and the first hit wins.
type statSynonym struct {
	phrase string
	typ    domain.StatType
}

var statSynonyms = []statSynonym{
	{"shots on target", domain.StatShotsOnTarget},
	{"shots on goal", domain.StatShotsOnTarget},
	{"yellow cards", domain.StatYellowCards},
	{"yellow card", domain.StatYellowCards},
	{"bookings", domain.StatYellowCards},
	{"red cards", domain.StatRedCards},
	{"red card", domain.StatRedCards},
	{"total cards", domain.StatTotalCards},
	{"pass accuracy", domain.StatPassAccuracy},
	{"passing accuracy", domain.StatPassAccuracy},
	{"key passes", domain.StatKeyPasses},
	{"corner kicks", domain.StatCorners},
	{"corners", domain.StatCorners},
	{"technical fouls", domain.StatTechnicalFouls},
	{"flagrant fouls", domain.StatFlagrantFouls},
	{"free kicks", domain.StatFreeKicks},
	{"penalties awarded", domain.StatPenaltiesAwarded},
	{"penalties scored", domain.StatPenaltiesScored},
	{"penalty yards", domain.StatPenaltyYards},
	{"time of possession", domain.StatTimeOfPossession},
	{"possession", domain.StatPossession},
	{"third down conversions", domain.StatThirdDownConversions},
	{"red zone efficiency", domain.StatRedZoneEfficiency},
	{"offensive rebounds", domain.StatReboundsOffensive},
	{"defensive rebounds", domain.StatReboundsDefensive},
	{"rebounds", domain.StatReboundsTotal},
	{"three pointers attempted", domain.StatThreePointersAttempted},
	{"three pointers made", domain.StatThreePointersMade},
	{"three pointers", domain.StatThreePointersMade},
	{"3-pointers", domain.StatThreePointersMade},
	{"threes", domain.StatThreePointersMade},
	{"free throws attempted", domain.StatFreeThrowsAttempted},
	{"free throws made", domain.StatFreeThrowsMade},
	{"free throws", domain.StatFreeThrowsMade},
	{"minutes played", domain.StatMinutesPlayed},
	{"turnovers", domain.StatTurnovers},
	{"interceptions", domain.StatInterceptions},
	{"tackles", domain.StatTackles},
	{"saves", domain.StatSaves},
	{"blocks", domain.StatBlocks},
	{"steals", domain.StatSteals},
	{"fumbles", domain.StatFumbles},
	{"sacks", domain.StatSacks},
	{"fouls", domain.StatFouls},
	{"passes", domain.StatPasses},
	{"shots", domain.StatShotsTotal},
	{"assists", domain.StatAssists},
	{"goals", domain.StatGoals},
	{"penalties", domain.StatPenalties},
	{"cards", domain.StatTotalCards},
}

func matchStatType(lower string) (domain.StatType, bool) {
	for _, s := range statSynonyms {
		if strings.Contains(lower, s.phrase) {
			return s.typ, true
		}
	}
	return "", false
}

// thresholdPattern carries a compiled pattern and the comparator it implies.
// Patterns are tried in priority order; the first match wins.
type thresholdPattern struct {
	re  *regexp.Regexp
	cmp domain.Comparator
}

var thresholdPatterns = []thresholdPattern{
	{regexp.MustCompile(`(?i)\bover\s+(\d+(?:\.\d+)?)`), domain.CmpGT},
	{regexp.MustCompile(`(?i)\bunder\s+(\d+(?:\.\d+)?)`), domain.CmpLT},
	{regexp.MustCompile(`(?i)\bmore\s+than\s+(\d+(?:\.\d+)?)`), domain.CmpGT},
	{regexp.MustCompile(`(?i)\bless\s+than\s+(\d+(?:\.\d+)?)`), domain.CmpLT},
	{regexp.MustCompile(`(?i)\bat\s+least\s+(\d+(?:\.\d+)?)`), domain.CmpGE},
	{regexp.MustCompile(`(?i)\bat\s+most\s+(\d+(?:\.\d+)?)`), domain.CmpLE},
	{regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\+\s*(?:line|cards|corners)`), domain.CmpGE},
	{regexp.MustCompile(`(?:>=|≥)\s*(\d+(?:\.\d+)?)`), domain.CmpGE},
	{regexp.MustCompile(`(?:<=|≤)\s*(\d+(?:\.\d+)?)`), domain.CmpLE},
}

func matchThreshold(text string) (*float64, domain.Comparator) {
	for _, p := range thresholdPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v, p.cmp
			}
		}
	}
	return nil, ""
}

var (
	versusRe     = regexp.MustCompile(`(?i)\b(?:vs\.?|versus|against)\b`)
	playerDidRe  = regexp.MustCompile(`\bdid\s+([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)`)
	playerPrepRe = regexp.MustCompile(`\b(?:by|from|for)\s+([A-Z][A-Za-z.'-]*(?:\s+[A-Z][A-Za-z.'-]*)*)`)
)

// classifyStatistic attempts the statistic shape. Returns nil when the text
// names no known statistic, handing the query to the outcome path.
func classifyStatistic(m metadata, now time.Time) *domain.StatisticQuery {
	statType, ok := matchStatType(m.lower)
	if !ok {
		return nil
	}

	q := &domain.StatisticQuery{
		StatisticType: statType,
		Aggregation:   detectAggregation(m.lower),
		Period:        detectPeriod(m.lower),
		RawText:       m.text,
	}

	q.Entities = extractEntities(m)

	if player := extractPlayer(m); player != "" {
		q.Entities.Player = player
	}

	q.Threshold, q.Comparator = matchThreshold(m.text)

	switch {
	case q.Threshold != nil:
		q.QueryType = domain.StatQueryThreshold
	case q.Entities.Player != "":
		q.QueryType = domain.StatQueryPlayer
	case singleTeam(q.Entities) || statType == domain.StatTotalCards:
		q.QueryType = domain.StatQueryTeam
	default:
		q.QueryType = domain.StatQueryMatch
	}
	// Threshold and comparator travel only on threshold queries.
	if q.QueryType != domain.StatQueryThreshold {
		q.Threshold = nil
		q.Comparator = ""
	}

	q.EventEndTime = eventEndTime(m.date, now)
	q.CanResolveNow = q.Resolvable(now)
	return q
}

// extractEntities builds match/team entities around a vs/versus/against
// split, falling back to the recognized team list.
func extractEntities(m metadata) domain.QueryEntities {
	var e domain.QueryEntities
	loc := versusRe.FindStringIndex(m.text)
	if loc != nil {
		home := lastProperNoun(m.text[:loc[0]])
		away := firstProperNoun(m.text[loc[1]:])
		if len(m.teams) >= 2 {
			home, away = m.teams[0], m.teams[1]
		}
		if home != "" && away != "" {
			e.Match = &domain.MatchEntity{Home: home, Away: away, Date: m.date}
			return e
		}
	}
	if len(m.teams) >= 2 {
		e.Match = &domain.MatchEntity{Home: m.teams[0], Away: m.teams[1], Date: m.date}
	} else if len(m.teams) == 1 {
		e.Team = m.teams[0]
	}
	return e
}

func extractPlayer(m metadata) string {
	for _, re := range []*regexp.Regexp{playerDidRe, playerPrepRe} {
		if g := re.FindStringSubmatch(m.text); g != nil {
			candidate := strings.TrimSpace(g[1])
			if candidate != "" && !isKnownTeam(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func isKnownTeam(name string) bool {
	_, ok := teamDisplay[strings.ToLower(name)]
	return ok
}

func lastProperNoun(s string) string {
	all := properNounRe.FindAllString(s, -1)
	if len(all) == 0 {
		return ""
	}
	return strings.TrimSpace(all[len(all)-1])
}

func firstProperNoun(s string) string {
	return strings.TrimSpace(properNounRe.FindString(s))
}

func singleTeam(e domain.QueryEntities) bool {
	return e.Team != "" && e.Match == nil
}

func detectAggregation(lower string) domain.Aggregation {
	switch {
	case strings.Contains(lower, "per team"):
		return domain.AggPerTeam
	case strings.Contains(lower, "per player"):
		return domain.AggPerPlayer
	case strings.Contains(lower, "average"):
		return domain.AggAverage
	case strings.Contains(lower, "difference"):
		return domain.AggDifference
	default:
		return domain.AggTotal
	}
}

func detectPeriod(lower string) domain.Period {
	switch {
	case strings.Contains(lower, "first half"):
		return domain.PeriodFirstHalf
	case strings.Contains(lower, "second half"):
		return domain.PeriodSecondHalf
	case strings.Contains(lower, "extra time"):
		return domain.PeriodExtraTime
	case strings.Contains(lower, "overtime"):
		return domain.PeriodOvertime
	case strings.Contains(lower, "quarter"):
		return domain.PeriodQuarter
	default:
		return domain.PeriodFullTime
	}
}

// eventEndTime assumes a match on a past date finished by end of that day
// UTC. Same-day and future dates carry no end time, so such queries are not
// yet resolvable.
func eventEndTime(isoDate string, now time.Time) *time.Time {
	if isoDate == "" {
		return nil
	}
	day, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return nil
	}
	end := day.Add(24 * time.Hour)
	if !end.Before(now) {
		return nil
	}
	return &end
}
