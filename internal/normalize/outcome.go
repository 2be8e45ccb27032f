package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

// Outcome converts one provider envelope into normalized outcome facts.
// Rows that cannot produce a canonical key are discarded.
func Outcome(env domain.ProviderResponse, q *domain.OutcomeQuery) []domain.NormalizedFact {
	if env.Skipped || env.Payload == nil {
		return nil
	}

	var facts []domain.NormalizedFact
	switch {
	case env.Provider == providers.TheSportsDB:
		facts = sportsDBFacts(env, q)
	case env.Provider == providers.APIFootball || env.Provider == providers.APIBasketball:
		facts = apiSportsFacts(env, q)
	case env.Provider == providers.TheOddsAPI:
		facts = oddsAPIFacts(env, q)
	case strings.HasPrefix(env.Provider, providers.RSSPrefix):
		facts = rssFacts(env, q)
	default:
		log.Debug().Str("provider", env.Provider).Msg("no outcome adapter for provider")
		return nil
	}

	out := facts[:0]
	for _, f := range facts {
		key, ok := f.CanonicalKeyFor(factDate(f, q))
		if !ok {
			continue
		}
		f.CanonicalKey = key
		out = append(out, f)
	}
	return out
}

// factDate picks the grouping date: the structured query date, else the
// fact's own end date.
func factDate(f domain.NormalizedFact, q *domain.OutcomeQuery) string {
	if q != nil && q.Date != "" {
		return q.Date
	}
	if f.EndTimestamp != nil {
		return f.EndTimestamp.UTC().Format("2006-01-02")
	}
	return ""
}

func baseFact(env domain.ProviderResponse) domain.NormalizedFact {
	return domain.NormalizedFact{
		Provider:    env.Provider,
		Reliability: providers.Reliability(env.Provider),
		CollectedAt: env.CollectedAt,
	}
}

// teamsMatch reports whether the row's teams intersect the structured
// query's teams. An empty query team list matches everything.
func teamsMatch(home, away string, teams []string) bool {
	if len(teams) == 0 {
		return true
	}
	h, a := domain.Normalize(home), domain.Normalize(away)
	for _, t := range teams {
		n := domain.Normalize(t)
		if n != "" && (n == h || n == a) {
			return true
		}
	}
	return false
}

func dateMatches(rowDate, queryDate string) bool {
	if queryDate == "" || rowDate == "" {
		return true
	}
	return strings.HasPrefix(rowDate, queryDate)
}

func winnerFromScores(home, away string, hs, as int) string {
	switch {
	case hs > as:
		return home
	case as > hs:
		return away
	default:
		return ""
	}
}

func display(home string, hs, as int, away string) string {
	return fmt.Sprintf("%s %d-%d %s", home, hs, as, away)
}

// sportsDBFacts walks TheSportsDB events[] and results[] rows.
func sportsDBFacts(env domain.ProviderResponse, q *domain.OutcomeQuery) []domain.NormalizedFact {
	payload, ok := asMap(env.Payload)
	if !ok {
		return nil
	}
	var rows []any
	for _, key := range []string{"events", "results"} {
		if arr, ok := asSlice(payload[key]); ok {
			rows = append(rows, arr...)
		}
	}

	var facts []domain.NormalizedFact
	for _, row := range rows {
		event, ok := asMap(row)
		if !ok {
			continue
		}
		home := getString(event, "strHomeTeam")
		away := getString(event, "strAwayTeam")
		if !teamsMatch(home, away, q.Teams) {
			continue
		}
		if !dateMatches(getString(event, "dateEvent"), q.Date) {
			continue
		}

		f := baseFact(env)
		f.HomeTeam, f.AwayTeam = home, away
		f.Status = getString(event, "strStatus")
		f.Raw = event
		if ts := getString(event, "dateEvent"); ts != "" {
			if day, err := time.Parse("2006-01-02", ts); err == nil {
				f.EndTimestamp = &day
			}
		}

		hs, hok := getInt(event, "intHomeScore")
		as, aok := getInt(event, "intAwayScore")
		if hok && aok {
			f.HomeScore, f.AwayScore = &hs, &as
			f.Winner = winnerFromScores(home, away, hs, as)
			f.Display = display(home, hs, as, away)
			f.Category = domain.CategoryResult
			if f.Winner == "" {
				f.Category = domain.CategoryScoreline
			}
		} else if result := getString(event, "strResult"); result != "" {
			// Some rows carry only a textual result naming the winner.
			for _, team := range []string{home, away} {
				if team != "" && strings.Contains(domain.Normalize(result), domain.Normalize(team)) {
					f.Winner = team
					break
				}
			}
			f.Display = result
			f.Category = domain.CategoryResult
		}
		facts = append(facts, f)
	}
	return facts
}

// apiSportsFacts walks an API-Sports response[] (soccer fixtures or
// basketball games share the envelope shape).
func apiSportsFacts(env domain.ProviderResponse, q *domain.OutcomeQuery) []domain.NormalizedFact {
	payload, ok := asMap(env.Payload)
	if !ok {
		return nil
	}
	rows, ok := asSlice(payload["response"])
	if !ok {
		return nil
	}

	var facts []domain.NormalizedFact
	for _, row := range rows {
		entry, ok := asMap(row)
		if !ok {
			continue
		}
		teams, _ := asMap(entry["teams"])
		homeObj, _ := asMap(teams["home"])
		awayObj, _ := asMap(teams["away"])
		home := getString(homeObj, "name")
		away := getString(awayObj, "name")
		if !teamsMatch(home, away, q.Teams) {
			continue
		}

		fixture, _ := asMap(entry["fixture"])
		rowDate := getString(fixture, "date")
		if !dateMatches(rowDate, q.Date) {
			continue
		}

		f := baseFact(env)
		f.HomeTeam, f.AwayTeam = home, away
		f.Raw = entry
		if status, ok := asMap(fixture["status"]); ok {
			f.Status = getString(status, "long")
			if f.Status == "" {
				f.Status = getString(status, "short")
			}
		}
		if rowDate != "" {
			if ts, err := time.Parse(time.RFC3339, rowDate); err == nil {
				f.EndTimestamp = &ts
			}
		}

		hs, as, scored := apiSportsScore(entry)
		if scored {
			f.HomeScore, f.AwayScore = &hs, &as
			f.Winner = winnerFromScores(home, away, hs, as)
			f.Display = display(home, hs, as, away)
			f.Category = domain.CategoryResult
			if f.Winner == "" {
				f.Category = domain.CategoryScoreline
			}
		}
		// Explicit winner booleans take precedence over score comparison.
		if w, ok := getBool(homeObj, "winner"); ok && w {
			f.Winner = home
			f.Category = domain.CategoryResult
		} else if w, ok := getBool(awayObj, "winner"); ok && w {
			f.Winner = away
			f.Category = domain.CategoryResult
		}
		facts = append(facts, f)
	}
	return facts
}

// apiSportsScore prefers scores.fulltime, then scores.final, then goals.
func apiSportsScore(entry map[string]any) (hs, as int, ok bool) {
	if scores, found := asMap(entry["scores"]); found {
		for _, key := range []string{"fulltime", "final"} {
			if pair, found := asMap(scores[key]); found {
				if hs, as, ok = scorePair(pair); ok {
					return hs, as, true
				}
			}
		}
	}
	if goals, found := asMap(entry["goals"]); found {
		return scorePairFrom(goals)
	}
	return 0, 0, false
}

func scorePair(pair map[string]any) (int, int, bool) {
	return scorePairFrom(pair)
}

func scorePairFrom(pair map[string]any) (int, int, bool) {
	hs, hok := getInt(pair, "home")
	as, aok := getInt(pair, "away")
	return hs, as, hok && aok
}

// oddsAPIFacts walks The Odds API score entries, aligning the scores[] pairs
// with home/away by normalized team name.
func oddsAPIFacts(env domain.ProviderResponse, q *domain.OutcomeQuery) []domain.NormalizedFact {
	rows, ok := asSlice(env.Payload)
	if !ok {
		if payload, isMap := asMap(env.Payload); isMap {
			rows, _ = asSlice(payload["scores"])
		}
	}

	var facts []domain.NormalizedFact
	for _, row := range rows {
		entry, ok := asMap(row)
		if !ok {
			continue
		}
		home := getString(entry, "home_team")
		away := getString(entry, "away_team")
		if !teamsMatch(home, away, q.Teams) {
			continue
		}
		if !dateMatches(getString(entry, "commence_time"), q.Date) {
			continue
		}

		f := baseFact(env)
		f.HomeTeam, f.AwayTeam = home, away
		f.Raw = entry
		if completed, ok := getBool(entry, "completed"); ok && completed {
			f.Status = "finished"
		}
		if ct := getString(entry, "commence_time"); ct != "" {
			if ts, err := time.Parse(time.RFC3339, ct); err == nil {
				f.EndTimestamp = &ts
			}
		}

		scores, _ := asSlice(entry["scores"])
		var hs, as int
		var hok, aok bool
		for _, s := range scores {
			pair, ok := asMap(s)
			if !ok {
				continue
			}
			name := domain.Normalize(getString(pair, "name"))
			value, vok := getNumber(pair, "score")
			if !vok {
				continue
			}
			switch name {
			case domain.Normalize(home):
				hs, hok = int(value), true
			case domain.Normalize(away):
				as, aok = int(value), true
			}
		}
		if hok && aok {
			f.HomeScore, f.AwayScore = &hs, &as
			f.Winner = winnerFromScores(home, away, hs, as)
			f.Display = display(home, hs, as, away)
			f.Category = domain.CategoryResult
			if f.Winner == "" {
				f.Category = domain.CategoryScoreline
			}
		}
		facts = append(facts, f)
	}
	return facts
}

// resultVerbRe matches the "A <verb> B" shape in a headline.
var resultVerbRe = regexp.MustCompile(`(?i)\b(defeats?|beats?|tops|edges|wins|past|overcomes?)\b`)

// rssFacts scans feed item titles. The heuristic is deliberately
// conservative: the title must contain at least min(2, len(teams)) of the
// configured teams and the phrase before the verb must name one of them.
func rssFacts(env domain.ProviderResponse, q *domain.OutcomeQuery) []domain.NormalizedFact {
	items, ok := asSlice(env.Payload)
	if !ok {
		return nil
	}

	var facts []domain.NormalizedFact
	for _, item := range items {
		entry, ok := asMap(item)
		if !ok {
			continue
		}
		title := getString(entry, "title")
		if title == "" {
			continue
		}

		winner, loser, ok := extractOutcomeFromTitle(title, q.Teams)
		if !ok {
			continue
		}

		f := baseFact(env)
		f.Category = domain.CategoryNews
		f.Reliability = 0.6
		f.Winner = winner
		f.HomeTeam, f.AwayTeam = winner, loser
		f.Display = title
		f.SourceURL = getString(entry, "link")
		f.Status = "news"
		f.Raw = entry
		if pub := getString(entry, "published"); pub != "" {
			if ts, err := time.Parse(time.RFC3339, pub); err == nil {
				f.EndTimestamp = &ts
			}
		}
		facts = append(facts, f)
	}
	return facts
}

// extractOutcomeFromTitle applies the "A <verb> B" scan against the
// configured team set.
func extractOutcomeFromTitle(title string, teams []string) (winner, loser string, ok bool) {
	if len(teams) == 0 {
		return "", "", false
	}
	lower := strings.ToLower(title)

	var present []string
	for _, t := range teams {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			present = append(present, t)
		}
	}
	need := 2
	if len(teams) < need {
		need = len(teams)
	}
	if len(present) < need {
		return "", "", false
	}

	loc := resultVerbRe.FindStringIndex(title)
	if loc == nil {
		return "", "", false
	}
	lead := lower[:loc[0]]
	for _, t := range present {
		if strings.Contains(lead, strings.ToLower(t)) {
			winner = t
			break
		}
	}
	if winner == "" {
		return "", "", false
	}
	for _, t := range present {
		if t != winner {
			loser = t
			break
		}
	}
	return winner, loser, true
}
