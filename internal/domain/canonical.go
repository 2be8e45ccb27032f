package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize reduces a display name to its comparable form: lowercased
// [a-z0-9]+ segments joined without separators. "Real Madrid C.F." and
// "real madrid cf" normalize identically.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TeamsKey builds the order-independent team component of a canonical key:
// normalized names, sorted, joined with "|". Empty names are dropped.
func TeamsKey(teams []string) string {
	norm := make([]string, 0, len(teams))
	for _, t := range teams {
		if n := Normalize(t); n != "" {
			norm = append(norm, n)
		}
	}
	sort.Strings(norm)
	return strings.Join(norm, "|")
}

// CanonicalKeyFor derives the grouping key for a fact. Award facts key on the
// award and player, winner facts on the winner, score facts on the scoreline;
// a fact carrying none of these is not groupable and ok is false.
func (f *NormalizedFact) CanonicalKeyFor(date string) (key string, ok bool) {
	tk := TeamsKey([]string{f.HomeTeam, f.AwayTeam})
	switch {
	case f.Award != "" && f.Player != "":
		return fmt.Sprintf("award:%s:%s:%s:%s", Normalize(f.Award), Normalize(f.Player), tk, date), true
	case f.Winner != "":
		return fmt.Sprintf("winner:%s:%s:%s", Normalize(f.Winner), tk, date), true
	case f.HomeScore != nil && f.AwayScore != nil:
		return fmt.Sprintf("score:%s:%d-%d:%s", tk, *f.HomeScore, *f.AwayScore, date), true
	default:
		return "", false
	}
}
