package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// basketballKeywords trigger sport=basketball on any hit.
var basketballKeywords = []string{
	"nba", "basketball", "three pointer", "free throw", "rebound", "dunk",
	"lakers", "suns", "celtics", "warriors", "bulls", "knicks", "heat",
	"bucks", "nets", "clippers", "mavericks", "nuggets",
}

var soccerKeywords = []string{
	"soccer", "premier league", "la liga", "champions league", "serie a",
	"bundesliga", "striker", "goalkeeper", "offside",
	"arsenal", "chelsea", "liverpool", "tottenham", "everton",
	"manchester united", "manchester city", "real madrid", "barcelona",
	"atletico madrid", "bayern munich", "juventus", "inter milan", "ac milan",
	"paris saint-germain",
}

// teamKeywords is the fixed recognition set, multi-word names first so
// "Manchester United" never matches as "Manchester".
var teamKeywords = []string{
	"manchester united", "manchester city", "real madrid", "atletico madrid",
	"bayern munich", "inter milan", "ac milan", "paris saint-germain",
	"arsenal", "chelsea", "liverpool", "tottenham", "everton", "barcelona",
	"juventus",
	"lakers", "suns", "celtics", "warriors", "bulls", "knicks", "heat",
	"bucks", "nets", "clippers", "mavericks", "nuggets",
}

// Display casing for recognized teams.
var teamDisplay = map[string]string{}

func init() {
	for _, t := range teamKeywords {
		teamDisplay[t] = titleCase(t)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		// Tokens whose printed form is not plain first-letter capitalization.
		if w == "saint-germain" {
			words[i] = "Saint-Germain"
			continue
		}
		if w == "ac" || w == "psg" {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// metadata is the shared extraction pass both classification paths consume.
type metadata struct {
	text  string // whitespace-normalized original
	lower string
	sport string
	date  string // ISO YYYY-MM-DD or empty
	teams []string
}

func extractMetadata(raw string) metadata {
	text := strings.Join(strings.Fields(raw), " ")
	m := metadata{text: text, lower: strings.ToLower(text)}
	m.sport = detectSport(m.lower)
	m.date = detectDate(m.text)
	m.teams = detectTeams(m.lower)
	return m
}

func detectSport(lower string) string {
	for _, kw := range basketballKeywords {
		if strings.Contains(lower, kw) {
			return "basketball"
		}
	}
	for _, kw := range soccerKeywords {
		if strings.Contains(lower, kw) {
			return "soccer"
		}
	}
	return "general"
}

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
)

var monthIndex = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// detectDate extracts an ISO date with priority ISO > "Month D, YYYY" >
// numeric M/D/YY(YY). Numeric dates prefer month-first and fall back to
// day-first when the first field cannot be a month.
func detectDate(text string) string {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		if _, err := time.Parse("2006-01-02", m[0]); err == nil {
			return m[0]
		}
	}
	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		month := monthIndex[strings.ToLower(m[1])]
		day := atoi(m[2])
		year := atoi(m[3])
		if day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		}
	}
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if year < 100 {
			year += 2000
		}
		month, day := first, second
		if first > 12 && second <= 12 {
			month, day = second, first
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
		}
	}
	return ""
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// detectTeams scans the fixed keyword set and returns display names in order
// of first appearance, capped at four.
func detectTeams(lower string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, kw := range teamKeywords {
		if pos := strings.Index(lower, kw); pos >= 0 {
			covered := false
			for _, h := range hits {
				// A longer earlier match already covers this span.
				if pos >= h.pos && pos < h.pos+len(h.name) {
					covered = true
					break
				}
			}
			if !covered {
				hits = append(hits, hit{pos: pos, name: kw})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	var teams []string
	for _, h := range hits {
		teams = append(teams, teamDisplay[h.name])
		if len(teams) == 4 {
			break
		}
	}
	return teams
}

// properNounRe matches a run of capitalized words, the shape player and team
// candidates take in free text.
var properNounRe = regexp.MustCompile(`[A-Z][A-Za-z0-9.'-]*(?:\s+[A-Z][A-Za-z0-9.'-]*)*`)
