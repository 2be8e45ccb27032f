// Package classify converts free-form sports questions into exactly one of
// the two structured request shapes. The statistic path is tried first; text
// naming no known statistic falls through to the outcome path.
package classify

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sportsettle/sportsettle/internal/domain"
)

// ErrEmptyQuery marks input with no classifiable content.
var ErrEmptyQuery = errors.New("empty query")

// Result carries at most one structured shape.
type Result struct {
	Outcome   *domain.OutcomeQuery
	Statistic *domain.StatisticQuery
}

// Classifier is stateless apart from its validator; safe for concurrent use.
type Classifier struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a classifier. The validator enforces the structural invariants
// (threshold⇔comparator on threshold queries, team bound on outcome queries)
// as a guard against classifier regressions.
func New() *Classifier {
	v := validator.New()
	v.RegisterStructValidation(statisticQueryInvariants, domain.StatisticQuery{})
	v.RegisterStructValidation(outcomeQueryInvariants, domain.OutcomeQuery{})
	return &Classifier{validate: v, now: time.Now}
}

// WithNow overrides the clock; tests pin resolvability.
func (c *Classifier) WithNow(now func() time.Time) *Classifier {
	c.now = now
	return c
}

func statisticQueryInvariants(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.StatisticQuery)
	isThreshold := q.QueryType == domain.StatQueryThreshold
	hasThreshold := q.Threshold != nil && q.Comparator != ""
	if isThreshold != hasThreshold {
		sl.ReportError(q.Threshold, "Threshold", "threshold", "threshold_iff", "")
	}
}

func outcomeQueryInvariants(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.OutcomeQuery)
	if q.QuestionType == domain.QuestionDidResultHappen && len(q.Teams) == 0 {
		sl.ReportError(q.Teams, "Teams", "teams", "teams_nonempty", "")
	}
	if len(q.Teams) > 4 {
		sl.ReportError(q.Teams, "Teams", "teams", "max", "4")
	}
}

// Classify parses raw text into a structured query. Exactly one of the
// result's fields is set on success.
func (c *Classifier) Classify(raw string) (Result, error) {
	m := extractMetadata(raw)
	if m.text == "" {
		return Result{}, ErrEmptyQuery
	}

	if sq := classifyStatistic(m, c.now()); sq != nil {
		if err := c.validate.Struct(sq); err != nil {
			return Result{}, err
		}
		return Result{Statistic: sq}, nil
	}

	oq := classifyOutcome(m)
	if err := c.validate.Struct(oq); err != nil {
		return Result{}, err
	}
	return Result{Outcome: oq}, nil
}

var (
	didResultRe = regexp.MustCompile(`(?i)\bdid\b.*\b(win|lose|draw|tie|happen|beat|defeat)\b`)
	whoWonRe    = regexp.MustCompile(`(?i)\bwho won\b|\bwinner\b|\bvictor\b`)
	scorelineRe = regexp.MustCompile(`(?i)\bscoreline\b|\bfinal score\b|\bscore\b|\bpoints\b`)
	awardRe     = regexp.MustCompile(`(?i)\bmvp\b|\baward\b|\bplayer of the match\b|\bgolden boot\b|\btop scorer\b`)
)

// classifyOutcome types the question by the first matching rule in declared
// order.
func classifyOutcome(m metadata) *domain.OutcomeQuery {
	q := &domain.OutcomeQuery{
		Sport:   domain.Sport(m.sport),
		Date:    m.date,
		Teams:   m.teams,
		RawText: m.text,
	}

	switch {
	case didResultRe.MatchString(m.text) && len(m.teams) > 0:
		q.QuestionType = domain.QuestionDidResultHappen
	case whoWonRe.MatchString(m.text):
		q.QuestionType = domain.QuestionWhoWon
	case scorelineRe.MatchString(m.text):
		q.QuestionType = domain.QuestionScoreline
	case awardRe.MatchString(m.text):
		q.QuestionType = domain.QuestionPlayerAward
	default:
		q.QuestionType = domain.QuestionOther
	}

	if q.QuestionType == domain.QuestionPlayerAward {
		if player := extractPlayer(m); player != "" {
			q.Player = player
		}
	}

	if comp := detectCompetition(m.lower); comp != "" {
		q.Competition = comp
	}
	return q
}

var competitions = []string{
	"premier league", "la liga", "champions league", "serie a", "bundesliga",
	"nba finals", "euroleague", "world cup", "copa del rey", "fa cup",
}

func detectCompetition(lower string) string {
	for _, comp := range competitions {
		if strings.Contains(lower, comp) {
			return titleCase(comp)
		}
	}
	return ""
}
