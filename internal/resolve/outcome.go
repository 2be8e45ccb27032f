package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sportsettle/sportsettle/internal/advisor"
	"github.com/sportsettle/sportsettle/internal/confidence"
	"github.com/sportsettle/sportsettle/internal/consensus"
	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/evidence"
	"github.com/sportsettle/sportsettle/internal/metrics"
	"github.com/sportsettle/sportsettle/internal/normalize"
)

func (r *Resolver) resolveOutcome(ctx context.Context, query string, q *domain.OutcomeQuery, start time.Time) ResolutionResult {
	asm := evidence.NewAssembler(query, "outcome", start)
	asm.Artifact(q)

	envelopes := r.source.OutcomeEnvelopes(ctx, q)
	recordEnvelopes(envelopes, asm)

	var facts []domain.NormalizedFact
	for _, env := range envelopes {
		facts = append(facts, normalize.Outcome(env, q)...)
	}
	asm.Facts(facts)

	cres := consensus.Outcome(facts)
	acceptedKey := ""
	if cres.Accepted != nil {
		acceptedKey = cres.Accepted.Key
	}
	asm.Groups(cres.Groups, acceptedKey)

	if !cres.Corroborated() {
		got := 0
		if cres.Accepted != nil {
			got = len(cres.Accepted.Providers)
		}
		asm.Error(fmt.Sprintf(
			"insufficient consensus: accepted group has %d distinct providers (minimum %d)",
			got, consensus.MinCorroboratingProviders))
		metrics.Resolutions.WithLabelValues("outcome", InsufficientData).Inc()
		return ResolutionResult{
			Resolution: InsufficientData,
			Confidence: insufficientConsensusConfidence,
			Reasoning:  "Not enough independent providers corroborate any single outcome.",
			Sources:    sourcesOf(cres),
			Evidence:   asm.Finish(r.now()),
		}
	}

	acc := cres.Accepted
	resolution, reasoning := deriveOutcome(q, cres)
	if resolution == InsufficientData {
		asm.Error("accepted group carries neither a winner nor an award")
		metrics.Resolutions.WithLabelValues("outcome", InsufficientData).Inc()
		return ResolutionResult{
			Resolution: InsufficientData,
			Confidence: insufficientConsensusConfidence,
			Reasoning:  reasoning,
			Sources:    advisor.MergeSources(acc.Providers, nil),
			Evidence:   asm.Finish(r.now()),
		}
	}

	score := confidence.Outcome(len(acc.Providers), cres.Conflicts, acc.ReliabilityAverage, acc.Facts, r.now())
	asm.Artifact(score)

	result := ResolutionResult{
		Resolution: resolution,
		Confidence: score.Value,
		Reasoning:  reasoning,
		Sources:    advisor.MergeSources(acc.Providers, nil),
	}

	r.review(ctx, advisor.Input{
		Query:            query,
		Outcome:          q,
		AcceptedGroupKey: acc.Key,
		Resolution:       result.Resolution,
		Confidence:       result.Confidence,
		Providers:        acc.Providers,
	}, asm, &result)

	metrics.Resolutions.WithLabelValues("outcome", "resolved").Inc()
	result.Evidence = asm.Finish(r.now())
	return result
}

// deriveOutcome maps the accepted group onto the question type.
func deriveOutcome(q *domain.OutcomeQuery, cres consensus.OutcomeResult) (resolution, reasoning string) {
	acc := cres.Accepted
	facts := cres.FinalFacts

	var winner string
	var awardFact *domain.NormalizedFact
	for i, f := range facts {
		if winner == "" && f.Winner != "" {
			winner = f.Winner
		}
		if awardFact == nil && f.Category == domain.CategoryAward {
			awardFact = &facts[i]
		}
	}

	corroboration := fmt.Sprintf("%d providers corroborate group %s", len(acc.Providers), acc.Key)

	switch q.QuestionType {
	case domain.QuestionWhoWon:
		if winner != "" {
			return winner, fmt.Sprintf("%s; %s is reported as the winner.", corroboration, winner)
		}
	case domain.QuestionDidResultHappen:
		if winner != "" {
			if domain.Normalize(winner) == domain.Normalize(q.Teams[0]) {
				return "yes", fmt.Sprintf("%s; %s won as asked.", corroboration, winner)
			}
			return "no", fmt.Sprintf("%s; the winner was %s, not %s.", corroboration, winner, q.Teams[0])
		}
	case domain.QuestionScoreline:
		for _, f := range facts {
			if f.HomeScore != nil && f.AwayScore != nil {
				line := fmt.Sprintf("%s %d-%d %s", f.HomeTeam, *f.HomeScore, *f.AwayScore, f.AwayTeam)
				return line, fmt.Sprintf("%s; final score %s.", corroboration, line)
			}
		}
		// Fall back to any grouped fact carrying both scores.
		for _, f := range acc.Facts {
			if f.HomeScore != nil && f.AwayScore != nil {
				line := fmt.Sprintf("%s %d-%d %s", f.HomeTeam, *f.HomeScore, *f.AwayScore, f.AwayTeam)
				return line, fmt.Sprintf("%s; final score %s.", corroboration, line)
			}
		}
	case domain.QuestionPlayerAward:
		if awardFact != nil && awardFact.Player != "" {
			return awardFact.Player, fmt.Sprintf("%s; %s received the %s.", corroboration, awardFact.Player, awardFact.Award)
		}
	}

	if winner != "" {
		return winner, fmt.Sprintf("%s; %s is reported as the winner.", corroboration, winner)
	}
	if awardFact != nil && awardFact.Player != "" {
		return awardFact.Player, fmt.Sprintf("%s; award went to %s.", corroboration, awardFact.Player)
	}
	return InsufficientData, "The corroborated evidence names neither a winner nor an award recipient."
}

// sourcesOf lists the accepted group's providers, if any.
func sourcesOf(cres consensus.OutcomeResult) []string {
	if cres.Accepted == nil {
		return []string{}
	}
	return advisor.MergeSources(cres.Accepted.Providers, nil)
}

// recordEnvelopes folds fan-out failures into evidence: circuit-open skips
// and fetch failures become errors, other skips become warnings.
func recordEnvelopes(envelopes []domain.ProviderResponse, asm *evidence.Assembler) {
	for _, env := range envelopes {
		switch {
		case env.Skipped && strings.HasPrefix(env.SkipReason, "circuit open"):
			asm.Error(fmt.Sprintf("%s: %s", env.Provider, env.SkipReason))
		case env.Skipped:
			asm.Warning(fmt.Sprintf("%s skipped: %s", env.Provider, env.SkipReason))
		case env.Err != "":
			asm.Error(fmt.Sprintf("%s failed: %s", env.Provider, env.Err))
		}
	}
}
