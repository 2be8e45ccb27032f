package resolve

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/providers"
)

// Fan-out concurrency caps per pipeline.
const (
	OutcomeConcurrency   = 3
	StatisticConcurrency = 4
)

// Source supplies provider envelopes for each pipeline. The production
// implementation fans out over the registry; tests substitute canned
// envelopes.
type Source interface {
	OutcomeEnvelopes(ctx context.Context, q *domain.OutcomeQuery) []domain.ProviderResponse
	StatisticEnvelopes(ctx context.Context, q *domain.StatisticQuery) []domain.ProviderResponse
}

// RegistrySource fans out over the provider registry with bounded worker
// pools. Results join in completion order; the reconciliation stages are
// order-independent.
type RegistrySource struct {
	reg *providers.Registry
}

// NewRegistrySource wraps a registry.
func NewRegistrySource(reg *providers.Registry) *RegistrySource {
	return &RegistrySource{reg: reg}
}

func (s *RegistrySource) OutcomeEnvelopes(ctx context.Context, q *domain.OutcomeQuery) []domain.ProviderResponse {
	params := providers.Params{Date: q.Date, Competition: q.Competition, Player: q.Player}
	if len(q.Teams) > 0 {
		params.HomeTeam = q.Teams[0]
	}
	if len(q.Teams) > 1 {
		params.AwayTeam = q.Teams[1]
	}

	p := pool.NewWithResults[[]domain.ProviderResponse]().WithMaxGoroutines(OutcomeConcurrency)
	for _, spec := range s.reg.For(providers.PipelineOutcome) {
		spec := spec
		p.Go(func() []domain.ProviderResponse {
			return []domain.ProviderResponse{s.reg.Fetch(ctx, spec, params)}
		})
	}
	p.Go(func() []domain.ProviderResponse {
		return s.reg.FetchRSS(ctx)
	})

	var envs []domain.ProviderResponse
	for _, batch := range p.Wait() {
		envs = append(envs, batch...)
	}
	return envs
}

func (s *RegistrySource) StatisticEnvelopes(ctx context.Context, q *domain.StatisticQuery) []domain.ProviderResponse {
	params := providers.Params{
		Statistic: string(q.StatisticType),
		Team:      q.Entities.Team,
		Player:    q.Entities.Player,
		Period:    string(q.Period),
	}
	if m := q.Entities.Match; m != nil {
		params.MatchID = m.ID
		params.HomeTeam = m.Home
		params.AwayTeam = m.Away
		params.Date = m.Date
		params.Competition = m.Competition
	}

	p := pool.NewWithResults[domain.ProviderResponse]().WithMaxGoroutines(StatisticConcurrency)
	for _, spec := range s.reg.For(providers.PipelineStatistic) {
		spec := spec
		p.Go(func() domain.ProviderResponse {
			return s.reg.Fetch(ctx, spec, params)
		})
	}
	return p.Wait()
}
