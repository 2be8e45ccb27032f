// Package evidence packages every intermediate pipeline artifact into the
// stable audit payload handed back with each resolution.
package evidence

import (
	"time"

	"github.com/google/uuid"

	"github.com/sportsettle/sportsettle/internal/confidence"
	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/validate"
)

// Statistics is the statistic-pipeline section of the payload.
type Statistics struct {
	Providers            []domain.ProviderResponse    `json:"providers"`
	NormalizedStatistics []domain.NormalizedStatistic `json:"normalized_statistics"`
	Validation           validate.Report              `json:"validation"`
	Consensus            domain.StatisticConsensus    `json:"consensus"`
	Confidence           confidence.Score             `json:"confidence"`
	Errors               []string                     `json:"errors"`
	Warnings             []string                     `json:"warnings"`
}

// Data is the payload body.
type Data struct {
	AgentSummary     string                    `json:"agent_summary,omitempty"`
	AgentArtifacts   []any                     `json:"agent_artifacts"`
	NormalizedFacts  []domain.NormalizedFact   `json:"normalized_facts"`
	Groups           []domain.EvidenceGroup    `json:"groups"`
	AcceptedGroupKey string                    `json:"accepted_group_key,omitempty"`
	Statistics       *Statistics               `json:"statistics,omitempty"`
	ModelSummary     string                    `json:"model_summary,omitempty"`
}

// Payload is the audit record. Its shape is stable: downstream storage
// depends on these fields.
type Payload struct {
	Metadata       map[string]any `json:"metadata"`
	Data           Data           `json:"data"`
	Errors         []string       `json:"errors"`
	Warnings       []string       `json:"warnings"`
	ModelOutputRaw string         `json:"model_output_raw,omitempty"`
}

// Assembler accumulates artifacts while the pipeline runs.
type Assembler struct {
	payload Payload
}

// NewAssembler starts a payload for one inbound query.
func NewAssembler(query, pipeline string, startedAt time.Time) *Assembler {
	return &Assembler{payload: Payload{
		Metadata: map[string]any{
			"request_id": uuid.NewString(),
			"query":      query,
			"pipeline":   pipeline,
			"started_at": startedAt.UTC().Format(time.RFC3339),
		},
		Data: Data{AgentArtifacts: []any{}},
	}}
}

func (a *Assembler) Error(msg string) {
	if msg != "" {
		a.payload.Errors = append(a.payload.Errors, msg)
	}
}

func (a *Assembler) Warning(msg string) {
	if msg != "" {
		a.payload.Warnings = append(a.payload.Warnings, msg)
	}
}

func (a *Assembler) Artifact(artifact any) {
	a.payload.Data.AgentArtifacts = append(a.payload.Data.AgentArtifacts, artifact)
}

func (a *Assembler) Facts(facts []domain.NormalizedFact) {
	a.payload.Data.NormalizedFacts = facts
}

func (a *Assembler) Groups(groups []domain.EvidenceGroup, acceptedKey string) {
	a.payload.Data.Groups = groups
	a.payload.Data.AcceptedGroupKey = acceptedKey
}

func (a *Assembler) Statistics(s *Statistics) {
	a.payload.Data.Statistics = s
}

func (a *Assembler) Summary(agent, model string) {
	a.payload.Data.AgentSummary = agent
	a.payload.Data.ModelSummary = model
}

func (a *Assembler) ModelOutput(raw string) {
	a.payload.ModelOutputRaw = raw
}

// Finish stamps the completion time and returns the payload.
func (a *Assembler) Finish(now time.Time) Payload {
	a.payload.Metadata["finished_at"] = now.UTC().Format(time.RFC3339)
	return a.payload
}
