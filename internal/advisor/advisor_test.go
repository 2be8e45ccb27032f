package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_NilOutputKeepsDeterministic(t *testing.T) {
	m := Merge("because", []string{"A", "B"}, 0.8, "yes", nil)
	assert.Equal(t, "because", m.Reasoning)
	assert.Equal(t, []string{"A", "B"}, m.Sources)
	assert.Equal(t, 0.8, m.Confidence)
	assert.Empty(t, m.MismatchErr)
}

func TestMerge_ReasoningReplacedConfidenceAveraged(t *testing.T) {
	llmConf := 0.6
	m := Merge("det reasoning", []string{"A"}, 0.8, "yes", &Output{
		Reasoning:  "better reasoning",
		Confidence: &llmConf,
	})
	assert.Equal(t, "better reasoning", m.Reasoning)
	assert.InDelta(t, 0.7, m.Confidence, 1e-9)
}

func TestMerge_ResolutionNeverOverridden(t *testing.T) {
	m := Merge("r", []string{"A"}, 0.8, "yes", &Output{Resolution: "no"})
	assert.NotEmpty(t, m.MismatchErr)
	assert.Contains(t, m.MismatchErr, `"no"`)
	assert.Contains(t, m.MismatchErr, `"yes"`)

	agree := Merge("r", []string{"A"}, 0.8, "yes", &Output{Resolution: "yes"})
	assert.Empty(t, agree.MismatchErr)
}

func TestMergeSources_UnionDedupCap(t *testing.T) {
	a := []string{"A", "B", "C"}
	b := []string{"B", "D", "E", "F", "G", "H", "I", "J"}
	out := MergeSources(a, b)
	assert.Len(t, out, MaxSources)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, out)

	assert.Equal(t, []string{"A"}, MergeSources([]string{"A", "A", ""}, nil))
}
