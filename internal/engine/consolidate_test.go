package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concord/internal/domain"
	"concord/internal/engine"
)

func TestConsolidate_EmptyInputDegrades(t *testing.T) {
	eng := newEngine()

	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{}, nil, nil, nil)

	assert.Equal(t, "No analysis available: no models produced usable output.", consolidated.Summary)
	assert.Equal(t, 0.0, consolidated.ConfidenceScore)
	assert.NotNil(t, consolidated.CommonFindings)
	assert.Empty(t, consolidated.CommonFindings)
	assert.NotNil(t, consolidated.ConflictingAnalyses)
	assert.NotNil(t, consolidated.RecommendedActions)
}

func TestConsolidate_ScoreIsMeanWithoutGroups(t *testing.T) {
	eng := newEngine()

	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": result("claude", 0.4),
		"gpt4":   result("gpt4", 0.8),
	}, nil, nil, nil)

	assert.InDelta(t, 0.6, consolidated.ConfidenceScore, 1e-9)
}

func TestConsolidate_ScoreNeverExceedsBestModel(t *testing.T) {
	eng := newEngine()

	groups := []domain.EntityConsensusGroup{{
		Text:      "Acme Corp",
		Consensus: domain.ConsensusAgree,
		Mentions: []domain.EntityMention{
			{Model: "claude", Type: "organization"},
			{Model: "gpt4", Type: "organization"},
		},
	}}
	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": result("claude", 0.5),
		"gpt4":   result("gpt4", 0.6),
	}, nil, groups, nil)

	assert.InDelta(t, 0.6, consolidated.ConfidenceScore, 1e-9)
}

func TestConsolidate_ScoreFloorWithUsableModels(t *testing.T) {
	eng := newEngine()

	groups := []domain.EntityConsensusGroup{{
		Text:      "Mercury",
		Consensus: domain.ConsensusDisagree,
		Mentions: []domain.EntityMention{
			{Model: "claude", Type: "concept"},
			{Model: "gemini", Type: "location"},
			{Model: "gpt4", Type: "date"},
		},
	}}
	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": result("claude", 0),
		"gpt4":   result("gpt4", 0),
	}, nil, groups, nil)

	assert.Equal(t, 0.01, consolidated.ConfidenceScore)
}

func TestConsolidate_CommonFindings(t *testing.T) {
	eng := newEngine()

	a := result("claude", 0.8)
	a.Insights = []string{"Revenue is growing across regions"}
	b := result("gpt4", 0.9)
	b.Insights = []string{"Revenue grew strongly this quarter"}
	groups := []domain.EntityConsensusGroup{{
		Text:      "Acme Corp",
		Consensus: domain.ConsensusAgree,
		Mentions: []domain.EntityMention{
			{Model: "claude", Type: "organization"},
			{Model: "gpt4", Type: "organization"},
		},
	}}

	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": a,
		"gpt4":   b,
	}, nil, groups, nil)

	require.Len(t, consolidated.CommonFindings, 2)
	assert.Contains(t, consolidated.CommonFindings[0], `"Acme Corp"`)
	assert.Equal(t, "Revenue is growing across regions", consolidated.CommonFindings[1])
}

func TestConsolidate_RecommendedActionsMergedAndRanked(t *testing.T) {
	eng := newEngine()

	a := result("claude", 0.6)
	a.Recommendations = []string{"Hire more engineers"}
	b := result("gpt4", 0.9)
	b.Recommendations = []string{"Hire additional engineers", "Audit vendor contracts"}

	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": a,
		"gpt4":   b,
	}, nil, nil, nil)

	require.Len(t, consolidated.RecommendedActions, 2)
	assert.Equal(t, "Hire more engineers", consolidated.RecommendedActions[0])
	assert.Equal(t, "Audit vendor contracts", consolidated.RecommendedActions[1])
}

func TestConsolidate_ConflictingAnalysesCarryConfidences(t *testing.T) {
	eng := newEngine()

	conflicts := []domain.ConflictPoint{{
		ID:          "cf-01",
		Category:    domain.ConflictInterpretation,
		Description: "claude and gpt4 disagree on sentiment",
		Models:      []string{"claude", "gpt4"},
		Severity:    domain.SeverityHigh,
	}}
	consolidated := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": result("claude", 0.7),
		"gpt4":   result("gpt4", 0.9),
	}, nil, nil, conflicts)

	require.Len(t, consolidated.ConflictingAnalyses, 1)
	ca := consolidated.ConflictingAnalyses[0]
	assert.Equal(t, "claude and gpt4 disagree on sentiment", ca.Finding)
	assert.Equal(t, map[string]float64{"claude": 0.7, "gpt4": 0.9}, ca.Confidence)
	assert.Contains(t, consolidated.Summary, "1 conflicts detected (1 high severity)")
}

func TestConsolidateAuthFailure_CarriesMarker(t *testing.T) {
	eng := newEngine()

	consolidated := eng.ConsolidateAuthFailure()

	assert.True(t, engine.AuthRequired(consolidated))
	assert.Equal(t, 0.0, consolidated.ConfidenceScore)
	assert.NotEmpty(t, consolidated.RecommendedActions)

	normal := eng.Consolidate(map[string]domain.AnalysisResult{
		"claude": result("claude", 0.8),
	}, nil, nil, nil)
	assert.False(t, engine.AuthRequired(normal))
}

func TestAnalyze_AuthFailureShortCircuitsConsolidation(t *testing.T) {
	eng := newEngine()

	output := eng.Analyze(nil, domain.UpstreamErrorAuth)

	assert.True(t, engine.AuthRequired(output.Consolidated))
	assert.Empty(t, output.Normalization.Results)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	eng := newEngine()

	raw := map[string]json.RawMessage{
		"claude": json.RawMessage(`{
			"confidence": 0.9, "processing_time_ms": 1200,
			"results": {
				"summary": "Positive outlook",
				"insights": ["Revenue is growing", "Churn is stable"],
				"entities": [{"text": "Acme Corp", "type": "organization", "confidence": 0.95}],
				"sentiment": {"label": "positive", "confidence": 0.9},
				"recommendations": ["Expand sales team"]
			}
		}`),
		"gemini": json.RawMessage(`{
			"confidence": 0.4, "processing_time_ms": 800,
			"results": {
				"summary": "Mixed signals",
				"insights": ["Revenue trend unclear"],
				"entities": [{"text": "Acme Corp", "type": "location", "confidence": 0.5}],
				"sentiment": {"label": "negative", "confidence": 0.85},
				"recommendations": ["Freeze hiring"]
			}
		}`),
		"gpt4": json.RawMessage(`{
			"confidence": 1.2, "processing_time_ms": 950,
			"results": {
				"summary": "Growth continues",
				"insights": ["Revenue is growing"],
				"entities": [{"text": "Acme Corp", "type": "organization", "confidence": 0.9}],
				"sentiment": {"label": "positive", "confidence": 0.8},
				"recommendations": ["Expand into new markets"]
			}
		}`),
	}

	first := eng.Analyze(raw, "")
	second := eng.Analyze(raw, "")

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)

	// The clamp on gpt4's confidence is part of the stable output.
	require.Len(t, first.Normalization.Warnings, 1)
	assert.Equal(t, "gpt4", first.Normalization.Warnings[0].Model)
	require.NotEmpty(t, first.Conflicts)
	assert.Equal(t, "cf-01", first.Conflicts[0].ID)
}
