package reportexport_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concord/internal/domain"
	"concord/internal/reportexport"
)

func TestBuildWorkbook_SheetsAndContent(t *testing.T) {
	run := &domain.AnalysisRun{
		ID:              uuid.New(),
		ContentRef:      "Q3 earnings call",
		ModelCount:      2,
		ConflictCount:   1,
		ConfidenceScore: 0.72,
		CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	artifacts := &domain.RunArtifacts{
		Comparisons: []domain.PairwiseComparison{{
			ModelA:     "claude",
			ModelB:     "gpt4",
			Similarity: 50,
			Agreements: []domain.ComparisonPoint{{Category: domain.ConflictClassification}},
			Summary:    "claude and gpt4 share 1 agreement points and 0 differences (insight similarity 50%)",
		}},
		EntityGroups: []domain.EntityConsensusGroup{{
			Text:      "Acme Corp",
			Consensus: domain.ConsensusAgree,
			Mentions: []domain.EntityMention{
				{Model: "claude", Type: "organization", Confidence: 0.9},
				{Model: "gpt4", Type: "organization", Confidence: 0.7},
			},
		}},
		Conflicts: []domain.ConflictPoint{{
			ID:          "cf-01",
			Category:    domain.ConflictInterpretation,
			Description: "claude and gpt4 disagree on sentiment",
			Severity:    domain.SeverityHigh,
		}},
		Consolidated: domain.ConsolidatedInsights{
			Summary:            "Consolidated analysis from 2 models.",
			ConfidenceScore:    0.72,
			CommonFindings:     []string{"Revenue is growing"},
			RecommendedActions: []string{"Expand sales team"},
		},
	}

	f, err := reportexport.BuildWorkbook(run, artifacts)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Comparisons", "Entities", "Conflicts", "Recommendations"}, f.GetSheetList())

	contentRef, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 earnings call", contentRef)

	modelA, err := f.GetCellValue("Comparisons", "A2")
	require.NoError(t, err)
	assert.Equal(t, "claude", modelA)
	agreements, err := f.GetCellValue("Comparisons", "D2")
	require.NoError(t, err)
	assert.Equal(t, "1", agreements)

	entity, err := f.GetCellValue("Entities", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", entity)

	conflictID, err := f.GetCellValue("Conflicts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "cf-01", conflictID)

	action, err := f.GetCellValue("Recommendations", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Expand sales team", action)
}
