// Package engine implements the cross-model consolidation core: it takes
// already-materialized per-model analysis results and derives pairwise
// comparisons, entity and sentiment consensus, ranked conflicts, and one
// consolidated judgment. The engine performs no I/O and holds no mutable
// state; every run works on an input snapshot and allocates fresh output.
package engine

import (
	"encoding/json"

	"concord/internal/domain"
)

// Thresholds are the engine's calibration constants.
type Thresholds struct {
	// ConflictHighConfidence: a sentiment disagreement where at least one
	// side reports confidence at or above this is high severity.
	ConflictHighConfidence float64
	// ConfidenceSpreadMedium: a confidence gap above this between two
	// models on the same claim is a medium severity conflict.
	ConfidenceSpreadMedium float64
}

// DefaultThresholds returns the documented default calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConflictHighConfidence: 0.8,
		ConfidenceSpreadMedium: 0.3,
	}
}

// Engine consolidates multi-model analysis results.
type Engine struct {
	registry   map[string]domain.ModelDescriptor
	thresholds Thresholds
	scorer     InsightSimilarityScorer
}

// New creates an Engine. An empty model list disables registry enforcement
// so any model id normalizes; scorer nil falls back to the containment
// heuristic.
func New(models []domain.ModelDescriptor, thresholds Thresholds, scorer InsightSimilarityScorer) *Engine {
	registry := make(map[string]domain.ModelDescriptor, len(models))
	for _, m := range models {
		registry[m.ID] = m
	}
	if scorer == nil {
		scorer = NewContainmentScorer()
	}
	return &Engine{
		registry:   registry,
		thresholds: thresholds,
		scorer:     scorer,
	}
}

// Output bundles every artifact of one consolidation run.
type Output struct {
	Normalization domain.NormalizationReport
	Comparisons   []domain.PairwiseComparison
	EntityGroups  []domain.EntityConsensusGroup
	Sentiment     domain.SentimentConsensus
	Conflicts     []domain.ConflictPoint
	Consolidated  domain.ConsolidatedInsights
}

// Analyze runs the full pipeline over a raw batch of per-model payloads.
// Malformed payloads are excluded and recorded; the run never fails.
// When upstreamErr reports an authentication failure the consolidation
// carries the auth marker instead of a normal empty-result summary.
func (e *Engine) Analyze(raw map[string]json.RawMessage, upstreamErr domain.UpstreamError) Output {
	report := e.Normalize(raw)
	comparisons := e.CompareAll(report.Results)
	groups := e.ResolveEntityConsensus(report.Results)
	sentiment := e.ResolveSentimentConsensus(report.Results)
	conflicts := e.DetectConflicts(comparisons, groups, sentiment)

	var consolidated domain.ConsolidatedInsights
	if upstreamErr == domain.UpstreamErrorAuth {
		consolidated = e.ConsolidateAuthFailure()
	} else {
		consolidated = e.Consolidate(report.Results, comparisons, groups, conflicts)
	}

	return Output{
		Normalization: report,
		Comparisons:   comparisons,
		EntityGroups:  groups,
		Sentiment:     sentiment,
		Conflicts:     conflicts,
		Consolidated:  consolidated,
	}
}
