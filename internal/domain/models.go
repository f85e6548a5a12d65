package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ModelDescriptor describes one supported AI analysis backend. The set of
// descriptors is injected configuration, never hardcoded in engine logic.
type ModelDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon,omitempty"`
}

// Entity is a single typed mention extracted from content by one model.
// One record per mention; deduplication happens at consensus resolution.
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// Sentiment is a model's polarity estimate for the content.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// AnalysisResult is the canonical, validated form of one model's output
// for a content item. Confidence values are always within [0,1] and the
// slice fields are never nil.
type AnalysisResult struct {
	Model            string     `json:"model"`
	Confidence       float64    `json:"confidence"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	Summary          string     `json:"summary"`
	Insights         []string   `json:"insights"`
	Entities         []Entity   `json:"entities"`
	Sentiment        *Sentiment `json:"sentiment,omitempty"`
	Recommendations  []string   `json:"recommendations"`
}

// ComparisonPoint is one agreement or difference found between two models.
type ComparisonPoint struct {
	Category           ConflictCategory `json:"category"`
	Content            string           `json:"content"`
	Confidence         float64          `json:"confidence"`
	ContributingModels []string         `json:"contributing_models"`
}

// PairwiseComparison compares the outputs of two models for the same
// content. ModelA always sorts before ModelB so lookups are deterministic.
// Comparisons are immutable once computed.
type PairwiseComparison struct {
	ModelA      string            `json:"model_a"`
	ModelB      string            `json:"model_b"`
	Similarity  float64           `json:"similarity"`
	Agreements  []ComparisonPoint `json:"agreements"`
	Differences []ComparisonPoint `json:"differences"`
	Summary     string            `json:"summary"`
}

// EntityMention is one model's assertion about an entity surface form.
type EntityMention struct {
	Model      string  `json:"model"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// EntityConsensusGroup aggregates all mentions of one entity surface form
// (grouped case-insensitively; Text keeps the first-seen casing).
type EntityConsensusGroup struct {
	Text      string          `json:"text"`
	Mentions  []EntityMention `json:"mentions"`
	Consensus ConsensusLevel  `json:"consensus"`
}

// SentimentConsensus aggregates per-model sentiment into a consensus flag.
type SentimentConsensus struct {
	Agreement     bool                 `json:"agreement"`
	DominantLabel SentimentLabel       `json:"dominant_label,omitempty"`
	AvgConfidence float64              `json:"avg_confidence"`
	PerModel      map[string]Sentiment `json:"per_model"`
}

// ConflictPoint is one detected, categorized, severity-ranked disagreement.
// Resolution is a set-once field: the first write sticks and later writes
// fail with ErrConflictAlreadyResolved so the audit trail stays intact.
type ConflictPoint struct {
	ID           string           `json:"id"`
	Category     ConflictCategory `json:"category"`
	Description  string           `json:"description"`
	PerspectiveA string           `json:"perspective_a"`
	PerspectiveB string           `json:"perspective_b"`
	Models       []string         `json:"models"`
	Severity     ConflictSeverity `json:"severity"`
	Resolution   string           `json:"resolution,omitempty"`
}

// SetResolution records a resolution exactly once.
func (c *ConflictPoint) SetResolution(text string) error {
	if text == "" {
		return ErrEmptyResolution
	}
	if c.Resolution != "" {
		return ErrConflictAlreadyResolved
	}
	c.Resolution = text
	return nil
}

// ConflictingAnalysis is the consolidated view of one conflict, carrying
// the contributing models' overall confidences keyed by model id.
type ConflictingAnalysis struct {
	Finding    string             `json:"finding"`
	Models     []string           `json:"models"`
	Confidence map[string]float64 `json:"confidence"`
	Resolution string             `json:"resolution,omitempty"`
}

// ConsolidatedInsights is the single merged judgment produced per run.
type ConsolidatedInsights struct {
	Summary             string                `json:"summary"`
	ConfidenceScore     float64               `json:"confidence_score"`
	CommonFindings      []string              `json:"common_findings"`
	ConflictingAnalyses []ConflictingAnalysis `json:"conflicting_analyses"`
	RecommendedActions  []string              `json:"recommended_actions"`
}

// RejectedResult records a model payload excluded during normalization.
type RejectedResult struct {
	Model  string `json:"model"`
	Reason string `json:"reason"`
}

// ClampWarning records a numeric field coerced back into its domain.
type ClampWarning struct {
	Model    string  `json:"model"`
	Field    string  `json:"field"`
	Original float64 `json:"original"`
	Clamped  float64 `json:"clamped"`
}

// NormalizationReport is the full outcome of normalizing a raw batch:
// accepted results plus everything that was rejected or coerced.
type NormalizationReport struct {
	Results  map[string]AnalysisResult `json:"results"`
	Rejected []RejectedResult          `json:"rejected"`
	Warnings []ClampWarning            `json:"warnings"`
}

// AnalysisRun is one persisted consolidation run: the raw inputs, every
// derived artifact, and the consolidated judgment. Derived artifacts are
// stored as JSONB so the run is reproducible and auditable.
type AnalysisRun struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ContentRef      string          `db:"content_ref" json:"content_ref"`
	UpstreamError   string          `db:"upstream_error" json:"upstream_error,omitempty"`
	RawResults      json.RawMessage `db:"raw_results" json:"raw_results"`
	Normalization   json.RawMessage `db:"normalization" json:"normalization"`
	Comparisons     json.RawMessage `db:"comparisons" json:"comparisons"`
	EntityGroups    json.RawMessage `db:"entity_groups" json:"entity_groups"`
	Sentiment       json.RawMessage `db:"sentiment" json:"sentiment"`
	Conflicts       json.RawMessage `db:"conflicts" json:"conflicts"`
	Consolidated    json.RawMessage `db:"consolidated" json:"consolidated"`
	ModelCount      int             `db:"model_count" json:"model_count"`
	ConflictCount   int             `db:"conflict_count" json:"conflict_count"`
	ConfidenceScore float64         `db:"confidence_score" json:"confidence_score"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// RunArtifacts is the typed view of a run's JSONB columns.
type RunArtifacts struct {
	Normalization NormalizationReport
	Comparisons   []PairwiseComparison
	EntityGroups  []EntityConsensusGroup
	Sentiment     SentimentConsensus
	Conflicts     []ConflictPoint
	Consolidated  ConsolidatedInsights
}

// Artifacts decodes the run's stored JSONB columns into typed values.
func (r *AnalysisRun) Artifacts() (*RunArtifacts, error) {
	a := &RunArtifacts{}
	cols := []struct {
		name string
		raw  json.RawMessage
		dst  interface{}
	}{
		{"normalization", r.Normalization, &a.Normalization},
		{"comparisons", r.Comparisons, &a.Comparisons},
		{"entity_groups", r.EntityGroups, &a.EntityGroups},
		{"sentiment", r.Sentiment, &a.Sentiment},
		{"conflicts", r.Conflicts, &a.Conflicts},
		{"consolidated", r.Consolidated, &a.Consolidated},
	}
	for _, col := range cols {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decoding run %s column: %w", col.name, err)
		}
	}
	return a, nil
}
