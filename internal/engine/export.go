package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"concord/internal/domain"
)

// Report is the serializable export document for one consolidation run.
// Its JSON encoding is the interoperability contract for archival and
// export consumers: encoding is deterministic (sorted object keys) and
// round-trips without field loss.
type Report struct {
	GeneratedAt           time.Time                   `json:"generated_at"`
	ModelsUsed            []string                    `json:"models_used"`
	TotalProcessingTimeMs int64                       `json:"total_processing_time_ms"`
	OverallConfidence     float64                     `json:"overall_confidence"`
	KeyFindings           []string                    `json:"key_findings"`
	RawResults            map[string]json.RawMessage  `json:"raw_results"`
	Consolidated          domain.ConsolidatedInsights `json:"consolidated"`
}

// BuildReport assembles the export document from a finished consolidation.
// The timestamp is passed in so callers control it and encoding stays
// reproducible.
func (e *Engine) BuildReport(
	generatedAt time.Time,
	consolidated domain.ConsolidatedInsights,
	raw map[string]json.RawMessage,
	results map[string]domain.AnalysisResult,
) Report {
	models := sortedModels(results)
	var totalMs int64
	for _, model := range models {
		totalMs += results[model].ProcessingTimeMs
	}

	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return Report{
		GeneratedAt:           generatedAt.UTC(),
		ModelsUsed:            models,
		TotalProcessingTimeMs: totalMs,
		OverallConfidence:     consolidated.ConfidenceScore,
		KeyFindings:           consolidated.CommonFindings,
		RawResults:            raw,
		Consolidated:          consolidated,
	}
}

// EncodeReport serializes a report to its canonical JSON form.
func EncodeReport(r Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// DecodeReport parses a report previously produced by EncodeReport.
func DecodeReport(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return r, nil
}
