package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"concord/internal/domain"
)

// rawModelPayload is the wire shape of one model's unvalidated result.
// The analysis content lives in the nested results object.
type rawModelPayload struct {
	Confidence       float64         `json:"confidence"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Results          json.RawMessage `json:"results"`
}

// rawResultsBody is the nested results payload.
type rawResultsBody struct {
	Summary         string            `json:"summary"`
	Insights        []string          `json:"insights"`
	Entities        []domain.Entity   `json:"entities"`
	Sentiment       *domain.Sentiment `json:"sentiment"`
	Recommendations []string          `json:"recommendations"`
}

// Normalize validates and coerces a raw batch of per-model payloads into
// canonical AnalysisResults. A payload missing the nested results object
// is rejected and excluded from the run; out-of-domain numerics are
// clamped with a recorded warning. Pure: no side effects.
func (e *Engine) Normalize(raw map[string]json.RawMessage) domain.NormalizationReport {
	report := domain.NormalizationReport{
		Results:  make(map[string]domain.AnalysisResult, len(raw)),
		Rejected: []domain.RejectedResult{},
		Warnings: []domain.ClampWarning{},
	}

	// Sorted model order keeps rejection and warning lists deterministic.
	models := make([]string, 0, len(raw))
	for model := range raw {
		models = append(models, model)
	}
	sort.Strings(models)

	for _, model := range models {
		if len(e.registry) > 0 {
			if _, ok := e.registry[model]; !ok {
				report.Rejected = append(report.Rejected, domain.RejectedResult{
					Model:  model,
					Reason: domain.ErrUnsupportedModel.Error(),
				})
				continue
			}
		}

		result, warnings, err := normalizeOne(model, raw[model])
		if err != nil {
			report.Rejected = append(report.Rejected, domain.RejectedResult{
				Model:  model,
				Reason: err.Error(),
			})
			continue
		}
		report.Warnings = append(report.Warnings, warnings...)
		report.Results[model] = result
	}

	return report
}

func normalizeOne(model string, raw json.RawMessage) (domain.AnalysisResult, []domain.ClampWarning, error) {
	var payload rawModelPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.AnalysisResult{}, nil, fmt.Errorf("%w: invalid JSON payload", domain.ErrMalformedResult)
	}
	if len(payload.Results) == 0 || bytes.Equal(bytes.TrimSpace(payload.Results), []byte("null")) {
		return domain.AnalysisResult{}, nil, fmt.Errorf("%w: missing results payload", domain.ErrMalformedResult)
	}
	trimmed := bytes.TrimSpace(payload.Results)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.AnalysisResult{}, nil, fmt.Errorf("%w: results is not an object", domain.ErrMalformedResult)
	}

	var body rawResultsBody
	if err := json.Unmarshal(payload.Results, &body); err != nil {
		return domain.AnalysisResult{}, nil, fmt.Errorf("%w: results payload does not decode: %v", domain.ErrMalformedResult, err)
	}

	var warnings []domain.ClampWarning
	clamp := func(field string, v float64) float64 {
		c := v
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		if c != v {
			warnings = append(warnings, domain.ClampWarning{
				Model: model, Field: field, Original: v, Clamped: c,
			})
		}
		return c
	}

	result := domain.AnalysisResult{
		Model:            model,
		Confidence:       clamp("confidence", payload.Confidence),
		ProcessingTimeMs: payload.ProcessingTimeMs,
		Summary:          body.Summary,
		Insights:         body.Insights,
		Entities:         body.Entities,
		Recommendations:  body.Recommendations,
	}
	if result.ProcessingTimeMs < 0 {
		warnings = append(warnings, domain.ClampWarning{
			Model: model, Field: "processing_time_ms",
			Original: float64(result.ProcessingTimeMs), Clamped: 0,
		})
		result.ProcessingTimeMs = 0
	}

	// Missing sequences default to empty, never nil.
	if result.Insights == nil {
		result.Insights = []string{}
	}
	if result.Entities == nil {
		result.Entities = []domain.Entity{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}

	for i := range result.Entities {
		field := fmt.Sprintf("entities[%d].confidence", i)
		result.Entities[i].Confidence = clamp(field, result.Entities[i].Confidence)
	}

	// Sentiment is optional; an unrecognized label means the model does
	// not support sentiment in a form we can aggregate.
	if body.Sentiment != nil && domain.ValidSentimentLabels[body.Sentiment.Label] {
		result.Sentiment = &domain.Sentiment{
			Label:      body.Sentiment.Label,
			Confidence: clamp("sentiment.confidence", body.Sentiment.Confidence),
		}
	}

	return result, warnings, nil
}
