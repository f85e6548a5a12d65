package engine

import (
	"fmt"
	"sort"

	"concord/internal/domain"
)

// DetectConflicts scans pairwise comparisons and consensus results for
// substantive disagreements and emits severity-ranked conflict points.
// Severity assignment is total and deterministic:
//
//	high   — sentiment disagreement with confidence >= ConflictHighConfidence
//	         on at least one side, or any entity disagreement involving a
//	         person or organization type
//	medium — entity partial consensus, or a confidence spread above
//	         ConfidenceSpreadMedium between two models on the same claim
//	low    — every remaining qualifying conflict
func (e *Engine) DetectConflicts(
	comparisons []domain.PairwiseComparison,
	groups []domain.EntityConsensusGroup,
	sentiment domain.SentimentConsensus,
) []domain.ConflictPoint {
	conflicts := []domain.ConflictPoint{}
	add := func(c domain.ConflictPoint) {
		c.ID = fmt.Sprintf("cf-%02d", len(conflicts)+1)
		conflicts = append(conflicts, c)
	}

	// Sentiment label disagreements, one conflict per disagreeing pair.
	models := make([]string, 0, len(sentiment.PerModel))
	for model := range sentiment.PerModel {
		models = append(models, model)
	}
	sort.Strings(models)
	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			a, b := sentiment.PerModel[models[i]], sentiment.PerModel[models[j]]
			if a.Label == b.Label {
				continue
			}
			severity := domain.SeverityLow
			if a.Confidence >= e.thresholds.ConflictHighConfidence ||
				b.Confidence >= e.thresholds.ConflictHighConfidence {
				severity = domain.SeverityHigh
			}
			add(domain.ConflictPoint{
				Category:     domain.ConflictInterpretation,
				Description:  fmt.Sprintf("%s and %s disagree on sentiment", models[i], models[j]),
				PerspectiveA: fmt.Sprintf("%s: %s (%.2f)", models[i], a.Label, a.Confidence),
				PerspectiveB: fmt.Sprintf("%s: %s (%.2f)", models[j], b.Label, b.Confidence),
				Models:       []string{models[i], models[j]},
				Severity:     severity,
			})
		}
	}

	// Sentiment confidence spread, even when labels agree.
	if sentiment.Agreement && len(models) >= 2 {
		low, high := models[0], models[0]
		for _, model := range models {
			if sentiment.PerModel[model].Confidence < sentiment.PerModel[low].Confidence {
				low = model
			}
			if sentiment.PerModel[model].Confidence > sentiment.PerModel[high].Confidence {
				high = model
			}
		}
		spread := sentiment.PerModel[high].Confidence - sentiment.PerModel[low].Confidence
		if spread > e.thresholds.ConfidenceSpreadMedium {
			add(domain.ConflictPoint{
				Category:     domain.ConflictConfidence,
				Description:  fmt.Sprintf("models agree on %s sentiment but confidence spreads %.2f", sentiment.DominantLabel, spread),
				PerspectiveA: fmt.Sprintf("%s: %.2f", high, sentiment.PerModel[high].Confidence),
				PerspectiveB: fmt.Sprintf("%s: %.2f", low, sentiment.PerModel[low].Confidence),
				Models:       []string{high, low},
				Severity:     domain.SeverityMedium,
			})
		}
	}

	// Entity type consensus breaks.
	for _, group := range groups {
		if group.Consensus == domain.ConsensusAgree {
			continue
		}
		add(entityConflict(group))
	}

	// Confidence spreads and recommendation divergence found pairwise.
	for _, cmp := range comparisons {
		for _, diff := range cmp.Differences {
			switch diff.Category {
			case domain.ConflictConfidence:
				add(domain.ConflictPoint{
					Category:     domain.ConflictConfidence,
					Description:  fmt.Sprintf("%s and %s report diverging confidence on the same content", cmp.ModelA, cmp.ModelB),
					PerspectiveA: fmt.Sprintf("%s: %s", cmp.ModelA, diff.Content),
					PerspectiveB: fmt.Sprintf("%s: %s", cmp.ModelB, diff.Content),
					Models:       []string{cmp.ModelA, cmp.ModelB},
					Severity:     domain.SeverityMedium,
				})
			case domain.ConflictRecommendation:
				add(domain.ConflictPoint{
					Category:     domain.ConflictRecommendation,
					Description:  fmt.Sprintf("%s and %s propose non-overlapping actions", cmp.ModelA, cmp.ModelB),
					PerspectiveA: fmt.Sprintf("%s recommendations", cmp.ModelA),
					PerspectiveB: fmt.Sprintf("%s recommendations", cmp.ModelB),
					Models:       []string{cmp.ModelA, cmp.ModelB},
					Severity:     domain.SeverityLow,
				})
			}
		}
	}

	return conflicts
}

func entityConflict(group domain.EntityConsensusGroup) domain.ConflictPoint {
	severity := domain.SeverityLow
	if group.Consensus == domain.ConsensusPartial {
		severity = domain.SeverityMedium
	}
	for _, m := range group.Mentions {
		key := entityKey(m.Type)
		if key == domain.EntityTypePerson || key == domain.EntityTypeOrganization {
			severity = domain.SeverityHigh
			break
		}
	}

	models := make([]string, 0, len(group.Mentions))
	for _, m := range group.Mentions {
		models = append(models, m.Model)
	}
	first, last := group.Mentions[0], group.Mentions[len(group.Mentions)-1]
	return domain.ConflictPoint{
		Category:     domain.ConflictClassification,
		Description:  fmt.Sprintf("models disagree on the type of %q", group.Text),
		PerspectiveA: fmt.Sprintf("%s: %s", first.Model, first.Type),
		PerspectiveB: fmt.Sprintf("%s: %s", last.Model, last.Type),
		Models:       models,
		Severity:     severity,
	}
}
