package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"concord/internal/domain"
)

// sortedModels returns the result keys in lexicographic order. All engine
// stages iterate models this way so output is deterministic.
func sortedModels(results map[string]domain.AnalysisResult) []string {
	models := make([]string, 0, len(results))
	for model := range results {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// CompareAll computes one PairwiseComparison per unordered model pair.
// Pairs are emitted in lexicographic (modelA, modelB) order.
func (e *Engine) CompareAll(results map[string]domain.AnalysisResult) []domain.PairwiseComparison {
	models := sortedModels(results)
	comparisons := make([]domain.PairwiseComparison, 0, len(models)*(len(models)-1)/2)
	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			comparisons = append(comparisons, e.compare(results[models[i]], results[models[j]]))
		}
	}
	return comparisons
}

func (e *Engine) compare(a, b domain.AnalysisResult) domain.PairwiseComparison {
	pair := []string{a.Model, b.Model}
	agreements := []domain.ComparisonPoint{}
	differences := []domain.ComparisonPoint{}

	// Shared insight topics.
	for _, insight := range a.Insights {
		for _, other := range b.Insights {
			if e.scorer.Related(insight, other) {
				agreements = append(agreements, domain.ComparisonPoint{
					Category:           domain.ConflictInterpretation,
					Content:            insight,
					Confidence:         mean2(a.Confidence, b.Confidence),
					ContributingModels: pair,
				})
				break
			}
		}
	}

	// Entity type overlap. First mention per surface form on each side.
	bEntities := firstMentions(b.Entities)
	seen := map[string]bool{}
	for _, ent := range a.Entities {
		key := entityKey(ent.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		other, ok := bEntities[key]
		if !ok {
			continue
		}
		if sameEntityType(ent.Type, other.Type) {
			agreements = append(agreements, domain.ComparisonPoint{
				Category:           domain.ConflictClassification,
				Content:            fmt.Sprintf("%s (%s)", ent.Text, ent.Type),
				Confidence:         mean2(ent.Confidence, other.Confidence),
				ContributingModels: pair,
			})
		} else {
			differences = append(differences, domain.ComparisonPoint{
				Category:           domain.ConflictClassification,
				Content:            fmt.Sprintf("%s: %s vs %s", ent.Text, ent.Type, other.Type),
				Confidence:         mean2(ent.Confidence, other.Confidence),
				ContributingModels: pair,
			})
		}
	}

	// Sentiment overlap, when both models report it.
	if a.Sentiment != nil && b.Sentiment != nil {
		if a.Sentiment.Label == b.Sentiment.Label {
			agreements = append(agreements, domain.ComparisonPoint{
				Category:           domain.ConflictInterpretation,
				Content:            fmt.Sprintf("sentiment %s", a.Sentiment.Label),
				Confidence:         mean2(a.Sentiment.Confidence, b.Sentiment.Confidence),
				ContributingModels: pair,
			})
		} else {
			differences = append(differences, domain.ComparisonPoint{
				Category:           domain.ConflictInterpretation,
				Content:            fmt.Sprintf("sentiment: %s vs %s", a.Sentiment.Label, b.Sentiment.Label),
				Confidence:         mean2(a.Sentiment.Confidence, b.Sentiment.Confidence),
				ContributingModels: pair,
			})
		}
	}

	// Overall confidence spread on the same content.
	if spread := math.Abs(a.Confidence - b.Confidence); spread > e.thresholds.ConfidenceSpreadMedium {
		differences = append(differences, domain.ComparisonPoint{
			Category:           domain.ConflictConfidence,
			Content:            fmt.Sprintf("overall confidence %.2f vs %.2f", a.Confidence, b.Confidence),
			Confidence:         mean2(a.Confidence, b.Confidence),
			ContributingModels: pair,
		})
	}

	// Recommendation divergence: both models recommend, nothing overlaps.
	if len(a.Recommendations) > 0 && len(b.Recommendations) > 0 &&
		e.scorer.CommonCount(a.Recommendations, b.Recommendations) == 0 {
		differences = append(differences, domain.ComparisonPoint{
			Category:           domain.ConflictRecommendation,
			Content:            "recommended actions do not overlap",
			Confidence:         mean2(a.Confidence, b.Confidence),
			ContributingModels: pair,
		})
	}

	similarity := e.insightSimilarity(a.Insights, b.Insights)
	return domain.PairwiseComparison{
		ModelA:      a.Model,
		ModelB:      b.Model,
		Similarity:  similarity,
		Agreements:  agreements,
		Differences: differences,
		Summary: fmt.Sprintf("%s and %s share %d agreement points and %d differences (insight similarity %.0f%%)",
			a.Model, b.Model, len(agreements), len(differences), similarity),
	}
}

// insightSimilarity scores two insight lists on [0,100]. An empty side
// means no shared evidence, so the score is 0 rather than a midpoint.
func (e *Engine) insightSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := e.scorer.CommonCount(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	score := float64(common) / float64(longest) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func entityKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func sameEntityType(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// firstMentions indexes entities by surface form, keeping the first
// mention per form.
func firstMentions(entities []domain.Entity) map[string]domain.Entity {
	index := make(map[string]domain.Entity, len(entities))
	for _, ent := range entities {
		key := entityKey(ent.Text)
		if _, ok := index[key]; !ok {
			index[key] = ent
		}
	}
	return index
}

func mean2(a, b float64) float64 {
	return (a + b) / 2
}
