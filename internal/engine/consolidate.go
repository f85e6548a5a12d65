package engine

import (
	"fmt"
	"sort"
	"strings"

	"concord/internal/domain"
)

// noAnalysisSummary is the fixed zero-model summary so callers can render
// an empty state without a separate code path.
const noAnalysisSummary = "No analysis available: no models produced usable output."

// authRequiredPrefix marks consolidations where model invocation failed on
// authentication. Downstream consumers key off this prefix to render an
// action-required state instead of a normal empty result.
const authRequiredPrefix = "Authentication required"

// minConfidence is the aggregate floor once at least one model contributed;
// a zero score is reserved for runs with no usable output at all.
const minConfidence = 0.01

// Consolidate merges normalized results, pairwise comparisons, consensus
// groups, and conflicts into one ConsolidatedInsights. It never fails:
// empty input degrades to a valid "no analysis available" record.
func (e *Engine) Consolidate(
	results map[string]domain.AnalysisResult,
	comparisons []domain.PairwiseComparison,
	groups []domain.EntityConsensusGroup,
	conflicts []domain.ConflictPoint,
) domain.ConsolidatedInsights {
	if len(results) == 0 {
		return domain.ConsolidatedInsights{
			Summary:             noAnalysisSummary,
			ConfidenceScore:     0,
			CommonFindings:      []string{},
			ConflictingAnalyses: []domain.ConflictingAnalysis{},
			RecommendedActions:  []string{},
		}
	}

	models := sortedModels(results)
	return domain.ConsolidatedInsights{
		Summary:             e.synthesizeSummary(models, results, groups, conflicts),
		ConfidenceScore:     e.confidenceScore(models, results, groups),
		CommonFindings:      e.commonFindings(models, results, groups),
		ConflictingAnalyses: conflictingAnalyses(results, conflicts),
		RecommendedActions:  e.recommendedActions(models, results),
	}
}

// ConsolidateAuthFailure builds the consolidation for runs where model
// invocation failed on authentication and no structured results exist.
// Recommended actions list only the steps needed to regain access.
func (e *Engine) ConsolidateAuthFailure() domain.ConsolidatedInsights {
	return domain.ConsolidatedInsights{
		Summary:             authRequiredPrefix + ": model providers could not be invoked for this content.",
		ConfidenceScore:     0,
		CommonFindings:      []string{},
		ConflictingAnalyses: []domain.ConflictingAnalysis{},
		RecommendedActions: []string{
			"Verify the upstream model provider credentials",
			"Re-authenticate and resubmit the content for analysis",
		},
	}
}

// AuthRequired reports whether a consolidation carries the auth marker.
func AuthRequired(c domain.ConsolidatedInsights) bool {
	return strings.HasPrefix(c.Summary, authRequiredPrefix)
}

// confidenceScore averages the individual model confidences with a
// consensus-derived estimate when entity groups exist. The score never
// exceeds the best contributing model, with one exception: when every
// usable model reports zero confidence the floor still applies, so a
// zero score stays reserved for runs with no usable output at all.
func (e *Engine) confidenceScore(models []string, results map[string]domain.AnalysisResult, groups []domain.EntityConsensusGroup) float64 {
	var sum, max float64
	for _, model := range models {
		c := results[model].Confidence
		sum += c
		if c > max {
			max = c
		}
	}
	score := sum / float64(len(models))

	if len(groups) > 0 {
		var weight float64
		for _, g := range groups {
			switch g.Consensus {
			case domain.ConsensusAgree:
				weight += 1
			case domain.ConsensusPartial:
				weight += 0.5
			}
		}
		estimate := weight / float64(len(groups))
		score = (score + estimate) / 2
	}

	if score > max {
		score = max
	}
	if score < minConfidence {
		score = minConfidence
	}
	return score
}

// commonFindings collects agreed entities plus insights echoed by at least
// half of all model pairs.
func (e *Engine) commonFindings(models []string, results map[string]domain.AnalysisResult, groups []domain.EntityConsensusGroup) []string {
	findings := []string{}
	for _, g := range groups {
		if g.Consensus != domain.ConsensusAgree || len(g.Mentions) < 2 {
			continue
		}
		findings = append(findings, fmt.Sprintf("All %d mentioning models identify %q as %s",
			len(g.Mentions), g.Text, g.Mentions[0].Type))
	}

	totalPairs := len(models) * (len(models) - 1) / 2
	if totalPairs == 0 {
		return findings
	}

	var included []string
	for _, model := range models {
		for _, insight := range results[model].Insights {
			if containsRelated(e.scorer, included, insight) {
				continue
			}
			pairCount := 0
			for _, other := range models {
				if other == model {
					continue
				}
				for _, otherInsight := range results[other].Insights {
					if e.scorer.Related(insight, otherInsight) {
						pairCount++
						break
					}
				}
			}
			if float64(pairCount) >= float64(totalPairs)/2 {
				included = append(included, insight)
				findings = append(findings, insight)
			}
		}
	}
	return findings
}

// conflictingAnalyses maps each conflict point onto the consolidated view,
// carrying the contributing models' overall confidences keyed by model id.
func conflictingAnalyses(results map[string]domain.AnalysisResult, conflicts []domain.ConflictPoint) []domain.ConflictingAnalysis {
	out := make([]domain.ConflictingAnalysis, 0, len(conflicts))
	for _, c := range conflicts {
		confidence := make(map[string]float64, len(c.Models))
		for _, model := range c.Models {
			if r, ok := results[model]; ok {
				confidence[model] = r.Confidence
			}
		}
		out = append(out, domain.ConflictingAnalysis{
			Finding:    c.Description,
			Models:     c.Models,
			Confidence: confidence,
			Resolution: c.Resolution,
		})
	}
	return out
}

// recommendedActions deduplicates the union of all model recommendations
// using the same containment heuristic as insight comparison, then orders
// by proposer count, average proposer confidence, and finally text.
func (e *Engine) recommendedActions(models []string, results map[string]domain.AnalysisResult) []string {
	type tally struct {
		text      string
		proposers int
		confSum   float64
	}
	var tallies []*tally

	for _, model := range models {
		result := results[model]
		for _, action := range result.Recommendations {
			merged := false
			for _, t := range tallies {
				if e.scorer.Related(action, t.text) {
					t.proposers++
					t.confSum += result.Confidence
					merged = true
					break
				}
			}
			if !merged {
				tallies = append(tallies, &tally{
					text:      action,
					proposers: 1,
					confSum:   result.Confidence,
				})
			}
		}
	}

	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].proposers != tallies[j].proposers {
			return tallies[i].proposers > tallies[j].proposers
		}
		avgI := tallies[i].confSum / float64(tallies[i].proposers)
		avgJ := tallies[j].confSum / float64(tallies[j].proposers)
		if avgI != avgJ {
			return avgI > avgJ
		}
		return tallies[i].text < tallies[j].text
	})

	actions := make([]string, 0, len(tallies))
	for _, t := range tallies {
		actions = append(actions, t.text)
	}
	return actions
}

func (e *Engine) synthesizeSummary(
	models []string,
	results map[string]domain.AnalysisResult,
	groups []domain.EntityConsensusGroup,
	conflicts []domain.ConflictPoint,
) string {
	agreed := 0
	for _, g := range groups {
		if g.Consensus == domain.ConsensusAgree {
			agreed++
		}
	}
	high := 0
	for _, c := range conflicts {
		if c.Severity == domain.SeverityHigh {
			high++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Consolidated analysis from %d models (%s).", len(models), strings.Join(models, ", "))
	if len(groups) > 0 {
		fmt.Fprintf(&b, " %d of %d entities have full type consensus.", agreed, len(groups))
	}
	if len(conflicts) > 0 {
		fmt.Fprintf(&b, " %d conflicts detected (%d high severity).", len(conflicts), high)
	} else {
		b.WriteString(" No conflicts detected.")
	}
	return b.String()
}

// containsRelated reports whether list already carries a statement on the
// same topic as s.
func containsRelated(scorer InsightSimilarityScorer, list []string, s string) bool {
	for _, existing := range list {
		if scorer.Related(s, existing) {
			return true
		}
	}
	return false
}
