package engine

import (
	"concord/internal/domain"
)

// ResolveEntityConsensus groups entity mentions across all models by
// surface form (case-insensitive, trimmed) and classifies agreement on the
// asserted type. Groups are emitted in first-mention order with models
// visited in sorted id order, so output is deterministic.
//
// The consensus rule is a pure cardinality rule over distinct types:
// 1 distinct type is agree, exactly 2 is partial, 3 or more is disagree.
// There is deliberately no majority vote; any split beyond binary counts
// as full disagreement.
func (e *Engine) ResolveEntityConsensus(results map[string]domain.AnalysisResult) []domain.EntityConsensusGroup {
	var order []string
	groups := map[string]*domain.EntityConsensusGroup{}

	for _, model := range sortedModels(results) {
		result := results[model]
		seen := map[string]bool{}
		for _, ent := range result.Entities {
			key := entityKey(ent.Text)
			if key == "" || seen[key] {
				// One mention per model per surface form.
				continue
			}
			seen[key] = true

			group, ok := groups[key]
			if !ok {
				group = &domain.EntityConsensusGroup{Text: ent.Text}
				groups[key] = group
				order = append(order, key)
			}
			group.Mentions = append(group.Mentions, domain.EntityMention{
				Model:      model,
				Type:       ent.Type,
				Confidence: ent.Confidence,
				Context:    ent.Context,
			})
		}
	}

	out := make([]domain.EntityConsensusGroup, 0, len(order))
	for _, key := range order {
		group := groups[key]
		group.Consensus = classifyConsensus(group.Mentions)
		out = append(out, *group)
	}
	return out
}

// classifyConsensus applies the distinct-type cardinality rule.
func classifyConsensus(mentions []domain.EntityMention) domain.ConsensusLevel {
	distinct := map[string]bool{}
	for _, m := range mentions {
		distinct[entityKey(m.Type)] = true
	}
	switch {
	case len(distinct) <= 1:
		return domain.ConsensusAgree
	case len(distinct) == 2:
		return domain.ConsensusPartial
	default:
		return domain.ConsensusDisagree
	}
}
