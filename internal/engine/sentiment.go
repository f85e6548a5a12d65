package engine

import (
	"sort"

	"concord/internal/domain"
)

// ResolveSentimentConsensus aggregates per-model sentiment labels into a
// boolean consensus flag plus averaged confidence. Models without a
// sentiment estimate simply do not vote.
func (e *Engine) ResolveSentimentConsensus(results map[string]domain.AnalysisResult) domain.SentimentConsensus {
	consensus := domain.SentimentConsensus{
		PerModel: map[string]domain.Sentiment{},
	}

	labelCounts := map[domain.SentimentLabel]int{}
	var confidenceSum float64
	for _, model := range sortedModels(results) {
		s := results[model].Sentiment
		if s == nil {
			continue
		}
		consensus.PerModel[model] = *s
		labelCounts[s.Label]++
		confidenceSum += s.Confidence
	}

	reporting := len(consensus.PerModel)
	if reporting == 0 {
		return consensus
	}

	consensus.Agreement = len(labelCounts) == 1
	consensus.AvgConfidence = confidenceSum / float64(reporting)
	consensus.DominantLabel = dominantLabel(labelCounts)
	return consensus
}

// dominantLabel picks the most frequent label; ties break lexicographically
// so the result is stable.
func dominantLabel(counts map[domain.SentimentLabel]int) domain.SentimentLabel {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, string(label))
	}
	sort.Strings(labels)

	var best domain.SentimentLabel
	bestCount := -1
	for _, label := range labels {
		if c := counts[domain.SentimentLabel(label)]; c > bestCount {
			best = domain.SentimentLabel(label)
			bestCount = c
		}
	}
	return best
}
