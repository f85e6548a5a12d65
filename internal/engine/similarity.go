package engine

import "strings"

// InsightSimilarityScorer decides whether two free-text statements talk
// about the same thing. The containment heuristic below is the compatibility
// contract; swapping in an embedding-based scorer only requires another
// implementation of this interface.
type InsightSimilarityScorer interface {
	// Related reports whether a and b cover the same topic.
	Related(a, b string) bool
	// CommonCount counts statements in a that have a related statement in b.
	CommonCount(a, b []string) int
}

// stopwords excluded when picking an insight's topic token.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "there": true, "this": true, "to": true, "was": true,
	"were": true, "will": true, "with": true,
}

// ContainmentScorer implements the first-topic-token containment heuristic:
// two statements are related when either one's leading content word appears
// anywhere in the other's text. Case-insensitive and order-insensitive.
type ContainmentScorer struct{}

// NewContainmentScorer creates the default scorer.
func NewContainmentScorer() *ContainmentScorer {
	return &ContainmentScorer{}
}

// topicToken returns the first non-stopword of the statement, lowercased
// and stripped of surrounding punctuation. Empty when there is none.
func topicToken(s string) string {
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if word == "" || stopwords[word] {
			continue
		}
		return word
	}
	return ""
}

func (s *ContainmentScorer) Related(a, b string) bool {
	tokA := topicToken(a)
	if tokA != "" && strings.Contains(strings.ToLower(b), tokA) {
		return true
	}
	tokB := topicToken(b)
	return tokB != "" && strings.Contains(strings.ToLower(a), tokB)
}

func (s *ContainmentScorer) CommonCount(a, b []string) int {
	common := 0
	for _, ia := range a {
		for _, ib := range b {
			if s.Related(ia, ib) {
				common++
				break
			}
		}
	}
	return common
}
