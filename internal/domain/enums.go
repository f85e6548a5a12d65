package domain

// SentimentLabel is the polarity a model assigns to the analyzed content.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// ValidSentimentLabels maps the accepted sentiment labels.
var ValidSentimentLabels = map[SentimentLabel]bool{
	SentimentPositive: true,
	SentimentNegative: true,
	SentimentNeutral:  true,
}

// ConsensusLevel classifies how well models agree on an entity's type.
type ConsensusLevel string

const (
	ConsensusAgree    ConsensusLevel = "agree"
	ConsensusPartial  ConsensusLevel = "partial"
	ConsensusDisagree ConsensusLevel = "disagree"
)

// ConflictCategory classifies the nature of a cross-model disagreement.
type ConflictCategory string

const (
	ConflictInterpretation ConflictCategory = "interpretation"
	ConflictConfidence     ConflictCategory = "confidence"
	ConflictClassification ConflictCategory = "classification"
	ConflictRecommendation ConflictCategory = "recommendation"
)

// ConflictSeverity ranks how consequential a conflict is.
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// Entity types. A classification disagreement on a person or organization
// is always high severity.
const (
	EntityTypePerson       = "person"
	EntityTypeOrganization = "organization"
	EntityTypeLocation     = "location"
	EntityTypeConcept      = "concept"
	EntityTypeDate         = "date"
)

// UpstreamError identifies why no structured results could be collected
// from the model invocation layer.
type UpstreamError string

const (
	// UpstreamErrorAuth marks runs where model invocation failed on
	// authentication and no payloads exist at all.
	UpstreamErrorAuth UpstreamError = "auth"
)
