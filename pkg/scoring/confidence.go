// Package scoring converts fused retrieval candidates into calibrated
// confidence scores and maps the top match to an actionable recommendation.
package scoring

import (
	"github.com/google/uuid"

	"chat-topics-be/pkg/fusion"
	"chat-topics-be/pkg/similarity"
)

// Reason tags attached to a ScoredMatch when a factor clears its threshold.
const (
	ReasonSemanticMatch = "semantic_match"
	ReasonKeywordMatch  = "keyword_match"
	ReasonNameMatch     = "name_match"
	ReasonActiveTopic   = "active_topic"
)

// activityCeiling is the message count at which the activity factor saturates.
const activityCeiling = 50

// Weights combines the four confidence factors. They should sum to 1; the
// defaults are empirically chosen and tunable through config, not semantics.
type Weights struct {
	FusedScore     float64
	KeywordOverlap float64
	NameSimilarity float64
	Activity       float64
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		FusedScore:     0.4,
		KeywordOverlap: 0.3,
		NameSimilarity: 0.2,
		Activity:       0.1,
	}
}

// TopicContext carries the topic-side inputs for scoring one candidate.
type TopicContext struct {
	Name         string
	Keywords     []string
	MessageCount int64
}

// Factors records each bounded factor feeding the combined confidence.
type Factors struct {
	FusedScore     float64
	KeywordOverlap float64
	NameSimilarity float64
	Activity       float64
}

// ScoredMatch is the derived, ephemeral scoring result for one candidate.
type ScoredMatch struct {
	TopicID    uuid.UUID
	Confidence float64
	Reasons    []string
	Factors    Factors
}

// Scorer computes confidence for fused candidates. Deterministic, no I/O.
type Scorer struct {
	weights Weights
	rrfK    int
}

// NewScorer builds a scorer; zero-valued weights fall back to the defaults.
func NewScorer(weights Weights, rrfK int) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if rrfK <= 0 {
		rrfK = fusion.DefaultK
	}
	return &Scorer{weights: weights, rrfK: rrfK}
}

// Score converts one fused candidate plus query context into a ScoredMatch.
// numStrategies is the number of retrieval lists that were fused; it bounds
// the achievable RRF score so the fused factor normalizes to [0,1].
func (s *Scorer) Score(candidate fusion.Candidate, query string, queryKeywords []string, topic TopicContext, numStrategies int) ScoredMatch {
	if numStrategies < 1 {
		numStrategies = 1
	}

	maxFused := float64(numStrategies) / float64(s.rrfK+1)
	factors := Factors{
		FusedScore:     clamp01(candidate.FusedScore / maxFused),
		KeywordOverlap: similarity.SetOverlap(queryKeywords, topic.Keywords),
		NameSimilarity: similarity.StringSimilarity(query, topic.Name),
		Activity:       clamp01(float64(topic.MessageCount) / float64(activityCeiling)),
	}

	combined := s.weights.FusedScore*factors.FusedScore +
		s.weights.KeywordOverlap*factors.KeywordOverlap +
		s.weights.NameSimilarity*factors.NameSimilarity +
		s.weights.Activity*factors.Activity

	var reasons []string
	if factors.FusedScore > 0.5 {
		reasons = append(reasons, ReasonSemanticMatch)
	}
	if factors.KeywordOverlap > 0.5 {
		reasons = append(reasons, ReasonKeywordMatch)
	}
	if factors.NameSimilarity > 0.6 {
		reasons = append(reasons, ReasonNameMatch)
	}
	if factors.Activity > 0.5 {
		reasons = append(reasons, ReasonActiveTopic)
	}

	return ScoredMatch{
		TopicID:    candidate.TopicID,
		Confidence: clamp01(combined),
		Reasons:    reasons,
		Factors:    factors,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
