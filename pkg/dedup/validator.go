// Package dedup validates proposed new topics against the existing taxonomy
// to suppress near-duplicate creation.
package dedup

import (
	"sort"

	"github.com/google/uuid"

	"chat-topics-be/pkg/similarity"
)

// Recommendations for the top duplicate suggestion.
const (
	RecommendUseExisting   = "use_existing"
	RecommendConsiderMerge = "consider_merge"
)

// Per-factor and combined thresholds for surfacing a suggestion.
const (
	combinedThreshold    = 0.5
	useExistingThreshold = 0.7
	nameThreshold        = 0.6
	descriptionThreshold = 0.6
	keywordThreshold     = 0.4
)

// Factor weights for the combined duplicate score.
const (
	nameWeight        = 0.5
	descriptionWeight = 0.2
	keywordWeight     = 0.3
)

// Proposal is a topic the caller intends to create.
type Proposal struct {
	Name        string
	Description string
	Keywords    []string
}

// ExistingTopic is the slice of taxonomy state the validator compares against.
type ExistingTopic struct {
	ID          uuid.UUID
	Name        string
	Description string
	Keywords    []string
}

// Suggestion is one existing topic that resembles the proposal.
type Suggestion struct {
	TopicID          uuid.UUID
	TopicName        string
	NameScore        float64
	DescriptionScore float64
	KeywordScore     float64
	Combined         float64
}

// Result is the validator's verdict on one proposal.
type Result struct {
	ShouldCreate   bool
	Confidence     float64
	Recommendation string
	Suggestions    []Suggestion
}

// Validate scores the proposal against every existing topic. ShouldCreate is
// true iff no suggestion reaches the combined threshold; otherwise the top
// suggestion carries a "use_existing" or "consider_merge" recommendation. An
// empty taxonomy always allows creation with full confidence.
func Validate(proposal Proposal, topics []ExistingTopic) Result {
	if len(topics) == 0 {
		return Result{ShouldCreate: true, Confidence: 1.0}
	}

	var suggestions []Suggestion
	for _, topic := range topics {
		nameScore := similarity.StringSimilarity(proposal.Name, topic.Name)
		descScore := similarity.StringSimilarity(proposal.Description, topic.Description)
		kwScore := similarity.SetOverlap(proposal.Keywords, topic.Keywords)
		combined := nameWeight*nameScore + descriptionWeight*descScore + keywordWeight*kwScore

		if combined >= combinedThreshold ||
			nameScore >= nameThreshold ||
			descScore >= descriptionThreshold ||
			kwScore >= keywordThreshold {
			suggestions = append(suggestions, Suggestion{
				TopicID:          topic.ID,
				TopicName:        topic.Name,
				NameScore:        nameScore,
				DescriptionScore: descScore,
				KeywordScore:     kwScore,
				Combined:         combined,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Combined > suggestions[j].Combined
	})

	if len(suggestions) == 0 || suggestions[0].Combined < combinedThreshold {
		return Result{
			ShouldCreate: true,
			Confidence:   1.0 - topCombined(suggestions),
			Suggestions:  suggestions,
		}
	}

	top := suggestions[0]
	recommendation := RecommendConsiderMerge
	if top.Combined >= useExistingThreshold {
		recommendation = RecommendUseExisting
	}

	return Result{
		ShouldCreate:   false,
		Confidence:     top.Combined,
		Recommendation: recommendation,
		Suggestions:    suggestions,
	}
}

func topCombined(suggestions []Suggestion) float64 {
	if len(suggestions) == 0 {
		return 0
	}
	return suggestions[0].Combined
}
