package scoring

import "fmt"

// Recommended actions for the top-ranked match.
const (
	ActionAssign = "assign"
	ActionReview = "review"
	ActionCreate = "create"
)

// Confidence boundaries separating the recommended actions. Tunable through
// config; the defaults follow the calibration in use.
const (
	DefaultAssignThreshold = 0.80
	DefaultReviewThreshold = 0.50
)

// Recommendation maps the best match to an action with its justification.
type Recommendation struct {
	Action     string
	Confidence float64
	BestMatch  *ScoredMatch
	Reasoning  string
}

// Recommender evaluates the top-ranked ScoredMatch only.
type Recommender struct {
	assignThreshold float64
	reviewThreshold float64
}

// NewRecommender builds a recommender; non-positive thresholds fall back to
// the defaults.
func NewRecommender(assignThreshold, reviewThreshold float64) *Recommender {
	if assignThreshold <= 0 {
		assignThreshold = DefaultAssignThreshold
	}
	if reviewThreshold <= 0 {
		reviewThreshold = DefaultReviewThreshold
	}
	return &Recommender{assignThreshold: assignThreshold, reviewThreshold: reviewThreshold}
}

// Recommend picks an action from the ranked matches. Matches must already be
// sorted by confidence descending; only the first is consulted. An empty list
// recommends creating a new topic with zero confidence.
func (r *Recommender) Recommend(matches []ScoredMatch, topicNames map[string]string) Recommendation {
	if len(matches) == 0 {
		return Recommendation{
			Action:     ActionCreate,
			Confidence: 0,
			Reasoning:  "no existing topic matched the message",
		}
	}

	best := matches[0]
	name := topicNames[best.TopicID.String()]
	if name == "" {
		name = best.TopicID.String()
	}

	switch {
	case best.Confidence >= r.assignThreshold:
		return Recommendation{
			Action:     ActionAssign,
			Confidence: best.Confidence,
			BestMatch:  &best,
			Reasoning:  fmt.Sprintf("strong match with %q (confidence %.2f)", name, best.Confidence),
		}
	case best.Confidence >= r.reviewThreshold:
		return Recommendation{
			Action:     ActionReview,
			Confidence: best.Confidence,
			BestMatch:  &best,
			Reasoning:  fmt.Sprintf("possible match with %q (confidence %.2f); gather more evidence", name, best.Confidence),
		}
	default:
		return Recommendation{
			Action:     ActionCreate,
			Confidence: best.Confidence,
			BestMatch:  &best,
			Reasoning:  fmt.Sprintf("best candidate %q scored only %.2f; a new topic fits better", name, best.Confidence),
		}
	}
}
