package planner

import (
	"context"

	"chat-topics-be/internal/dto"
	"chat-topics-be/pkg/scoring"

	"github.com/google/uuid"
)

// TopicSummary is one scored taxonomy candidate shown to the planner.
type TopicSummary struct {
	Id         uuid.UUID
	Name       string
	Confidence float64
	Reasons    []string
}

// Observation is everything the planner can see at one decision point.
// The loop re-observes after every executed action, so fields fill in as
// the iterations progress.
type Observation struct {
	MessageText   string
	Channel       string
	Iteration     int
	MaxIterations int

	CurrentTopicName string
	RecentActivity   []string

	ContextFetched  bool
	ContextMessages []string

	SearchDone     bool
	Recommendation *scoring.Recommendation
	Matches        []TopicSummary
}

// Planner chooses the next action for the categorization loop. It only
// observes and decides; executing the action is the loop's job.
type Planner interface {
	Decide(ctx context.Context, obs *Observation) (*dto.ActionPlan, error)
}
