package dto

// ActionPlan represents the strict JSON output from the planner LLM.
type ActionPlan struct {
	Action      string            `json:"action" validate:"required,oneof=FETCH_CONTEXT SEARCH_TOPICS FINALIZE"`
	SearchQuery string            `json:"search_query" validate:"required_if=Action SEARCH_TOPICS"` // If Action == "SEARCH_TOPICS"
	Finalize    *FinalizeDecision `json:"finalize" validate:"required_if=Action FINALIZE"`
	Reasoning   string            `json:"reasoning"` // For debugging/logging
}

// FinalizeDecision carries the terminal choice for a message.
type FinalizeDecision struct {
	Decision string            `json:"decision" validate:"required,oneof=assign create"`
	TopicId  string            `json:"topic_id" validate:"required_if=Decision assign,omitempty,uuid"`
	NewTopic *NewTopicProposal `json:"new_topic" validate:"required_if=Decision create"`
}

// NewTopicProposal is the planner's sketch of a topic that does not exist yet.
type NewTopicProposal struct {
	Name        string   `json:"name" validate:"required,min=3,max=80"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords" validate:"max=10"`
}

const (
	PlannerActionFetchContext = "FETCH_CONTEXT" // Pull surrounding messages before deciding
	PlannerActionSearchTopics = "SEARCH_TOPICS" // Run retrieval over the taxonomy
	PlannerActionFinalize     = "FINALIZE"      // Commit to assign or create

	DecisionAssign = "assign"
	DecisionCreate = "create"
)
