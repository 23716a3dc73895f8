package dto

import (
	"github.com/google/uuid"
)

// IncomingMessage is the payload consumed from the chat ingestion subject.
type IncomingMessage struct {
	MessageRef string `json:"message_ref" validate:"required"`
	Channel    string `json:"channel" validate:"required"`
	ThreadTs   string `json:"thread_ts"`
	UserRef    string `json:"user_ref"`
	Text       string `json:"text"`
	Ts         string `json:"ts" validate:"required"`
}

// CategorizationResult is published after a message has been routed.
type CategorizationResult struct {
	MessageRef       string     `json:"message_ref"`
	Channel          string     `json:"channel"`
	TopicId          *uuid.UUID `json:"topic_id,omitempty"`
	TopicName        string     `json:"topic_name,omitempty"`
	Decision         string     `json:"decision"`
	Confidence       float64    `json:"confidence"`
	Reasoning        string     `json:"reasoning"`
	IterationCount   int        `json:"iteration_count"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

const (
	DecisionOutcomeAssigned        = "assigned"
	DecisionOutcomeCreated         = "created"
	DecisionOutcomeFallbackAssign  = "fallback_assigned"
	DecisionOutcomeFallbackCreated = "fallback_created"
)
