package dto

import "github.com/google/uuid"

// PublishEmbedTopicMessage asks the embedding consumer to (re)build the
// profile embedding for one topic.
type PublishEmbedTopicMessage struct {
	TopicId uuid.UUID `json:"topic_id"`
}
