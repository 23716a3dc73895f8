package store

import "github.com/google/uuid"

// MaxRecentActivity bounds the per-channel activity window.
const MaxRecentActivity = 20

// TopicRef is the lightweight view of a topic carried in channel state.
type TopicRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ActivityEntry records one categorized message in a channel.
type ActivityEntry struct {
	MessageID string    `json:"message_id"`
	TopicID   uuid.UUID `json:"topic_id"`
	Text      string    `json:"text"`
	Ts        string    `json:"ts"`
}

// ConversationState is the per-channel context object. It is owned by the
// caller and mutated only after a decision has been applied; eviction is
// handled externally by the state repository's TTL.
type ConversationState struct {
	Channel        string          `json:"channel"`
	RecentActivity []ActivityEntry `json:"recent_activity"`
	CurrentTopic   *TopicRef       `json:"current_topic"`
	LastQuery      string          `json:"last_query"`
}

// NewConversationState returns empty state for a channel.
func NewConversationState(channel string) *ConversationState {
	return &ConversationState{Channel: channel}
}

// RecordActivity appends newest-last and drops the oldest entry past the
// bound.
func (s *ConversationState) RecordActivity(entry ActivityEntry) {
	s.RecentActivity = append(s.RecentActivity, entry)
	if len(s.RecentActivity) > MaxRecentActivity {
		s.RecentActivity = s.RecentActivity[len(s.RecentActivity)-MaxRecentActivity:]
	}
}

// SetCurrentTopic points the channel at its active topic.
func (s *ConversationState) SetCurrentTopic(id uuid.UUID, name string) {
	s.CurrentTopic = &TopicRef{ID: id, Name: name}
}
