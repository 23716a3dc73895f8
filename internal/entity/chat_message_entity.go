package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one ingested platform message. MessageRef and Ts come from
// the chat platform and identify the message inside its channel.
type ChatMessage struct {
	Id         uuid.UUID
	MessageRef string
	Channel    string
	ThreadTs   string
	UserRef    string
	Text       string
	Ts         string
	TopicId    *uuid.UUID
	PostedAt   time.Time
	CreatedAt  time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
