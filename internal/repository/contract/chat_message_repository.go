package contract

import (
	"context"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MessagesBefore returns up to count messages in the channel with a
	// platform timestamp strictly before ts, newest first.
	MessagesBefore(ctx context.Context, channel string, ts string, count int) ([]*entity.ChatMessage, error)

	// ThreadMessages returns the thread's messages oldest first.
	ThreadMessages(ctx context.Context, channel string, threadTs string) ([]*entity.ChatMessage, error)

	// AssignTopic links an ingested message to its decided topic.
	AssignTopic(ctx context.Context, channel string, messageRef string, topicId uuid.UUID) error
}
