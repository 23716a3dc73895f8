package contract

import (
	"context"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredTopic pairs a topic id with the raw score a retrieval query gave it.
type ScoredTopic struct {
	TopicId  uuid.UUID
	RawScore float64
}

type TopicRepository interface {
	Create(ctx context.Context, topic *entity.Topic) error
	Update(ctx context.Context, topic *entity.Topic) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchLexical ranks topics against the query with Postgres full-text
	// search over name, description and keywords. No matches is an empty
	// slice, not an error.
	SearchLexical(ctx context.Context, query string, limit int) ([]*ScoredTopic, error)
}
