package contract

import (
	"context"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TopicEmbeddingRepository interface {
	// Upsert replaces the embedding row for the topic (one row per topic).
	Upsert(ctx context.Context, embedding *entity.TopicEmbedding) error
	DeleteByTopicId(ctx context.Context, topicId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicEmbedding, error)

	// SearchSimilar ranks topics by cosine similarity to the query embedding.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredTopic, error)

	// SearchHybrid blends full-text rank and cosine similarity in one query.
	SearchHybrid(ctx context.Context, query string, embedding []float32, limit int) ([]*ScoredTopic, error)
}
