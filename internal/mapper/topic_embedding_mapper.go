package mapper

import (
	"time"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TopicEmbeddingMapper struct{}

func NewTopicEmbeddingMapper() *TopicEmbeddingMapper {
	return &TopicEmbeddingMapper{}
}

func (m *TopicEmbeddingMapper) ToEntity(e *model.TopicEmbedding) *entity.TopicEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		ts := e.DeletedAt.Time
		deletedAt = &ts
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		ts := e.UpdatedAt
		updatedAt = &ts
	}

	return &entity.TopicEmbedding{
		Id:             e.Id,
		TopicId:        e.TopicId,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *TopicEmbeddingMapper) ToModel(e *entity.TopicEmbedding) *model.TopicEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.TopicEmbedding{
		Id:             e.Id,
		TopicId:        e.TopicId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}
