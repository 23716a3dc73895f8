package entity

import (
	"time"

	"github.com/google/uuid"
)

type TopicEmbedding struct {
	Id             uuid.UUID
	TopicId        uuid.UUID
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
