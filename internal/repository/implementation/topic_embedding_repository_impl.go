package implementation

import (
	"context"
	"errors"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/mapper"
	"chat-topics-be/internal/model"
	"chat-topics-be/internal/repository/contract"
	"chat-topics-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopicEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicEmbeddingMapper
}

func NewTopicEmbeddingRepository(db *gorm.DB) contract.TopicEmbeddingRepository {
	return &TopicEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicEmbeddingMapper(),
	}
}

func (r *TopicEmbeddingRepositoryImpl) Upsert(ctx context.Context, embedding *entity.TopicEmbedding) error {
	m := r.mapper.ToModel(embedding)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "embedding_value", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicEmbeddingRepositoryImpl) DeleteByTopicId(ctx context.Context, topicId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("topic_id = ?", topicId).Delete(&model.TopicEmbedding{}).Error
}

func (r *TopicEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicEmbedding, error) {
	var m model.TopicEmbedding
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TopicEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredTopic, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		TopicId    uuid.UUID
		Similarity float64
	}
	var results []result

	// pgvector cosine distance is 1 - cosine similarity.
	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("topic_embeddings").
		Select("topic_embeddings.topic_id, 1 - (embedding_value <=> ?) AS similarity", queryVector).
		Joins("JOIN topics ON topics.id = topic_embeddings.topic_id").
		Where("topic_embeddings.deleted_at IS NULL").
		Where("topics.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTopic, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTopic{TopicId: res.TopicId, RawScore: res.Similarity}
	}
	return scored, nil
}

func (r *TopicEmbeddingRepositoryImpl) SearchHybrid(ctx context.Context, query string, embedding []float32, limit int) ([]*contract.ScoredTopic, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		TopicId uuid.UUID
		Blended float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)
	document := "to_tsvector('english', topics.name || ' ' || coalesce(topics.description, ''))"

	// Equal-weight blend of lexical rank and cosine similarity. The blended
	// value is only used for ordering within this strategy; fusion works on
	// ranks, so the scale does not matter.
	err := r.db.WithContext(ctx).
		Table("topic_embeddings").
		Select("topic_embeddings.topic_id, "+
			"0.5 * ts_rank("+document+", websearch_to_tsquery('english', ?)) + "+
			"0.5 * (1 - (embedding_value <=> ?)) AS blended", query, queryVector).
		Joins("JOIN topics ON topics.id = topic_embeddings.topic_id").
		Where("topic_embeddings.deleted_at IS NULL").
		Where("topics.deleted_at IS NULL").
		Order("blended DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTopic, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTopic{TopicId: res.TopicId, RawScore: res.Blended}
	}
	return scored, nil
}
