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
	"gorm.io/gorm"
)

type TopicRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicMapper
}

func NewTopicRepository(db *gorm.DB) contract.TopicRepository {
	return &TopicRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicMapper(),
	}
}

func (r *TopicRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TopicRepositoryImpl) Create(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*topic = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicRepositoryImpl) Update(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*topic = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Topic{}, id).Error
}

func (r *TopicRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	var m model.Topic
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TopicRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	var models []*model.Topic
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TopicRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Topic{}).Count(&count).Error
	return count, err
}

func (r *TopicRepositoryImpl) SearchLexical(ctx context.Context, query string, limit int) ([]*contract.ScoredTopic, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		Id   uuid.UUID
		Rank float64
	}
	var results []result

	// websearch_to_tsquery tolerates free-form user text; keywords are stored
	// as a jsonb array so they are flattened into the document.
	document := "to_tsvector('english', name || ' ' || coalesce(description, '') || ' ' || " +
		"coalesce((SELECT string_agg(value, ' ') FROM jsonb_array_elements_text(keywords)), ''))"

	err := r.db.WithContext(ctx).
		Table("topics").
		Select("id, ts_rank("+document+", websearch_to_tsquery('english', ?)) AS rank", query).
		Where(document+" @@ websearch_to_tsquery('english', ?)", query).
		Where("deleted_at IS NULL").
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredTopic, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredTopic{TopicId: res.Id, RawScore: res.Rank}
	}
	return scored, nil
}
