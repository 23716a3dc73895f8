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

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMessageMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMessageMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	var m model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ChatMessage{}).Count(&count).Error
	return count, err
}

func (r *ChatMessageRepositoryImpl) MessagesBefore(ctx context.Context, channel string, ts string, count int) ([]*entity.ChatMessage, error) {
	if count <= 0 {
		count = 20
	}
	return r.FindAll(ctx,
		specification.ByChannel{Channel: channel},
		specification.TsBefore{Ts: ts},
		specification.OrderBy{Field: "ts", Desc: true},
		specification.Limit{Limit: count},
	)
}

func (r *ChatMessageRepositoryImpl) ThreadMessages(ctx context.Context, channel string, threadTs string) ([]*entity.ChatMessage, error) {
	return r.FindAll(ctx,
		specification.ByChannel{Channel: channel},
		specification.ByThreadTs{ThreadTs: threadTs},
		specification.OrderBy{Field: "ts", Desc: false},
	)
}

func (r *ChatMessageRepositoryImpl) AssignTopic(ctx context.Context, channel string, messageRef string, topicId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("channel = ? AND message_ref = ?", channel, messageRef).
		Update("topic_id", topicId).Error
}
