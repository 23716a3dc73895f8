package mapper

import (
	"time"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/model"

	"gorm.io/gorm"
)

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		ts := c.DeletedAt.Time
		deletedAt = &ts
	}

	return &entity.ChatMessage{
		Id:         c.Id,
		MessageRef: c.MessageRef,
		Channel:    c.Channel,
		ThreadTs:   c.ThreadTs,
		UserRef:    c.UserRef,
		Text:       c.Text,
		Ts:         c.Ts,
		TopicId:    c.TopicId,
		PostedAt:   c.PostedAt,
		CreatedAt:  c.CreatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  c.DeletedAt.Valid,
	}
}

func (m *ChatMessageMapper) ToModel(c *entity.ChatMessage) *model.ChatMessage {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	}

	return &model.ChatMessage{
		Id:         c.Id,
		MessageRef: c.MessageRef,
		Channel:    c.Channel,
		ThreadTs:   c.ThreadTs,
		UserRef:    c.UserRef,
		Text:       c.Text,
		Ts:         c.Ts,
		TopicId:    c.TopicId,
		PostedAt:   c.PostedAt,
		CreatedAt:  c.CreatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, c := range messages {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
