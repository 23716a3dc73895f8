package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageRef string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_channel_message_ref,priority:2"`
	Channel    string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_channel_message_ref,priority:1;index:idx_channel_ts"`
	ThreadTs   string         `gorm:"type:varchar(64);index"`
	UserRef    string         `gorm:"type:varchar(64)"`
	Text       string         `gorm:"type:text;not null"`
	Ts         string         `gorm:"type:varchar(64);not null;index:idx_channel_ts"`
	TopicId    *uuid.UUID     `gorm:"type:uuid;index"`
	PostedAt   time.Time      `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
