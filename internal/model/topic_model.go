package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Topic struct {
	Id               uuid.UUID                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string                       `gorm:"type:varchar(255);not null;index"`
	Description      string                       `gorm:"type:text"`
	Keywords         datatypes.JSONSlice[string]  `gorm:"type:jsonb"`
	SampleUtterances datatypes.JSONSlice[string]  `gorm:"type:jsonb"`
	Contributors     datatypes.JSONSlice[string]  `gorm:"type:jsonb"`
	MessageCount     int64                        `gorm:"not null;default:0"`
	CreatedAt        time.Time                    `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                    `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt               `gorm:"index"`
}

func (Topic) TableName() string {
	return "topics"
}
