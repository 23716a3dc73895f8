package specification

import "gorm.io/gorm"

// ByName filters topics by exact name.
type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

// ByTopicID filters rows referencing a topic.
type ByTopicID struct {
	TopicID interface{}
}

func (s ByTopicID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id = ?", s.TopicID)
}
