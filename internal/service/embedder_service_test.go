package service

import (
	"testing"

	"chat-topics-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildProfileDocument(t *testing.T) {
	topic := &entity.Topic{
		Id:               uuid.New(),
		Name:             "Database Migration",
		Description:      "Schema and data migration work",
		Keywords:         []string{"postgres", "migration"},
		SampleUtterances: []string{"should we use flyway or liquibase"},
	}

	doc := BuildProfileDocument(topic)

	assert.Contains(t, doc, "Topic: Database Migration")
	assert.Contains(t, doc, "Description: Schema and data migration work")
	assert.Contains(t, doc, "Keywords: postgres, migration")
	assert.Contains(t, doc, "- should we use flyway or liquibase")
}

func TestBuildProfileDocumentSparseTopic(t *testing.T) {
	topic := &entity.Topic{Id: uuid.New(), Name: "General Discussion"}

	doc := BuildProfileDocument(topic)

	assert.Equal(t, "Topic: General Discussion\n", doc)
}
