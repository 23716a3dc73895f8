package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"chat-topics-be/internal/dto"
	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/specification"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IEmbedderService interface {
	Consume(ctx context.Context) error
}

// embedderService keeps topic profile embeddings in step with the taxonomy.
// It consumes embed requests enqueued when a topic is created or its
// profile drifts.
type embedderService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
}

func NewEmbedderService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
) IEmbedderService {
	return &embedderService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (es *embedderService) Consume(ctx context.Context) error {
	messages, err := es.pubSub.Subscribe(ctx, es.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			es.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (es *embedderService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedTopicMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Building profile embedding for TopicId: %s", payload.TopicId)

	uow := es.uowFactory.NewUnitOfWork(ctx)

	topic, err := uow.TopicRepository().FindOne(ctx, specification.ByID{ID: payload.TopicId})
	if err != nil {
		log.Printf("[ERROR] Failed to get topic %s: %v", payload.TopicId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if topic == nil {
		log.Printf("[ERROR] Topic not found: %s", payload.TopicId)
		msg.Ack() // Topic deleted? Ack.
		return
	}

	document := BuildProfileDocument(topic)

	values, err := es.embeddingProvider.Generate(ctx, document, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Failed to generate embedding for topic %s: %v", topic.Id, err)
		msg.Nack()
		return
	}

	now := time.Now()
	err = uow.TopicEmbeddingRepository().Upsert(ctx, &entity.TopicEmbedding{
		Id:             uuid.New(),
		TopicId:        topic.Id,
		Document:       document,
		EmbeddingValue: values,
		CreatedAt:      now,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to store embedding for topic %s: %v", topic.Id, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Profile embedding stored for TopicId: %s", topic.Id)
	msg.Ack()
}

// BuildProfileDocument flattens a topic into the text that gets embedded.
// Sample utterances matter most: they are what future messages will sound
// like.
func BuildProfileDocument(topic *entity.Topic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic.Name)
	if topic.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", topic.Description)
	}
	if len(topic.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(topic.Keywords, ", "))
	}
	if len(topic.SampleUtterances) > 0 {
		b.WriteString("Example messages:\n")
		for _, u := range topic.SampleUtterances {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	return b.String()
}
