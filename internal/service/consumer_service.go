package service

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-topics-be/internal/config"
	"chat-topics-be/internal/dto"
	"chat-topics-be/internal/pkg/logger"
	pktNats "chat-topics-be/pkg/nats"

	"github.com/go-playground/validator/v10"
)

type IConsumerService interface {
	Consume() error
}

// consumerService bridges the NATS ingestion subject into the categorizer
// and publishes each result on the outbound subject.
type consumerService struct {
	subscriber  *pktNats.Subscriber
	publisher   *pktNats.Publisher
	categorizer ICategorizerService
	validate    *validator.Validate
	log         logger.ILogger
	cfg         config.CategorizeConfig
}

func NewConsumerService(
	subscriber *pktNats.Subscriber,
	publisher *pktNats.Publisher,
	categorizer ICategorizerService,
	log logger.ILogger,
	cfg config.CategorizeConfig,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		publisher:   publisher,
		categorizer: categorizer,
		validate:    validator.New(),
		log:         log,
		cfg:         cfg,
	}
}

func (cs *consumerService) Consume() error {
	return cs.subscriber.Subscribe(cs.cfg.IngestSubject, cs.cfg.IngestConsumerName, cs.handleMessage)
}

func (cs *consumerService) handleMessage(ctx context.Context, data []byte) error {
	var incoming dto.IncomingMessage
	if err := json.Unmarshal(data, &incoming); err != nil {
		cs.log.Error("consumer", "invalid ingest payload", map[string]interface{}{"error": err.Error()})
		return nil // malformed payloads never become deliverable, drop
	}
	if err := cs.validate.Struct(&incoming); err != nil {
		cs.log.Error("consumer", "ingest payload failed validation", map[string]interface{}{"error": err.Error()})
		return nil
	}

	result, err := cs.categorizer.Categorize(ctx, &incoming)
	if err != nil {
		cs.log.Error("consumer", "categorization failed", map[string]interface{}{
			"channel": incoming.Channel, "message_ref": incoming.MessageRef, "error": err.Error(),
		})
		return fmt.Errorf("categorize %s: %w", incoming.MessageRef, err)
	}
	if result == nil {
		// Empty message, nothing to route.
		return nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := cs.publisher.Publish(ctx, cs.cfg.ResultSubject, payload); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}

	cs.log.Info("consumer", "message categorized", map[string]interface{}{
		"channel":    result.Channel,
		"topic_name": result.TopicName,
		"decision":   result.Decision,
		"iterations": result.IterationCount,
	})
	return nil
}
