package bootstrap

import (
	"log"

	"chat-topics-be/internal/config"
	"chat-topics-be/internal/pkg/logger"
	"chat-topics-be/internal/repository/memory"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/internal/service"
	"chat-topics-be/pkg/embedding"
	"chat-topics-be/pkg/llm/factory"
	pktNats "chat-topics-be/pkg/nats"
	"chat-topics-be/pkg/planner"
	"chat-topics-be/pkg/scoring"
	"chat-topics-be/pkg/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	EmbedderService service.IEmbedderService

	CategorizerService service.ICategorizerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process, for embedding upkeep)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
	)
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.OllamaModel)

	var decider planner.Planner = planner.NewRulePlanner()
	if cfg.Ai.PlannerEnabled {
		llmProvider, err := factory.NewLLMProvider(
			cfg.Ai.LLMProvider,
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.LLMModel,
		)
		if err != nil {
			log.Printf("[WARN] LLM planner unavailable, using rule planner: %v", err)
		} else {
			decider = planner.NewLLMPlanner(llmProvider)
			log.Printf("[INFO] Using LLM Planner: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
		}
	}

	// 4. NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// 5. Retrieval
	registry := search.NewRegistry(
		search.NewLexicalStrategy(),
		search.NewVectorStrategy(cfg.Categorize.VectorThreshold),
		search.NewHybridStrategy(),
	)
	executor := search.NewExecutor(registry, embeddingProvider, search.Config{
		TopK:            cfg.Categorize.TopK,
		StrategyTimeout: cfg.Categorize.StrategyTimeout,
		RRFK:            cfg.Categorize.RRFK,
	}, sysLogger)

	// 6. Services
	stateRepo := memory.NewStateRepository(cfg.Categorize.StateTTL)
	catalog := service.NewTopicCatalog(uowFactory, cfg.Categorize.TopicCacheTTL)
	publisherService := service.NewPublisherService(cfg.Categorize.EmbedTopicName, pubSub)

	categorizerService := service.NewCategorizerService(
		uowFactory,
		executor,
		scoring.NewScorer(scoring.DefaultWeights(), cfg.Categorize.RRFK),
		scoring.NewRecommender(cfg.Categorize.AssignThreshold, cfg.Categorize.ReviewThreshold),
		decider,
		stateRepo,
		catalog,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Categorize,
	)

	embedderService := service.NewEmbedderService(
		pubSub,
		cfg.Categorize.EmbedTopicName,
		uowFactory,
		embeddingProvider,
	)

	consumerService := service.NewConsumerService(
		natsSub,
		natsPub,
		categorizerService,
		sysLogger,
		cfg.Categorize,
	)

	return &Container{
		ConsumerService:    consumerService,
		EmbedderService:    embedderService,
		CategorizerService: categorizerService,
		Logger:             sysLogger,
	}
}
