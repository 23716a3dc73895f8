package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Categorize CategorizeConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	NatsURL     string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // "ollama"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	PlannerEnabled    bool   // false routes every message through the rule planner
}

// CategorizeConfig holds the tuning knobs of the decision loop. Defaults
// match the calibration the thresholds were validated against; change them
// together, not one at a time.
type CategorizeConfig struct {
	MaxIterations      int
	TopK               int
	RRFK               int
	AssignThreshold    float64
	ReviewThreshold    float64
	VectorThreshold    float64
	StrategyTimeout    time.Duration
	ContextWindow      int
	ShortMessageRunes  int
	StateTTL           time.Duration
	TopicCacheTTL      time.Duration
	IngestSubject      string
	ResultSubject      string
	EmbedTopicName     string
	IngestConsumerName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "app.log"),
			NatsURL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			PlannerEnabled:    getEnvAsBool("PLANNER_ENABLED", true),
		},
		Categorize: CategorizeConfig{
			MaxIterations:      getEnvAsInt("CATEGORIZE_MAX_ITERATIONS", 5),
			TopK:               getEnvAsInt("CATEGORIZE_TOP_K", 10),
			RRFK:               getEnvAsInt("CATEGORIZE_RRF_K", 60),
			AssignThreshold:    getEnvAsFloat("CATEGORIZE_ASSIGN_THRESHOLD", 0.80),
			ReviewThreshold:    getEnvAsFloat("CATEGORIZE_REVIEW_THRESHOLD", 0.50),
			VectorThreshold:    getEnvAsFloat("CATEGORIZE_VECTOR_THRESHOLD", 0.0),
			StrategyTimeout:    getEnvAsDuration("CATEGORIZE_STRATEGY_TIMEOUT", 5*time.Second),
			ContextWindow:      getEnvAsInt("CATEGORIZE_CONTEXT_WINDOW", 10),
			ShortMessageRunes:  getEnvAsInt("CATEGORIZE_SHORT_MESSAGE_RUNES", 10),
			StateTTL:           getEnvAsDuration("CONVERSATION_STATE_TTL", time.Hour),
			TopicCacheTTL:      getEnvAsDuration("TOPIC_CACHE_TTL", 5*time.Minute),
			IngestSubject:      getEnv("INGEST_SUBJECT", "chat.messages.incoming"),
			ResultSubject:      getEnv("RESULT_SUBJECT", "chat.messages.categorized"),
			EmbedTopicName:     getEnv("EMBED_TOPIC_PROFILE_TOPIC_NAME", "EMBED_TOPIC_PROFILE"),
			IngestConsumerName: getEnv("INGEST_CONSUMER_NAME", "categorizer"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
