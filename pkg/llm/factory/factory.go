package factory

import (
	"fmt"

	"chat-topics-be/pkg/llm"
	"chat-topics-be/pkg/llm/ollama"
)

// NewLLMProvider builds a provider from config values.
func NewLLMProvider(providerType, baseURL, modelName string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", providerType)
	}
}
