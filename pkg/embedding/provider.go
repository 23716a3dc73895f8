package embedding

import "context"

// Task types hint the provider at how the embedding will be used.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider generates text embeddings.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}
