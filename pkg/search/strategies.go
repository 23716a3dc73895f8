package search

import (
	"context"
	"errors"

	"chat-topics-be/internal/repository/contract"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/fusion"
)

const (
	StrategyLexical = "lexical"
	StrategyVector  = "vector"
	StrategyHybrid  = "hybrid"
)

// ErrNoEmbedding signals that a strategy needed a query embedding that
// could not be generated. The executor treats it as transient.
var ErrNoEmbedding = errors.New("query embedding unavailable")

func toRankedHits(scored []*contract.ScoredTopic) []fusion.RankedHit {
	hits := make([]fusion.RankedHit, len(scored))
	for i, s := range scored {
		hits[i] = fusion.RankedHit{
			TopicID:  s.TopicId,
			Rank:     i + 1,
			RawScore: s.RawScore,
		}
	}
	return hits
}

// LexicalStrategy ranks topics with Postgres full-text search over their
// name, description and keywords.
type LexicalStrategy struct{}

func NewLexicalStrategy() *LexicalStrategy {
	return &LexicalStrategy{}
}

func (s *LexicalStrategy) Name() string {
	return StrategyLexical
}

func (s *LexicalStrategy) Search(ctx context.Context, uow unitofwork.UnitOfWork, query Query, limit int) ([]fusion.RankedHit, error) {
	scored, err := uow.TopicRepository().SearchLexical(ctx, query.Text, limit)
	if err != nil {
		return nil, err
	}
	return toRankedHits(scored), nil
}

// VectorStrategy ranks topics by cosine similarity between the query
// embedding and each topic's profile embedding.
type VectorStrategy struct {
	Threshold float64
}

func NewVectorStrategy(threshold float64) *VectorStrategy {
	return &VectorStrategy{Threshold: threshold}
}

func (s *VectorStrategy) Name() string {
	return StrategyVector
}

func (s *VectorStrategy) Search(ctx context.Context, uow unitofwork.UnitOfWork, query Query, limit int) ([]fusion.RankedHit, error) {
	if len(query.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	scored, err := uow.TopicEmbeddingRepository().SearchSimilar(ctx, query.Embedding, limit, s.Threshold)
	if err != nil {
		return nil, err
	}
	return toRankedHits(scored), nil
}

// HybridStrategy blends full-text rank and cosine similarity inside a
// single query, so it surfaces topics that are middling on both signals.
type HybridStrategy struct{}

func NewHybridStrategy() *HybridStrategy {
	return &HybridStrategy{}
}

func (s *HybridStrategy) Name() string {
	return StrategyHybrid
}

func (s *HybridStrategy) Search(ctx context.Context, uow unitofwork.UnitOfWork, query Query, limit int) ([]fusion.RankedHit, error) {
	if len(query.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	scored, err := uow.TopicEmbeddingRepository().SearchHybrid(ctx, query.Text, query.Embedding, limit)
	if err != nil {
		return nil, err
	}
	return toRankedHits(scored), nil
}
