package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/contract"
	"chat-topics-be/internal/repository/specification"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/fusion"

	"github.com/google/uuid"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return f.vector, f.err
}

type fakeTopicRepo struct {
	contract.TopicRepository
	lexical    []*contract.ScoredTopic
	lexicalErr error
}

func (f *fakeTopicRepo) SearchLexical(ctx context.Context, query string, limit int) ([]*contract.ScoredTopic, error) {
	return f.lexical, f.lexicalErr
}

type fakeEmbeddingRepo struct {
	similar    []*contract.ScoredTopic
	similarErr error
	hybrid     []*contract.ScoredTopic
	hybridErr  error
}

func (f *fakeEmbeddingRepo) Upsert(ctx context.Context, e *entity.TopicEmbedding) error { return nil }
func (f *fakeEmbeddingRepo) DeleteByTopicId(ctx context.Context, id uuid.UUID) error    { return nil }
func (f *fakeEmbeddingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicEmbedding, error) {
	return nil, nil
}
func (f *fakeEmbeddingRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, threshold float64) ([]*contract.ScoredTopic, error) {
	return f.similar, f.similarErr
}
func (f *fakeEmbeddingRepo) SearchHybrid(ctx context.Context, query string, emb []float32, limit int) ([]*contract.ScoredTopic, error) {
	return f.hybrid, f.hybridErr
}

type fakeUow struct {
	topics     *fakeTopicRepo
	embeddings *fakeEmbeddingRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) TopicRepository() contract.TopicRepository {
	return f.topics
}
func (f *fakeUow) TopicEmbeddingRepository() contract.TopicEmbeddingRepository {
	return f.embeddings
}
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }

var _ unitofwork.UnitOfWork = &fakeUow{}

func newTestExecutor(embedder *fakeEmbedder) *Executor {
	registry := NewRegistry(
		NewLexicalStrategy(),
		NewVectorStrategy(0.0),
		NewHybridStrategy(),
	)
	config := DefaultConfig()
	config.StrategyTimeout = time.Second
	return NewExecutor(registry, embedder, config, noopLogger{})
}

func scored(ids ...uuid.UUID) []*contract.ScoredTopic {
	out := make([]*contract.ScoredTopic, len(ids))
	for i, id := range ids {
		out[i] = &contract.ScoredTopic{TopicId: id, RawScore: 1.0 / float64(i+1)}
	}
	return out
}

func TestExecuteFusesAllStrategies(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	uow := &fakeUow{
		topics: &fakeTopicRepo{lexical: scored(a, b)},
		embeddings: &fakeEmbeddingRepo{
			similar: scored(a, b),
			hybrid:  scored(a, b),
		},
	}
	executor := newTestExecutor(&fakeEmbedder{vector: []float32{0.1, 0.2}})

	result, err := executor.Execute(context.Background(), uow, "deploy rollback help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.StrategiesRun != 3 {
		t.Fatalf("StrategiesRun = %d, want 3", result.StrategiesRun)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(result.Candidates))
	}
	if result.Candidates[0].TopicID != a {
		t.Errorf("top candidate = %s, want %s", result.Candidates[0].TopicID, a)
	}
	// Rank 1 in all three lists.
	want := 3.0 / float64(fusion.DefaultK+1)
	if diff := result.Candidates[0].FusedScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("fused score = %f, want %f", result.Candidates[0].FusedScore, want)
	}
}

func TestExecuteDegradesWithoutEmbedding(t *testing.T) {
	a := uuid.New()
	uow := &fakeUow{
		topics:     &fakeTopicRepo{lexical: scored(a)},
		embeddings: &fakeEmbeddingRepo{},
	}
	executor := newTestExecutor(&fakeEmbedder{err: errors.New("provider down")})

	result, err := executor.Execute(context.Background(), uow, "postgres migration")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.StrategiesRun != 1 {
		t.Fatalf("StrategiesRun = %d, want 1 (lexical only)", result.StrategiesRun)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].TopicID != a {
		t.Fatalf("expected lexical candidate %s, got %+v", a, result.Candidates)
	}
}

func TestExecutePartialFailureStillFuses(t *testing.T) {
	a := uuid.New()
	uow := &fakeUow{
		topics: &fakeTopicRepo{lexicalErr: errors.New("fts index rebuilding")},
		embeddings: &fakeEmbeddingRepo{
			similar: scored(a),
			hybrid:  scored(a),
		},
	}
	executor := newTestExecutor(&fakeEmbedder{vector: []float32{0.5}})

	result, err := executor.Execute(context.Background(), uow, "incident review")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.StrategiesRun != 2 {
		t.Fatalf("StrategiesRun = %d, want 2", result.StrategiesRun)
	}
}

func TestExecuteAllStrategiesFailed(t *testing.T) {
	uow := &fakeUow{
		topics: &fakeTopicRepo{lexicalErr: errors.New("db down")},
		embeddings: &fakeEmbeddingRepo{
			similarErr: errors.New("db down"),
			hybridErr:  errors.New("db down"),
		},
	}
	executor := newTestExecutor(&fakeEmbedder{vector: []float32{0.5}})

	_, err := executor.Execute(context.Background(), uow, "anything")
	if !errors.Is(err, ErrAllStrategiesFailed) {
		t.Fatalf("error = %v, want ErrAllStrategiesFailed", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(NewLexicalStrategy())
	if err := registry.Register(NewLexicalStrategy()); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if got := registry.Names(); len(got) != 1 || got[0] != StrategyLexical {
		t.Fatalf("Names() = %v", got)
	}
}
