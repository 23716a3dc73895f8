package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"chat-topics-be/internal/pkg/logger"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/embedding"
	"chat-topics-be/pkg/fusion"
	"chat-topics-be/pkg/textutil"
)

// ErrAllStrategiesFailed is returned when no retrieval strategy produced a
// result list. Partial failures are logged and fused over whatever
// succeeded, so callers only see this when retrieval is fully down.
var ErrAllStrategiesFailed = errors.New("all retrieval strategies failed")

// Config encapsulates retrieval parameters.
type Config struct {
	TopK            int
	StrategyTimeout time.Duration
	RRFK            int
}

func DefaultConfig() Config {
	return Config{
		TopK:            10,
		StrategyTimeout: 5 * time.Second,
		RRFK:            fusion.DefaultK,
	}
}

// Result is the fused outcome of one retrieval round.
type Result struct {
	Candidates []fusion.Candidate
	// StrategiesRun counts the lists that actually fed fusion; confidence
	// normalization divides by this, not by the registered total.
	StrategiesRun int
	Query         Query
}

// Executor fans a query out to every registered strategy in parallel and
// fuses the ranked lists with reciprocal rank fusion.
type Executor struct {
	registry *Registry
	embedder embedding.Provider
	config   Config
	log      logger.ILogger
}

func NewExecutor(registry *Registry, embedder embedding.Provider, config Config, log logger.ILogger) *Executor {
	return &Executor{
		registry: registry,
		embedder: embedder,
		config:   config,
		log:      log,
	}
}

func (e *Executor) Execute(ctx context.Context, uow unitofwork.UnitOfWork, text string) (*Result, error) {
	query := Query{
		Text:     textutil.Normalize(text),
		Keywords: textutil.ExtractKeywords(text),
	}

	// One embedding per round, shared by every strategy that needs it.
	// Failure here degrades to lexical-only retrieval instead of aborting.
	if emb, err := e.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery); err != nil {
		e.log.Warn("search", "query embedding failed, degrading to lexical retrieval", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		query.Embedding = emb
	}

	type strategyResult struct {
		name string
		hits []fusion.RankedHit
		err  error
	}

	names := e.registry.Names()
	results := make(chan strategyResult, len(names))

	var wg sync.WaitGroup
	for _, name := range names {
		strategy, _ := e.registry.Get(name)
		wg.Add(1)
		go func(s Strategy) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, e.config.StrategyTimeout)
			defer cancel()
			hits, err := s.Search(sctx, uow, query, e.config.TopK)
			results <- strategyResult{name: s.Name(), hits: hits, err: err}
		}(strategy)
	}
	wg.Wait()
	close(results)

	lists := make(map[string][]fusion.RankedHit)
	for res := range results {
		if res.err != nil {
			e.log.Warn("search", "retrieval strategy failed", map[string]interface{}{
				"strategy": res.name,
				"error":    res.err.Error(),
			})
			continue
		}
		lists[res.name] = res.hits
	}

	if len(lists) == 0 && len(names) > 0 {
		return nil, ErrAllStrategiesFailed
	}

	candidates := fusion.Fuse(lists, e.config.RRFK)
	e.log.Debug("search", "retrieval round complete", map[string]interface{}{
		"strategies_run": len(lists),
		"candidates":     len(candidates),
	})

	return &Result{
		Candidates:    candidates,
		StrategiesRun: len(lists),
		Query:         query,
	}, nil
}
