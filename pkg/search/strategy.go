package search

import (
	"context"
	"fmt"
	"sort"

	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/fusion"
)

// Query carries everything a retrieval strategy may need. Embedding is nil
// when query embedding generation failed; embedding-backed strategies must
// treat that as a transient failure rather than panic.
type Query struct {
	Text      string
	Keywords  []string
	Embedding []float32
}

// Strategy is a single retrieval signal over the topic taxonomy. Results
// come back best-first; rank is assigned by position during fusion.
type Strategy interface {
	Name() string
	Search(ctx context.Context, uow unitofwork.UnitOfWork, query Query, limit int) ([]fusion.RankedHit, error)
}

// Registry holds the enabled strategies keyed by name.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

func (r *Registry) Register(s Strategy) error {
	if _, exists := r.strategies[s.Name()]; exists {
		return fmt.Errorf("strategy already registered: %s", s.Name())
	}
	r.strategies[s.Name()] = s
	return nil
}

func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns registered strategy names in sorted order so callers
// iterating the registry behave deterministically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.strategies)
}
