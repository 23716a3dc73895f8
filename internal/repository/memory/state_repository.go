package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"chat-topics-be/pkg/store"
)

// StateRepository keeps per-channel conversation state in process memory.
// Eviction is external to the decision loop: entries expire after the
// configured TTL so idle channels do not accumulate for the process
// lifetime.
type StateRepository struct {
	cache *cache.Cache
}

// NewStateRepository builds the store; ttl <= 0 falls back to one hour with
// ten-minute purge sweeps.
func NewStateRepository(ttl time.Duration) *StateRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	purge := ttl / 6
	if purge < time.Minute {
		purge = time.Minute
	}
	return &StateRepository{cache: cache.New(ttl, purge)}
}

// Get returns the channel's state, creating empty state on first access.
func (r *StateRepository) Get(channel string) *store.ConversationState {
	if x, found := r.cache.Get(channel); found {
		return x.(*store.ConversationState)
	}
	state := store.NewConversationState(channel)
	r.cache.Set(channel, state, cache.DefaultExpiration)
	return state
}

// Save refreshes the entry and its TTL.
func (r *StateRepository) Save(state *store.ConversationState) {
	r.cache.Set(state.Channel, state, cache.DefaultExpiration)
}

// Delete drops a channel's state.
func (r *StateRepository) Delete(channel string) {
	r.cache.Delete(channel)
}
