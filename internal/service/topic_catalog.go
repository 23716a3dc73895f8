package service

import (
	"context"
	"time"

	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

const topicCatalogKey = "topics:all"

// TopicCatalog serves the full topic list from a short-lived cache. Scoring
// consults the taxonomy on every retrieval round; the list is small and
// changes only when a topic is created, so a TTL cache keeps the loop off
// the database. Invalidate after any write.
type TopicCatalog struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
}

func NewTopicCatalog(uowFactory unitofwork.RepositoryFactory, ttl time.Duration) *TopicCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TopicCatalog{
		uowFactory: uowFactory,
		cache:      cache.New(ttl, 2*ttl),
	}
}

func (c *TopicCatalog) All(ctx context.Context) ([]*entity.Topic, error) {
	if cached, found := c.cache.Get(topicCatalogKey); found {
		return cached.([]*entity.Topic), nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	topics, err := uow.TopicRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(topicCatalogKey, topics, cache.DefaultExpiration)
	return topics, nil
}

func (c *TopicCatalog) Invalidate() {
	c.cache.Delete(topicCatalogKey)
}
