package unitofwork

import (
	"context"

	"chat-topics-be/internal/repository/contract"
)

// UnitOfWork scopes repository access to one logical operation. Begin starts
// a database transaction so read-modify-write sequences (assign, create)
// commit atomically or not at all.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TopicRepository() contract.TopicRepository
	TopicEmbeddingRepository() contract.TopicEmbeddingRepository
	ChatMessageRepository() contract.ChatMessageRepository
}

// RepositoryFactory mints a fresh UnitOfWork per operation.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
