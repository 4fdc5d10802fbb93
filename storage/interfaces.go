package storage

import (
	"context"

	"github.com/poiesic/bookscan/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// BookRepository provides operations for managing scanned books.
// Books are keyed by ISBN and kept in the order they were first added.
type BookRepository interface {
	Repository

	// AddBooks stores one or more books.
	// A new ISBN is appended to the end of the library order.
	// An existing ISBN has its content replaced and keeps its position.
	AddBooks(ctx context.Context, books ...*core.Book) ([]*core.Book, error)

	// GetBook retrieves a single book by ISBN.
	// Returns ErrNotFound if the book doesn't exist.
	GetBook(ctx context.Context, isbn string) (*core.Book, error)

	// GetBooks retrieves multiple books by ISBN, in argument order.
	// Returns only the books that exist (no error for missing books).
	GetBooks(ctx context.Context, isbns ...string) ([]*core.Book, error)

	// ListBooks retrieves every book in library order.
	ListBooks(ctx context.Context) ([]*core.Book, error)

	// ForEachBook calls fn for every book in library order.
	// Iteration stops on the first error from fn or on context cancellation.
	ForEachBook(ctx context.Context, fn func(*core.Book) error) error

	// CountBooks returns the number of stored books.
	CountBooks(ctx context.Context) (int, error)

	// DeleteBooks removes books by ISBN.
	// Returns ErrNotFound if any book doesn't exist.
	DeleteBooks(ctx context.Context, isbns ...string) error
}

// CheckpointRepository records which source documents have been ingested.
type CheckpointRepository interface {
	// SaveCheckpoint persists the checkpoint for a source.
	SaveCheckpoint(ctx context.Context, checkpoint *core.SourceCheckpoint) error

	// LoadCheckpoint retrieves the checkpoint for a source.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, source string) (*core.SourceCheckpoint, error)
}
