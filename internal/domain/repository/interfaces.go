package repository

import (
	"context"
	"errors"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/google/uuid"
)

var (
	// ErrTransactionNotFound is returned by stores when no transaction has the requested id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionExists is returned by Create when the id is already taken.
	ErrTransactionExists = errors.New("transaction already exists")
)

// TransactionStore persists transactions. Implementations must be safe for concurrent use.
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context) ([]models.Transaction, error)
	Update(ctx context.Context, t *models.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindInRange returns every transaction with start <= date <= end, in any order.
	FindInRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error)
	Health(ctx context.Context) error
	Close() error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev models.TransactionEvent) error
	Close() error
}

// SummaryCache stores computed summaries keyed by query.
type SummaryCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type Metrics interface {
	RecordQuery(mode, groupBy string)
	RecordGroups(mode string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
