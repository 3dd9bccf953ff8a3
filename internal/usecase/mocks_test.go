package usecase

import (
	"context"
	"time"

	"FinTrack/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of TransactionStore for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, t *models.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockStore) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockStore) List(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, t *models.Transaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) FindInRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockStore) Health(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockStore) Close() error { return m.Called().Error(0) }

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.TransactionEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) Close() error { return m.Called().Error(0) }

// MockMetrics is a mock implementation of Metrics for testing
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordQuery(mode, groupBy string)         { m.Called(mode, groupBy) }
func (m *MockMetrics) RecordGroups(mode string, n int)          { m.Called(mode, n) }
func (m *MockMetrics) RecordError(kind string)                  { m.Called(kind) }
func (m *MockMetrics) RecordLatency(op string, seconds float64) { m.Called(op, seconds) }
