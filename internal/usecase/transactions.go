package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	domsvc "FinTrack/internal/domain/service"
	applogger "FinTrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionInput carries the user-editable fields of a transaction.
type TransactionInput struct {
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// Invalidator drops derived data after the transaction set changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// TransactionsUseCase manages transactions. Every successful mutation
// invalidates cached summaries and publishes a TransactionEvent. Publish and
// invalidation failures are logged and never fail the mutation.
type TransactionsUseCase struct {
	store       domrepo.TransactionStore
	publisher   domrepo.EventPublisher
	invalidator Invalidator
	clock       domsvc.Clock
	log         *applogger.Logger
	newID       func() uuid.UUID
}

func NewTransactionsUseCase(store domrepo.TransactionStore, publisher domrepo.EventPublisher, invalidator Invalidator, clock domsvc.Clock, l *applogger.Logger) *TransactionsUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &TransactionsUseCase{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		clock:       clock,
		log:         l,
		newID:       uuid.New,
	}
}

func (u *TransactionsUseCase) Create(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	return u.create(ctx, u.newID(), in)
}

func (u *TransactionsUseCase) create(ctx context.Context, id uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	now := u.clock.Now()
	t := models.Transaction{
		ID:          id,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := u.store.Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	u.changed(ctx, models.EventTransactionCreated, t)
	return &t, nil
}

func (u *TransactionsUseCase) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	t, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (u *TransactionsUseCase) List(ctx context.Context) ([]models.Transaction, error) {
	txs, err := u.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (u *TransactionsUseCase) Update(ctx context.Context, id uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	cur, err := u.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	t := *cur
	t.Amount = in.Amount
	t.Date = in.Date
	t.Description = in.Description
	t.UpdatedAt = u.clock.Now()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := u.store.Update(ctx, &t); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	u.changed(ctx, models.EventTransactionUpdated, t)
	return &t, nil
}

// Upsert updates the transaction with id, or creates it when it does not exist.
func (u *TransactionsUseCase) Upsert(ctx context.Context, id uuid.UUID, in TransactionInput) (*models.Transaction, error) {
	t, err := u.Update(ctx, id, in)
	if errors.Is(err, domrepo.ErrTransactionNotFound) {
		return u.create(ctx, id, in)
	}
	return t, err
}

func (u *TransactionsUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	cur, err := u.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := u.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	u.changed(ctx, models.EventTransactionDeleted, *cur)
	return nil
}

func (u *TransactionsUseCase) changed(ctx context.Context, eventType string, t models.Transaction) {
	if u.invalidator != nil {
		if err := u.invalidator.Invalidate(ctx); err != nil {
			u.log.Warn("summary invalidation failed", applogger.Error(err))
		}
	}
	if u.publisher == nil {
		return
	}
	ev := models.TransactionEvent{Type: eventType, Transaction: t, OccurredAt: u.clock.Now()}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		u.log.Warn("publish transaction event failed",
			applogger.String("type", eventType),
			applogger.String("id", t.ID.String()),
			applogger.Error(err),
		)
	}
}
