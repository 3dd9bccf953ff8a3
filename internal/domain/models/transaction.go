package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction is returned when a transaction fails domain validation.
var ErrInvalidTransaction = errors.New("invalid transaction")

const maxDescriptionLen = 255

// Transaction is a dated monetary movement. Positive amounts are income,
// negative amounts are expenses and zero is neither.
type Transaction struct {
	ID          uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Transaction) IsIncome() bool  { return t.Amount.IsPositive() }
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// Validate checks the invariants every stored transaction must hold.
func (t Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrInvalidTransaction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}
	if len(t.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description longer than %d characters", ErrInvalidTransaction, maxDescriptionLen)
	}
	return nil
}

// Event types emitted when the transaction set changes.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEvent describes a mutation of the transaction set.
type TransactionEvent struct {
	Type        string
	Transaction Transaction
	OccurredAt  time.Time
}
