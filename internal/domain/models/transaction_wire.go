package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionJSON is the wire form of a Transaction shared by the JSON file
// store, the event publishers and the live feed.
type TransactionJSON struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func NewTransactionJSON(t Transaction) TransactionJSON {
	return TransactionJSON{
		ID:          t.ID,
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (j TransactionJSON) Model() Transaction {
	return Transaction{
		ID:          j.ID,
		Amount:      j.Amount,
		Date:        j.Date,
		Description: j.Description,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// TransactionEventJSON is the wire form of a TransactionEvent.
type TransactionEventJSON struct {
	Type        string          `json:"type"`
	Transaction TransactionJSON `json:"transaction"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewTransactionEventJSON(ev TransactionEvent) TransactionEventJSON {
	return TransactionEventJSON{
		Type:        ev.Type,
		Transaction: NewTransactionJSON(ev.Transaction),
		OccurredAt:  ev.OccurredAt,
	}
}

// TransactionMessage is the payload accepted on the ingest topic. A present
// ID makes the message an upsert.
type TransactionMessage struct {
	ID          *uuid.UUID       `json:"id,omitempty"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}
