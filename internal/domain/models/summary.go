package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupSummary is the aggregate of all transactions sharing one period key.
// StartDate and EndDate are the earliest and latest transaction dates inside
// the group, not the bounds of the requested window.
type GroupSummary struct {
	Period    string
	Total     decimal.Decimal
	Count     int
	StartDate time.Time
	EndDate   time.Time
}
