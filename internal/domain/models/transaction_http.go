package models

import "github.com/shopspring/decimal"

// Requests for the transaction and summary HTTP endpoints.

type SummaryRequest struct {
	GroupBy   string `query:"groupBy" json:"groupBy" default:"month"`
	Period    string `query:"period" json:"period"`
	StartDate string `query:"startDate" json:"startDate"`
	EndDate   string `query:"endDate" json:"endDate"`
}

type TransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Date        string           `json:"date" validate:"required"`
	Description string           `json:"description" validate:"max=255"`
}

type TransactionIDParam struct {
	ID string `param:"id" validate:"required,uuid"`
}
