package dto

import "github.com/shopspring/decimal"

// SnapshotRate is one period-end rate inside a revaluation snapshot,
// quoted as base currency per one unit of the foreign currency.
type SnapshotRate struct {
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	Rate         decimal.Decimal `json:"rate" binding:"required"`
}

// RevaluationRequest triggers period-end revaluation of multi-currency
// balances. SnapshotID is the idempotency key: re-submitting the same
// snapshot for the same journal and period is a no-op.
type RevaluationRequest struct {
	FiscalYear int            `json:"fiscalYear" binding:"required"`
	Period     int            `json:"period" binding:"required,min=1"`
	SnapshotID string         `json:"snapshotID" binding:"required"`
	Rates      []SnapshotRate `json:"rates" binding:"required,min=1,dive"`
}

// RevaluationResponse reports the adjustment entries a run produced.
type RevaluationResponse struct {
	EntryIDs       []string `json:"entryIDs"`
	AlreadyApplied bool     `json:"alreadyApplied"` // True when the snapshot was seen before
}
