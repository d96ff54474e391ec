package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateJournalRequest defines the data needed to create a journal.
type CreateJournalRequest struct {
	Name        string             `json:"name" binding:"required"`
	JournalType domain.JournalType `json:"journalType" binding:"omitempty,oneof=GENERAL PAYABLES RECEIVABLES CASH"`
}

// JournalResponse defines the data returned for a journal.
type JournalResponse struct {
	JournalID   string             `json:"journalID"`
	CompanyID   string             `json:"companyID"`
	Name        string             `json:"name"`
	JournalType domain.JournalType `json:"journalType"`
	CreatedAt   time.Time          `json:"createdAt"`
	CreatedBy   string             `json:"createdBy"`
}

// ToJournalResponse converts a domain.Journal to JournalResponse DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	return JournalResponse{
		JournalID:   j.JournalID,
		CompanyID:   j.CompanyID,
		Name:        j.Name,
		JournalType: j.JournalType,
		CreatedAt:   j.CreatedAt,
		CreatedBy:   j.CreatedBy,
	}
}

// EntryLineRequest is one debit or credit within a posting request.
// Amounts are positive integers in the transaction currency's minor units.
type EntryLineRequest struct {
	AccountID    string             `json:"accountID" binding:"required"`
	Side         domain.PostingSide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	AmountMinor  int64              `json:"amountMinor" binding:"required,gt=0"`
	CurrencyCode string             `json:"currencyCode" binding:"required,len=3"`
	Memo         string             `json:"memo"`
}

// PostEntryRequest defines a balanced entry to post.
type PostEntryRequest struct {
	EntryDate        time.Time          `json:"entryDate" binding:"required"`
	Memo             string             `json:"memo" binding:"required"`
	Origin           domain.EntryOrigin `json:"origin" binding:"omitempty,oneof=MANUAL INGESTION AI_SUGGESTED ADJUSTMENT"`
	SourceDocumentID string             `json:"sourceDocumentID"`
	Lines            []EntryLineRequest `json:"lines" binding:"required,min=2,dive"`

	// OverrideSoftClose plus ApprovalReference allow posting into a
	// soft-closed period.
	OverrideSoftClose bool   `json:"overrideSoftClose"`
	ApprovalReference string `json:"approvalReference"`
}

// ReverseEntryRequest carries the reason for a reversal.
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// EntryLineResponse mirrors domain.JournalLine.
type EntryLineResponse struct {
	LineID                string             `json:"lineID"`
	AccountID             string             `json:"accountID"`
	Side                  domain.PostingSide `json:"side"`
	AmountMinor           int64              `json:"amountMinor"`
	CurrencyCode          string             `json:"currencyCode"`
	FunctionalAmountMinor int64              `json:"functionalAmountMinor"`
	RateUsed              *decimal.Decimal   `json:"rateUsed,omitempty"`
	RateSource            string             `json:"rateSource,omitempty"`
	Memo                  string             `json:"memo,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID              string                      `json:"entryID"`
	JournalID            string                      `json:"journalID"`
	CompanyID            string                      `json:"companyID"`
	EntryNumber          int64                       `json:"entryNumber"`
	EntryDate            time.Time                   `json:"entryDate"`
	Memo                 string                      `json:"memo"`
	Status               domain.EntryStatus          `json:"status"`
	Origin               domain.EntryOrigin          `json:"origin"`
	ReconciliationStatus domain.ReconciliationStatus `json:"reconciliationStatus"`
	SourceDocumentID     string                      `json:"sourceDocumentID,omitempty"`
	ReversesEntryID      string                      `json:"reversesEntryID,omitempty"`
	ReversedByEntryID    string                      `json:"reversedByEntryID,omitempty"`
	Lines                []EntryLineResponse         `json:"lines"`
	CreatedAt            time.Time                   `json:"createdAt"`
	CreatedBy            string                      `json:"createdBy"`
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, line := range e.Lines {
		lines[i] = EntryLineResponse{
			LineID:                line.LineID,
			AccountID:             line.AccountID,
			Side:                  line.Side,
			AmountMinor:           line.AmountMinor,
			CurrencyCode:          line.CurrencyCode,
			FunctionalAmountMinor: line.FunctionalAmountMinor,
			RateUsed:              line.RateUsed,
			RateSource:            line.RateSource,
			Memo:                  line.Memo,
		}
	}
	return EntryResponse{
		EntryID:              e.EntryID,
		JournalID:            e.JournalID,
		CompanyID:            e.CompanyID,
		EntryNumber:          e.EntryNumber,
		EntryDate:            e.EntryDate,
		Memo:                 e.Memo,
		Status:               e.Status,
		Origin:               e.Origin,
		ReconciliationStatus: e.ReconciliationStatus,
		SourceDocumentID:     e.SourceDocumentID,
		ReversesEntryID:      e.ReversesEntryID,
		ReversedByEntryID:    e.ReversedByEntryID,
		Lines:                lines,
		CreatedAt:            e.CreatedAt,
		CreatedBy:            e.CreatedBy,
	}
}

// ListEntriesParams are the pagination knobs for listing entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse is one page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
