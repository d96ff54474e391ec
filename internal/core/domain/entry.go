package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates where a journal entry sits in its lifecycle.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Proposed EntryStatus = "PROPOSED"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// EntryOrigin records which path produced an entry.
type EntryOrigin string

const (
	OriginManual      EntryOrigin = "MANUAL"
	OriginIngestion   EntryOrigin = "INGESTION"
	OriginAISuggested EntryOrigin = "AI_SUGGESTED"
	OriginAdjustment  EntryOrigin = "ADJUSTMENT"
)

// ReconciliationStatus tracks whether an entry has been matched against a
// bank transaction.
type ReconciliationStatus string

const (
	Unreconciled ReconciliationStatus = "UNRECONCILED"
	Reconciled   ReconciliationStatus = "RECONCILED"
	WrittenOff   ReconciliationStatus = "WRITTEN_OFF"
)

// PostingSide is the double-entry side of a journal line.
type PostingSide string

const (
	Debit  PostingSide = "DEBIT"
	Credit PostingSide = "CREDIT"
)

// JournalLine is a single debit or credit within an entry. Amounts are
// integer minor units; FunctionalAmountMinor is the line restated in the
// company base currency at RateUsed.
type JournalLine struct {
	LineID                string           `json:"lineID"` // Primary Key (UUID)
	EntryID               string           `json:"entryID"`
	AccountID             string           `json:"accountID"`
	Side                  PostingSide      `json:"side"`
	AmountMinor           int64            `json:"amountMinor"` // Always positive
	CurrencyCode          string           `json:"currencyCode"`
	FunctionalAmountMinor int64            `json:"functionalAmountMinor"`
	RateUsed              *decimal.Decimal `json:"rateUsed,omitempty"` // Nil when line is in base currency
	RateSource            string           `json:"rateSource,omitempty"`
	Memo                  string           `json:"memo,omitempty"`
}

// JournalEntry is a balanced financial event composed of two or more lines.
// Posted entries are immutable; corrections go through ReverseEntry.
type JournalEntry struct {
	EntryID              string               `json:"entryID"` // Primary Key (UUID)
	JournalID            string               `json:"journalID"`
	CompanyID            string               `json:"companyID"`
	EntryNumber          int64                `json:"entryNumber"` // Sequential per journal
	EntryDate            time.Time            `json:"entryDate"`
	Memo                 string               `json:"memo"`
	Status               EntryStatus          `json:"status"`
	Origin               EntryOrigin          `json:"origin"`
	ReconciliationStatus ReconciliationStatus `json:"reconciliationStatus"`
	SourceDocumentID     string               `json:"sourceDocumentID,omitempty"` // Bank transaction or document reference
	MatchCandidateID     string               `json:"matchCandidateID,omitempty"`
	ReversesEntryID      string               `json:"reversesEntryID,omitempty"`
	ReversedByEntryID    string               `json:"reversedByEntryID,omitempty"`
	Lines                []JournalLine        `json:"lines"`
	AuditFields
}

// FunctionalTotals sums the entry's debit and credit sides in functional
// currency minor units.
func (e JournalEntry) FunctionalTotals() (debits int64, credits int64) {
	for _, line := range e.Lines {
		switch line.Side {
		case Debit:
			debits += line.FunctionalAmountMinor
		case Credit:
			credits += line.FunctionalAmountMinor
		}
	}
	return debits, credits
}

// IsBalanced reports whether functional debits equal functional credits.
func (e JournalEntry) IsBalanced() bool {
	debits, credits := e.FunctionalTotals()
	return debits == credits
}
