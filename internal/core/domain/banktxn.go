package domain

import "time"

// BankTransaction is one normalized statement row. SourceChecksum is a
// SHA-256 over the identity fields and is the dedupe key within a bank
// account, so re-ingesting the same statement is idempotent.
type BankTransaction struct {
	TransactionID     string    `json:"transactionID"` // Primary Key (UUID)
	CompanyID         string    `json:"companyID"`
	BankAccountID     string    `json:"bankAccountID"` // Ledger account the statement belongs to
	PostedDate        time.Time `json:"postedDate"`
	Description       string    `json:"description"`
	AmountMinor       int64     `json:"amountMinor"` // Signed: deposits positive, withdrawals negative
	CurrencyCode      string    `json:"currencyCode"`
	AccountHint       string    `json:"accountHint,omitempty"` // Counter-account suggestion from the source file
	SourceReference   string    `json:"sourceReference,omitempty"`
	SourceChecksum    string    `json:"sourceChecksum"`
	IsVoid            bool      `json:"isVoid"`
	Reconciled        bool      `json:"reconciled"`
	DuplicatesDropped int       `json:"duplicatesDropped"` // How many later copies collapsed into this row
	AuditFields
}
