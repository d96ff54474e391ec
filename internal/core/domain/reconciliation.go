package domain

import "time"

// CandidateStatus is the disposition of one proposed match.
type CandidateStatus string

const (
	CandidatePending           CandidateStatus = "PENDING"
	CandidateAccepted          CandidateStatus = "ACCEPTED"
	CandidatePartiallyAccepted CandidateStatus = "PARTIALLY_ACCEPTED"
	CandidateWrittenOff        CandidateStatus = "WRITTEN_OFF"
	CandidateRejected          CandidateStatus = "REJECTED"
)

// MatchCandidate pairs one bank transaction with one ledger entry together
// with the similarity score that proposed the pairing.
type MatchCandidate struct {
	CandidateID         string          `json:"candidateID"` // Primary Key (UUID)
	SessionID           string          `json:"sessionID"`
	TransactionID       string          `json:"transactionID"` // Bank transaction
	EntryID             string          `json:"entryID"`       // Ledger entry
	Score               float64         `json:"score"`         // 0..1
	Status              CandidateStatus `json:"status"`
	AmountDeltaMinor    int64           `json:"amountDeltaMinor"` // abs(txn - entry)
	DateDeltaDays       int             `json:"dateDeltaDays"`
	WriteOffApprovalRef string          `json:"writeOffApprovalRef,omitempty"`
	MatchGroupID        string          `json:"matchGroupID,omitempty"` // Shared across a partial-accept split
	ProposedAt          time.Time       `json:"proposedAt"`
}

// SessionStatus is the lifecycle state of a reconciliation session.
type SessionStatus string

const (
	SessionOpen           SessionStatus = "OPEN"
	SessionPendingPartial SessionStatus = "PENDING_PARTIAL"
	SessionClosed         SessionStatus = "CLOSED"
)

// ReconciliationSession scopes matching work to one bank account and period.
type ReconciliationSession struct {
	SessionID     string        `json:"sessionID"` // Primary Key (UUID)
	CompanyID     string        `json:"companyID"`
	BankAccountID string        `json:"bankAccountID"`
	FiscalYear    int           `json:"fiscalYear"`
	Period        int           `json:"period"`
	Status        SessionStatus `json:"status"`
	AuditFields
}

// SessionSummary reports matching progress for a session.
type SessionSummary struct {
	SessionID  string `json:"sessionID"`
	Matched    int    `json:"matched"` // Accepted plus partially accepted
	Pending    int    `json:"pending"`
	WrittenOff int    `json:"writtenOff"`
	Rejected   int    `json:"rejected"`
}

// CoverageRatio is matched over matched-plus-pending; zero when the session
// has no candidates in either bucket.
func (s SessionSummary) CoverageRatio() float64 {
	total := s.Matched + s.Pending
	if total == 0 {
		return 0
	}
	return float64(s.Matched) / float64(total)
}
