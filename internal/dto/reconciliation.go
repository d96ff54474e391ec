package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// CreateSessionRequest opens a reconciliation session for one bank account
// and period. Candidate generation happens as part of session creation.
type CreateSessionRequest struct {
	BankAccountID string `json:"bankAccountID" binding:"required"`
	FiscalYear    int    `json:"fiscalYear" binding:"required"`
	Period        int    `json:"period" binding:"required,min=1"`
}

// SessionResponse mirrors domain.ReconciliationSession.
type SessionResponse struct {
	SessionID     string               `json:"sessionID"`
	CompanyID     string               `json:"companyID"`
	BankAccountID string               `json:"bankAccountID"`
	FiscalYear    int                  `json:"fiscalYear"`
	Period        int                  `json:"period"`
	Status        domain.SessionStatus `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
}

// ToSessionResponse converts a domain.ReconciliationSession to its DTO.
func ToSessionResponse(s *domain.ReconciliationSession) SessionResponse {
	return SessionResponse{
		SessionID:     s.SessionID,
		CompanyID:     s.CompanyID,
		BankAccountID: s.BankAccountID,
		FiscalYear:    s.FiscalYear,
		Period:        s.Period,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
		CreatedBy:     s.CreatedBy,
	}
}

// CandidateResponse mirrors domain.MatchCandidate.
type CandidateResponse struct {
	CandidateID      string                 `json:"candidateID"`
	SessionID        string                 `json:"sessionID"`
	TransactionID    string                 `json:"transactionID"`
	EntryID          string                 `json:"entryID"`
	Score            float64                `json:"score"`
	Status           domain.CandidateStatus `json:"status"`
	AmountDeltaMinor int64                  `json:"amountDeltaMinor"`
	DateDeltaDays    int                    `json:"dateDeltaDays"`
	MatchGroupID     string                 `json:"matchGroupID,omitempty"`
	ProposedAt       time.Time              `json:"proposedAt"`
}

// ToCandidateResponse converts a domain.MatchCandidate to its DTO.
func ToCandidateResponse(c *domain.MatchCandidate) CandidateResponse {
	return CandidateResponse{
		CandidateID:      c.CandidateID,
		SessionID:        c.SessionID,
		TransactionID:    c.TransactionID,
		EntryID:          c.EntryID,
		Score:            c.Score,
		Status:           c.Status,
		AmountDeltaMinor: c.AmountDeltaMinor,
		DateDeltaDays:    c.DateDeltaDays,
		MatchGroupID:     c.MatchGroupID,
		ProposedAt:       c.ProposedAt,
	}
}

// ListCandidatesResponse wraps a session's candidates.
type ListCandidatesResponse struct {
	Candidates []CandidateResponse `json:"candidates"`
}

// Allocation assigns part of a bank transaction's amount to one entry
// during a partial accept.
type Allocation struct {
	EntryID     string `json:"entryID" binding:"required"`
	AmountMinor int64  `json:"amountMinor" binding:"required"`
}

// PartialAcceptRequest splits one bank transaction across several entries.
// Allocations must sum exactly to the transaction amount.
type PartialAcceptRequest struct {
	Allocations []Allocation `json:"allocations" binding:"required,min=1,dive"`
}

// WriteOffRequest resolves a candidate as uncollectable noise.
// The approval reference is mandatory.
type WriteOffRequest struct {
	ApprovalReference string `json:"approvalReference"`
}

// SessionSummaryResponse reports session progress and coverage.
type SessionSummaryResponse struct {
	SessionID     string  `json:"sessionID"`
	Matched       int     `json:"matched"`
	Pending       int     `json:"pending"`
	WrittenOff    int     `json:"writtenOff"`
	Rejected      int     `json:"rejected"`
	CoverageRatio float64 `json:"coverageRatio"`
}
