package services

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
)

// ReconciliationSvcFacade manages matching sessions and candidate
// dispositions. All candidate mutations for one session are serialized.
type ReconciliationSvcFacade interface {
	// CreateSession opens a session and generates scored match candidates
	// for the bank account's unreconciled transactions.
	CreateSession(ctx context.Context, companyID string, req dto.CreateSessionRequest, actor string) (*domain.ReconciliationSession, error)

	// GetSession retrieves one session.
	GetSession(ctx context.Context, companyID string, sessionID string) (*domain.ReconciliationSession, error)

	// ListCandidates retrieves a session's candidates by descending score.
	ListCandidates(ctx context.Context, companyID string, sessionID string) ([]domain.MatchCandidate, error)

	// AcceptCandidate marks both sides of a pending candidate reconciled.
	AcceptCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, actor string) (*domain.MatchCandidate, error)

	// PartiallyAcceptCandidate splits a transaction across entries.
	// Allocations must sum exactly to the transaction amount.
	PartiallyAcceptCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, req dto.PartialAcceptRequest, actor string) (*domain.MatchCandidate, error)

	// WriteOffCandidate resolves a candidate with a mandatory approval
	// reference. A blank reference fails and changes nothing.
	WriteOffCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, req dto.WriteOffRequest, actor string) (*domain.MatchCandidate, error)

	// RejectCandidate discards a proposed pairing, leaving both sides
	// unreconciled.
	RejectCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, actor string) (*domain.MatchCandidate, error)

	// ReopenSession resets every candidate to pending and clears the
	// reconciliation marks the session had applied.
	ReopenSession(ctx context.Context, companyID string, sessionID string, actor string) (*domain.ReconciliationSession, error)

	// SessionSummary reports matched/pending counts and coverage.
	SessionSummary(ctx context.Context, companyID string, sessionID string) (*domain.SessionSummary, error)
}
