package repositories

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// SessionReader defines read operations for reconciliation sessions
type SessionReader interface {
	// FindSessionByID retrieves a session.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)

	// ListSessionsByCompany retrieves all sessions for a company.
	ListSessionsByCompany(ctx context.Context, companyID string) ([]domain.ReconciliationSession, error)
}

// SessionWriter defines write operations for reconciliation sessions
type SessionWriter interface {
	// SaveSession persists a new session.
	SaveSession(ctx context.Context, session domain.ReconciliationSession) error

	// UpdateSessionStatus moves a session between lifecycle states.
	UpdateSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus, updatedBy string) error
}

// CandidateReader defines read operations for match candidates
type CandidateReader interface {
	// FindCandidateByID retrieves one candidate.
	FindCandidateByID(ctx context.Context, candidateID string) (*domain.MatchCandidate, error)

	// ListCandidatesBySession retrieves all candidates of a session ordered
	// by descending score.
	ListCandidatesBySession(ctx context.Context, sessionID string) ([]domain.MatchCandidate, error)
}

// CandidateWriter defines write operations for match candidates
type CandidateWriter interface {
	// SaveCandidates persists a batch of proposed candidates atomically.
	SaveCandidates(ctx context.Context, candidates []domain.MatchCandidate) error

	// UpdateCandidate replaces the mutable fields of a candidate.
	UpdateCandidate(ctx context.Context, candidate domain.MatchCandidate) error
}

// ReconciliationRepositoryFacade combines session and candidate interfaces
type ReconciliationRepositoryFacade interface {
	SessionReader
	SessionWriter
	CandidateReader
	CandidateWriter
}
