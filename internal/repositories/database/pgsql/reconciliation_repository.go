package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxReconciliationRepository implements portsrepo.ReconciliationRepositoryFacade
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) SaveSession(ctx context.Context, session domain.ReconciliationSession) error {
	query := `
		INSERT INTO reconciliation_sessions (session_id, company_id, bank_account_id, fiscal_year, period, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		session.SessionID,
		session.CompanyID,
		session.BankAccountID,
		session.FiscalYear,
		session.Period,
		session.Status,
		session.CreatedAt,
		session.CreatedBy,
		session.LastUpdatedAt,
		session.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.SessionID, err)
	}
	return nil
}

func (r *PgxReconciliationRepository) UpdateSessionStatus(ctx context.Context, sessionID string, status domain.SessionStatus, updatedBy string) error {
	query := `
		UPDATE reconciliation_sessions
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE session_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, sessionID, status, time.Now().UTC(), updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return nil
}

func (r *PgxReconciliationRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	query := `
		SELECT session_id, company_id, bank_account_id, fiscal_year, period, status, created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliation_sessions
		WHERE session_id = $1;
	`
	var session domain.ReconciliationSession
	err := r.Pool.QueryRow(ctx, query, sessionID).Scan(
		&session.SessionID,
		&session.CompanyID,
		&session.BankAccountID,
		&session.FiscalYear,
		&session.Period,
		&session.Status,
		&session.CreatedAt,
		&session.CreatedBy,
		&session.LastUpdatedAt,
		&session.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNoRows(err, "session "+sessionID)
	}
	return &session, nil
}

func (r *PgxReconciliationRepository) ListSessionsByCompany(ctx context.Context, companyID string) ([]domain.ReconciliationSession, error) {
	query := `
		SELECT session_id, company_id, bank_account_id, fiscal_year, period, status, created_at, created_by, last_updated_at, last_updated_by
		FROM reconciliation_sessions
		WHERE company_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ReconciliationSession
	for rows.Next() {
		var session domain.ReconciliationSession
		if err := rows.Scan(
			&session.SessionID,
			&session.CompanyID,
			&session.BankAccountID,
			&session.FiscalYear,
			&session.Period,
			&session.Status,
			&session.CreatedAt,
			&session.CreatedBy,
			&session.LastUpdatedAt,
			&session.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

const candidateColumns = `candidate_id, session_id, transaction_id, entry_id, score, status, amount_delta_minor, date_delta_days, write_off_approval_ref, match_group_id, proposed_at`

func scanCandidate(row interface{ Scan(...any) error }) (*domain.MatchCandidate, error) {
	var candidate domain.MatchCandidate
	var approvalRef, groupID *string
	err := row.Scan(
		&candidate.CandidateID,
		&candidate.SessionID,
		&candidate.TransactionID,
		&candidate.EntryID,
		&candidate.Score,
		&candidate.Status,
		&candidate.AmountDeltaMinor,
		&candidate.DateDeltaDays,
		&approvalRef,
		&groupID,
		&candidate.ProposedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvalRef != nil {
		candidate.WriteOffApprovalRef = *approvalRef
	}
	if groupID != nil {
		candidate.MatchGroupID = *groupID
	}
	return &candidate, nil
}

func (r *PgxReconciliationRepository) SaveCandidates(ctx context.Context, candidates []domain.MatchCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO match_candidates (` + candidateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, candidate := range candidates {
		if _, err := tx.Exec(ctx, query,
			candidate.CandidateID,
			candidate.SessionID,
			candidate.TransactionID,
			candidate.EntryID,
			candidate.Score,
			candidate.Status,
			candidate.AmountDeltaMinor,
			candidate.DateDeltaDays,
			nullable(candidate.WriteOffApprovalRef),
			nullable(candidate.MatchGroupID),
			candidate.ProposedAt,
		); err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", candidate.CandidateID, err)
		}
	}
	return r.Commit(ctx, tx)
}

func (r *PgxReconciliationRepository) UpdateCandidate(ctx context.Context, candidate domain.MatchCandidate) error {
	query := `
		UPDATE match_candidates
		SET status = $2, write_off_approval_ref = $3, match_group_id = $4
		WHERE candidate_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		candidate.CandidateID,
		candidate.Status,
		nullable(candidate.WriteOffApprovalRef),
		nullable(candidate.MatchGroupID),
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate %s: %w", candidate.CandidateID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: candidate %s", apperrors.ErrNotFound, candidate.CandidateID)
	}
	return nil
}

func (r *PgxReconciliationRepository) FindCandidateByID(ctx context.Context, candidateID string) (*domain.MatchCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM match_candidates WHERE candidate_id = $1;`
	candidate, err := scanCandidate(r.Pool.QueryRow(ctx, query, candidateID))
	if err != nil {
		return nil, mapNoRows(err, "candidate "+candidateID)
	}
	return candidate, nil
}

func (r *PgxReconciliationRepository) ListCandidatesBySession(ctx context.Context, sessionID string) ([]domain.MatchCandidate, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM match_candidates
		WHERE session_id = $1
		ORDER BY score DESC, amount_delta_minor, date_delta_days, transaction_id, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.MatchCandidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, *candidate)
	}
	return candidates, rows.Err()
}
