package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/telemetry"
)

// reconciliationService manages matching sessions. Candidate mutations of
// one session run under a per-session mutex, so concurrent dispositions of
// the same candidate resolve one at a time.
type reconciliationService struct {
	accountRepo portsrepo.AccountReader
	bankRepo    portsrepo.BankTransactionRepositoryFacade
	reconRepo   portsrepo.ReconciliationRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	auditSvc    portssvc.AuditRecorderSvc
	counters    *telemetry.Counters
	matcher     *matcher

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(accountRepo portsrepo.AccountReader, bankRepo portsrepo.BankTransactionRepositoryFacade, reconRepo portsrepo.ReconciliationRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, auditSvc portssvc.AuditRecorderSvc, counters *telemetry.Counters, matcherCfg MatcherConfig) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		accountRepo:  accountRepo,
		bankRepo:     bankRepo,
		reconRepo:    reconRepo,
		ledgerRepo:   ledgerRepo,
		auditSvc:     auditSvc,
		counters:     counters,
		matcher:      newMatcher(matcherCfg),
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// Ensure reconciliationService implements the portssvc.ReconciliationSvcFacade interface
var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

// CreateSession opens a session and proposes scored candidates for the bank
// account's unreconciled transactions against its unreconciled entries.
func (s *reconciliationService) CreateSession(ctx context.Context, companyID string, req dto.CreateSessionRequest, actor string) (*domain.ReconciliationSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, companyID, req.BankAccountID); err != nil {
		return nil, err
	}

	transactions, err := s.bankRepo.ListUnreconciledBankTransactions(ctx, companyID, req.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	entries, err := s.ledgerRepo.ListUnreconciledEntries(ctx, companyID, req.BankAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled entries: %w", err)
	}

	now := time.Now().UTC()
	session := domain.ReconciliationSession{
		SessionID:     uuid.NewString(),
		CompanyID:     companyID,
		BankAccountID: req.BankAccountID,
		FiscalYear:    req.FiscalYear,
		Period:        req.Period,
		Status:        domain.SessionOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if err := s.reconRepo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	candidates := s.matcher.Propose(session.SessionID, transactions, entries, req.BankAccountID, now)
	if len(candidates) > 0 {
		if err := s.reconRepo.SaveCandidates(ctx, candidates); err != nil {
			return nil, fmt.Errorf("failed to save candidates: %w", err)
		}
	}
	s.counters.AddCandidatesProposed(uint64(len(candidates)))

	detail := fmt.Sprintf(`{"bankAccountID":%q,"candidates":%d}`, req.BankAccountID, len(candidates))
	if _, err := s.auditSvc.Record(ctx, companyID, "reconciliation_session", session.SessionID, domain.AuditSessionCreated, actor, detail); err != nil {
		return nil, err
	}

	logger.Info("Reconciliation session created",
		slog.String("session_id", session.SessionID),
		slog.String("bank_account_id", req.BankAccountID),
		slog.Int("candidates", len(candidates)))
	return &session, nil
}

// GetSession retrieves one session.
func (s *reconciliationService) GetSession(ctx context.Context, companyID string, sessionID string) (*domain.ReconciliationSession, error) {
	return s.findSession(ctx, companyID, sessionID)
}

func (s *reconciliationService) findSession(ctx context.Context, companyID string, sessionID string) (*domain.ReconciliationSession, error) {
	session, err := s.reconRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CompanyID != companyID {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return session, nil
}

// ListCandidates retrieves a session's candidates by descending score.
func (s *reconciliationService) ListCandidates(ctx context.Context, companyID string, sessionID string) ([]domain.MatchCandidate, error) {
	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}
	return s.reconRepo.ListCandidatesBySession(ctx, sessionID)
}

// pendingCandidate loads a candidate and verifies it belongs to the session
// and is still open for disposition.
func (s *reconciliationService) pendingCandidate(ctx context.Context, sessionID string, candidateID string) (*domain.MatchCandidate, error) {
	candidate, err := s.reconRepo.FindCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.SessionID != sessionID {
		return nil, fmt.Errorf("%w: candidate %s", apperrors.ErrNotFound, candidateID)
	}
	if candidate.Status != domain.CandidatePending {
		return nil, fmt.Errorf("%w: candidate %s is %s", apperrors.ErrState, candidateID, candidate.Status)
	}
	return candidate, nil
}

// guardSides rejects a disposition when either side of the candidate was
// already matched through another candidate.
func (s *reconciliationService) guardSides(ctx context.Context, companyID string, candidate *domain.MatchCandidate) (*domain.BankTransaction, *domain.JournalEntry, error) {
	txn, err := s.bankRepo.FindBankTransactionByID(ctx, candidate.TransactionID)
	if err != nil {
		return nil, nil, err
	}
	if txn.Reconciled {
		return nil, nil, fmt.Errorf("%w: transaction %s", apperrors.ErrAlreadyMatched, txn.TransactionID)
	}
	entry, err := s.ledgerRepo.FindEntryByID(ctx, companyID, candidate.EntryID)
	if err != nil {
		return nil, nil, err
	}
	if entry.ReconciliationStatus != domain.Unreconciled {
		return nil, nil, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyMatched, entry.EntryID)
	}
	return txn, entry, nil
}

// AcceptCandidate marks both sides of a pending candidate reconciled.
func (s *reconciliationService) AcceptCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, actor string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	candidate, err := s.pendingCandidate(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	txn, entry, err := s.guardSides(ctx, companyID, candidate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.bankRepo.UpdateBankTransactionReconciled(ctx, txn.TransactionID, true, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark transaction reconciled: %w", err)
	}
	if err := s.ledgerRepo.UpdateEntryReconciliation(ctx, entry.EntryID, domain.Reconciled, candidate.CandidateID, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark entry reconciled: %w", err)
	}

	candidate.Status = domain.CandidateAccepted
	if err := s.reconRepo.UpdateCandidate(ctx, *candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}

	if _, err := s.auditSvc.Record(ctx, companyID, "match_candidate", candidate.CandidateID, domain.AuditCandidateAccepted, actor, ""); err != nil {
		return nil, err
	}
	s.counters.IncCandidatesAccepted()

	logger.Info("Candidate accepted", slog.String("candidate_id", candidate.CandidateID), slog.String("session_id", sessionID))
	return candidate, nil
}

// PartiallyAcceptCandidate splits the candidate's bank transaction across
// several entries. The allocations must cover the transaction amount
// exactly; the session moves to PENDING_PARTIAL.
func (s *reconciliationService) PartiallyAcceptCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, req dto.PartialAcceptRequest, actor string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	candidate, err := s.pendingCandidate(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	txn, _, err := s.guardSides(ctx, companyID, candidate)
	if err != nil {
		return nil, err
	}

	// The candidate's own entry must head the allocation list.
	if len(req.Allocations) == 0 || req.Allocations[0].EntryID != candidate.EntryID {
		return nil, fmt.Errorf("%w: first allocation must reference entry %s", apperrors.ErrValidation, candidate.EntryID)
	}

	var total int64
	entryIDs := make(map[string]bool, len(req.Allocations))
	entries := make([]*domain.JournalEntry, len(req.Allocations))
	for i, allocation := range req.Allocations {
		if allocation.AmountMinor == 0 {
			return nil, fmt.Errorf("%w: allocation %d amount must be non-zero", apperrors.ErrValidation, i+1)
		}
		if entryIDs[allocation.EntryID] {
			return nil, fmt.Errorf("%w: entry %s allocated twice", apperrors.ErrValidation, allocation.EntryID)
		}
		entryIDs[allocation.EntryID] = true

		entry, err := s.ledgerRepo.FindEntryByID(ctx, companyID, allocation.EntryID)
		if err != nil {
			return nil, err
		}
		if entry.ReconciliationStatus != domain.Unreconciled {
			return nil, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyMatched, entry.EntryID)
		}
		entries[i] = entry
		total += allocation.AmountMinor
	}
	if total != txn.AmountMinor {
		return nil, fmt.Errorf("%w: allocations sum to %d, transaction amount is %d", apperrors.ErrValidation, total, txn.AmountMinor)
	}

	now := time.Now().UTC()
	groupID := uuid.NewString()
	if err := s.bankRepo.UpdateBankTransactionReconciled(ctx, txn.TransactionID, true, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark transaction reconciled: %w", err)
	}
	for _, entry := range entries {
		if err := s.ledgerRepo.UpdateEntryReconciliation(ctx, entry.EntryID, domain.Reconciled, candidate.CandidateID, actor, now); err != nil {
			return nil, fmt.Errorf("failed to mark entry reconciled: %w", err)
		}
	}

	candidate.Status = domain.CandidatePartiallyAccepted
	candidate.MatchGroupID = groupID
	if err := s.reconRepo.UpdateCandidate(ctx, *candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}
	if err := s.reconRepo.UpdateSessionStatus(ctx, sessionID, domain.SessionPendingPartial, actor); err != nil {
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}

	detail := fmt.Sprintf(`{"matchGroupID":%q,"allocations":%d}`, groupID, len(req.Allocations))
	if _, err := s.auditSvc.Record(ctx, companyID, "match_candidate", candidate.CandidateID, domain.AuditCandidatePartial, actor, detail); err != nil {
		return nil, err
	}
	s.counters.IncCandidatesAccepted()

	logger.Info("Candidate partially accepted",
		slog.String("candidate_id", candidate.CandidateID),
		slog.String("match_group_id", groupID),
		slog.Int("allocations", len(req.Allocations)))
	return candidate, nil
}

// WriteOffCandidate resolves a candidate as noise. A blank approval
// reference fails before anything is touched.
func (s *reconciliationService) WriteOffCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, req dto.WriteOffRequest, actor string) (*domain.MatchCandidate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ApprovalReference) == "" {
		return nil, fmt.Errorf("%w: write-off of candidate %s", apperrors.ErrMissingApproval, candidateID)
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	candidate, err := s.pendingCandidate(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}
	txn, entry, err := s.guardSides(ctx, companyID, candidate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.bankRepo.UpdateBankTransactionReconciled(ctx, txn.TransactionID, true, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark transaction reconciled: %w", err)
	}
	if err := s.ledgerRepo.UpdateEntryReconciliation(ctx, entry.EntryID, domain.WrittenOff, candidate.CandidateID, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark entry written off: %w", err)
	}

	candidate.Status = domain.CandidateWrittenOff
	candidate.WriteOffApprovalRef = req.ApprovalReference
	if err := s.reconRepo.UpdateCandidate(ctx, *candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}

	detail := fmt.Sprintf(`{"approvalReference":%q}`, req.ApprovalReference)
	if _, err := s.auditSvc.Record(ctx, companyID, "match_candidate", candidate.CandidateID, domain.AuditCandidateWrittenOf, actor, detail); err != nil {
		return nil, err
	}
	s.counters.IncCandidatesWrittenOff()

	logger.Info("Candidate written off", slog.String("candidate_id", candidate.CandidateID))
	return candidate, nil
}

// RejectCandidate discards a proposed pairing; both sides stay available
// for other candidates.
func (s *reconciliationService) RejectCandidate(ctx context.Context, companyID string, sessionID string, candidateID string, actor string) (*domain.MatchCandidate, error) {
	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	candidate, err := s.pendingCandidate(ctx, sessionID, candidateID)
	if err != nil {
		return nil, err
	}

	candidate.Status = domain.CandidateRejected
	if err := s.reconRepo.UpdateCandidate(ctx, *candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}
	if _, err := s.auditSvc.Record(ctx, companyID, "match_candidate", candidate.CandidateID, domain.AuditCandidateRejected, actor, ""); err != nil {
		return nil, err
	}
	s.counters.IncCandidatesRejected()
	return candidate, nil
}

// ReopenSession resets every candidate to pending and unwinds the
// reconciliation marks the session had applied to either side.
func (s *reconciliationService) ReopenSession(ctx context.Context, companyID string, sessionID string, actor string) (*domain.ReconciliationSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.findSession(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	candidates, err := s.reconRepo.ListCandidatesBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	now := time.Now().UTC()
	for i := range candidates {
		candidate := candidates[i]
		switch candidate.Status {
		case domain.CandidatePending:
			continue
		case domain.CandidateAccepted, domain.CandidatePartiallyAccepted, domain.CandidateWrittenOff:
			if err := s.bankRepo.UpdateBankTransactionReconciled(ctx, candidate.TransactionID, false, actor, now); err != nil {
				return nil, fmt.Errorf("failed to unwind transaction: %w", err)
			}
			entries, err := s.ledgerRepo.ListEntriesByMatchCandidate(ctx, companyID, candidate.CandidateID)
			if err != nil {
				return nil, fmt.Errorf("failed to load matched entries: %w", err)
			}
			for _, entry := range entries {
				if err := s.ledgerRepo.UpdateEntryReconciliation(ctx, entry.EntryID, domain.Unreconciled, "", actor, now); err != nil {
					return nil, fmt.Errorf("failed to unwind entry: %w", err)
				}
			}
		}

		candidate.Status = domain.CandidatePending
		candidate.WriteOffApprovalRef = ""
		candidate.MatchGroupID = ""
		if err := s.reconRepo.UpdateCandidate(ctx, candidate); err != nil {
			return nil, fmt.Errorf("failed to reset candidate: %w", err)
		}
	}

	if err := s.reconRepo.UpdateSessionStatus(ctx, sessionID, domain.SessionOpen, actor); err != nil {
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}
	session.Status = domain.SessionOpen

	if _, err := s.auditSvc.Record(ctx, companyID, "reconciliation_session", sessionID, domain.AuditSessionReopened, actor, ""); err != nil {
		return nil, err
	}
	s.counters.IncSessionsReopened()

	logger.Info("Session reopened", slog.String("session_id", sessionID), slog.Int("candidates_reset", len(candidates)))
	return session, nil
}

// SessionSummary reports matched/pending counts for a session.
func (s *reconciliationService) SessionSummary(ctx context.Context, companyID string, sessionID string) (*domain.SessionSummary, error) {
	if _, err := s.findSession(ctx, companyID, sessionID); err != nil {
		return nil, err
	}
	candidates, err := s.reconRepo.ListCandidatesBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	summary := domain.SessionSummary{SessionID: sessionID}
	for _, candidate := range candidates {
		switch candidate.Status {
		case domain.CandidatePending:
			summary.Pending++
		case domain.CandidateAccepted, domain.CandidatePartiallyAccepted:
			summary.Matched++
		case domain.CandidateWrittenOff:
			summary.WrittenOff++
		case domain.CandidateRejected:
			summary.Rejected++
		}
	}
	return &summary, nil
}
