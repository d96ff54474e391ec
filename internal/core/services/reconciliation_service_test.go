package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statementDate = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

// ingestDeposit stores one positive statement row on the cash account.
func ingestDeposit(t *testing.T, env *testEnv, amount string, description string, reference string) {
	t.Helper()
	payload := fmt.Sprintf("date,description,amount,currency,reference\n2025-03-10,%s,%s,USD,%s\n", description, amount, reference)
	_, err := env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		Payload:       payload,
	}, "tester")
	require.NoError(t, err)
}

func openSession(t *testing.T, env *testEnv) *domain.ReconciliationSession {
	t.Helper()
	session, err := env.services.Reconciliation.CreateSession(env.ctx, env.company.CompanyID, dto.CreateSessionRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		FiscalYear:    2025,
		Period:        3,
	}, "tester")
	require.NoError(t, err)
	return session
}

func sessionCandidates(t *testing.T, env *testEnv, sessionID string) []domain.MatchCandidate {
	t.Helper()
	candidates, err := env.services.Reconciliation.ListCandidates(env.ctx, env.company.CompanyID, sessionID)
	require.NoError(t, err)
	return candidates
}

func candidateForEntry(t *testing.T, candidates []domain.MatchCandidate, entryID string) domain.MatchCandidate {
	t.Helper()
	for _, candidate := range candidates {
		if candidate.EntryID == entryID {
			return candidate
		}
	}
	t.Fatalf("no candidate for entry %s", entryID)
	return domain.MatchCandidate{}
}

func reloadEntry(t *testing.T, env *testEnv, entryID string) *domain.JournalEntry {
	t.Helper()
	entry, err := env.services.Ledger.GetEntryByID(env.ctx, env.company.CompanyID, entryID)
	require.NoError(t, err)
	return entry
}

func bankTransaction(t *testing.T, env *testEnv, reference string) domain.BankTransaction {
	t.Helper()
	txns, err := env.services.Ingest.ListBankTransactions(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	for _, txn := range txns {
		if txn.SourceReference == reference {
			return txn
		}
	}
	t.Fatalf("no bank transaction with reference %s", reference)
	return domain.BankTransaction{}
}

func TestCreateSession_ProposesScoredCandidates(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)

	session := openSession(t, env)
	assert.Equal(t, domain.SessionOpen, session.Status)
	assert.Equal(t, 2025, session.FiscalYear)

	candidates := sessionCandidates(t, env, session.SessionID)
	require.Len(t, candidates, 1)
	assert.Equal(t, entry.EntryID, candidates[0].EntryID)
	assert.Equal(t, domain.CandidatePending, candidates[0].Status)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
}

func TestAcceptCandidate_MarksBothSides(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	session := openSession(t, env)
	candidate := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), entry.EntryID)

	accepted, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateAccepted, accepted.Status)

	assert.True(t, bankTransaction(t, env, "ref-1").Reconciled)
	reloaded := reloadEntry(t, env, entry.EntryID)
	assert.Equal(t, domain.Reconciled, reloaded.ReconciliationStatus)
	assert.Equal(t, candidate.CandidateID, reloaded.MatchCandidateID)
}

func TestAcceptCandidate_SharedSideConflicts(t *testing.T) {
	env := newTestEnv(t)

	// Two statement rows both plausible for the same entry.
	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	ingestDeposit(t, env, "150.00", "acme invoice 42 again", "ref-2")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	session := openSession(t, env)

	candidates := sessionCandidates(t, env, session.SessionID)
	require.Len(t, candidates, 2)
	for _, candidate := range candidates {
		assert.Equal(t, entry.EntryID, candidate.EntryID)
	}

	_, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidates[0].CandidateID, "tester")
	require.NoError(t, err)

	_, err = env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidates[1].CandidateID, "tester")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMatched, "the entry side is already spoken for")
}

func TestAcceptCandidate_NonPendingRejected(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	session := openSession(t, env)
	candidate := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), entry.EntryID)

	_, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, "tester")
	require.NoError(t, err)

	_, err = env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, "tester")
	assert.ErrorIs(t, err, apperrors.ErrState, "a settled candidate cannot be dispositioned again")
}

func TestWriteOffCandidate_RequiresApproval(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	session := openSession(t, env)
	candidate := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), entry.EntryID)

	_, err := env.services.Reconciliation.WriteOffCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, dto.WriteOffRequest{ApprovalReference: "  "}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrMissingApproval)

	// Nothing moved.
	assert.False(t, bankTransaction(t, env, "ref-1").Reconciled)
	assert.Equal(t, domain.Unreconciled, reloadEntry(t, env, entry.EntryID).ReconciliationStatus)
	refreshed := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), entry.EntryID)
	assert.Equal(t, domain.CandidatePending, refreshed.Status)

	writtenOff, err := env.services.Reconciliation.WriteOffCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, dto.WriteOffRequest{ApprovalReference: "CFO-77"}, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateWrittenOff, writtenOff.Status)
	assert.Equal(t, "CFO-77", writtenOff.WriteOffApprovalRef)
	assert.True(t, bankTransaction(t, env, "ref-1").Reconciled)
	assert.Equal(t, domain.WrittenOff, reloadEntry(t, env, entry.EntryID).ReconciliationStatus)
}

func TestRejectCandidate_LeavesSidesAvailable(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	entry := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	session := openSession(t, env)
	candidate := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), entry.EntryID)

	rejected, err := env.services.Reconciliation.RejectCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateRejected, rejected.Status)

	assert.False(t, bankTransaction(t, env, "ref-1").Reconciled)
	assert.Equal(t, domain.Unreconciled, reloadEntry(t, env, entry.EntryID).ReconciliationStatus)

	// A fresh session proposes the pair again.
	next := openSession(t, env)
	assert.Len(t, sessionCandidates(t, env, next.SessionID), 1)
}

func TestPartiallyAcceptCandidate(t *testing.T) {
	env := newTestEnv(t)

	// One deposit covering two invoices.
	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	first := env.postSimpleEntry(t, "acme invoice 42", statementDate, 10000)
	second := env.postSimpleEntry(t, "acme invoice 42 balance", statementDate, 5000)
	session := openSession(t, env)
	candidate := candidateForEntry(t, sessionCandidates(t, env, session.SessionID), first.EntryID)

	// The candidate's own entry must lead the allocations.
	_, err := env.services.Reconciliation.PartiallyAcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, dto.PartialAcceptRequest{
		Allocations: []dto.Allocation{{EntryID: second.EntryID, AmountMinor: 5000}, {EntryID: first.EntryID, AmountMinor: 10000}},
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Allocations must cover the transaction exactly.
	_, err = env.services.Reconciliation.PartiallyAcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, dto.PartialAcceptRequest{
		Allocations: []dto.Allocation{{EntryID: first.EntryID, AmountMinor: 10000}, {EntryID: second.EntryID, AmountMinor: 4000}},
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	split, err := env.services.Reconciliation.PartiallyAcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidate.CandidateID, dto.PartialAcceptRequest{
		Allocations: []dto.Allocation{{EntryID: first.EntryID, AmountMinor: 10000}, {EntryID: second.EntryID, AmountMinor: 5000}},
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidatePartiallyAccepted, split.Status)
	assert.NotEmpty(t, split.MatchGroupID)

	assert.True(t, bankTransaction(t, env, "ref-1").Reconciled)
	assert.Equal(t, domain.Reconciled, reloadEntry(t, env, first.EntryID).ReconciliationStatus)
	assert.Equal(t, domain.Reconciled, reloadEntry(t, env, second.EntryID).ReconciliationStatus)

	reloadedSession, err := env.services.Reconciliation.GetSession(env.ctx, env.company.CompanyID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPendingPartial, reloadedSession.Status)
}

func TestReopenSession_UnwindsEverything(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	ingestDeposit(t, env, "60.00", "office cleaning", "ref-2")
	accepted := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	written := env.postSimpleEntry(t, "office cleaning", statementDate, 6000)
	session := openSession(t, env)

	candidates := sessionCandidates(t, env, session.SessionID)
	acceptedCand := candidateForEntry(t, candidates, accepted.EntryID)
	writtenCand := candidateForEntry(t, candidates, written.EntryID)

	_, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, acceptedCand.CandidateID, "tester")
	require.NoError(t, err)
	_, err = env.services.Reconciliation.WriteOffCandidate(env.ctx, env.company.CompanyID, session.SessionID, writtenCand.CandidateID, dto.WriteOffRequest{ApprovalReference: "CFO-77"}, "tester")
	require.NoError(t, err)

	reopened, err := env.services.Reconciliation.ReopenSession(env.ctx, env.company.CompanyID, session.SessionID, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionOpen, reopened.Status)

	for _, candidate := range sessionCandidates(t, env, session.SessionID) {
		assert.Equal(t, domain.CandidatePending, candidate.Status)
		assert.Empty(t, candidate.WriteOffApprovalRef)
		assert.Empty(t, candidate.MatchGroupID)
	}
	assert.False(t, bankTransaction(t, env, "ref-1").Reconciled)
	assert.False(t, bankTransaction(t, env, "ref-2").Reconciled)
	assert.Equal(t, domain.Unreconciled, reloadEntry(t, env, accepted.EntryID).ReconciliationStatus)
	assert.Equal(t, domain.Unreconciled, reloadEntry(t, env, written.EntryID).ReconciliationStatus)
}

func TestReopenSession_LeavesOtherSessionsAlone(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	ingestDeposit(t, env, "60.00", "office cleaning", "ref-2")
	invoice := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	cleaning := env.postSimpleEntry(t, "office cleaning", statementDate, 6000)

	first := openSession(t, env)
	second := openSession(t, env)

	// Disposition in each session: accept in the first, reject in the second.
	_, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, first.SessionID,
		candidateForEntry(t, sessionCandidates(t, env, first.SessionID), invoice.EntryID).CandidateID, "tester")
	require.NoError(t, err)
	rejected := candidateForEntry(t, sessionCandidates(t, env, second.SessionID), cleaning.EntryID)
	_, err = env.services.Reconciliation.RejectCandidate(env.ctx, env.company.CompanyID, second.SessionID, rejected.CandidateID, "tester")
	require.NoError(t, err)

	_, err = env.services.Reconciliation.ReopenSession(env.ctx, env.company.CompanyID, first.SessionID, "tester")
	require.NoError(t, err)

	// The second session's candidates keep their dispositions.
	refreshed := candidateForEntry(t, sessionCandidates(t, env, second.SessionID), cleaning.EntryID)
	assert.Equal(t, domain.CandidateRejected, refreshed.Status, "reopen resets only its own session")

	reloadedSecond, err := env.services.Reconciliation.GetSession(env.ctx, env.company.CompanyID, second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionOpen, reloadedSecond.Status)

	summary, err := env.services.Reconciliation.SessionSummary(env.ctx, env.company.CompanyID, second.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 0, summary.Matched)
}

func TestSessionSummary(t *testing.T) {
	env := newTestEnv(t)

	ingestDeposit(t, env, "150.00", "acme invoice 42", "ref-1")
	ingestDeposit(t, env, "60.00", "office cleaning", "ref-2")
	ingestDeposit(t, env, "25.00", "mystery credit", "ref-3")
	matched := env.postSimpleEntry(t, "acme invoice 42", statementDate, 15000)
	written := env.postSimpleEntry(t, "office cleaning", statementDate, 6000)
	env.postSimpleEntry(t, "mystery credit", statementDate, 2500)
	session := openSession(t, env)

	candidates := sessionCandidates(t, env, session.SessionID)
	_, err := env.services.Reconciliation.AcceptCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidateForEntry(t, candidates, matched.EntryID).CandidateID, "tester")
	require.NoError(t, err)
	_, err = env.services.Reconciliation.WriteOffCandidate(env.ctx, env.company.CompanyID, session.SessionID, candidateForEntry(t, candidates, written.EntryID).CandidateID, dto.WriteOffRequest{ApprovalReference: "CFO-77"}, "tester")
	require.NoError(t, err)

	summary, err := env.services.Reconciliation.SessionSummary(env.ctx, env.company.CompanyID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.WrittenOff)
	assert.GreaterOrEqual(t, summary.Pending, 1)
	total := summary.Matched + summary.Pending
	assert.InDelta(t, float64(summary.Matched)/float64(total), summary.CoverageRatio(), 1e-9)
}
