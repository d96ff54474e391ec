package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

var matchDate = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func bankTxn(amountMinor int64, date time.Time, description string) domain.BankTransaction {
	return domain.BankTransaction{
		TransactionID: uuid.NewString(),
		AmountMinor:   amountMinor,
		PostedDate:    date,
		Description:   description,
	}
}

// bankEntry builds a posted entry moving amountMinor through the bank
// account; positive is a debit (deposit), negative a credit.
func bankEntry(bankAccountID string, amountMinor int64, date time.Time, memo string) domain.JournalEntry {
	side := domain.Debit
	if amountMinor < 0 {
		side = domain.Credit
		amountMinor = -amountMinor
	}
	return domain.JournalEntry{
		EntryID:   uuid.NewString(),
		EntryDate: date,
		Memo:      memo,
		Lines: []domain.JournalLine{
			{LineID: uuid.NewString(), AccountID: bankAccountID, Side: side, AmountMinor: amountMinor},
			{LineID: uuid.NewString(), AccountID: "other", Side: oppositeSide(side), AmountMinor: amountMinor},
		},
	}
}

func oppositeSide(side domain.PostingSide) domain.PostingSide {
	if side == domain.Debit {
		return domain.Credit
	}
	return domain.Debit
}

func TestEntrySignedAmount(t *testing.T) {
	entry := bankEntry("bank", 15000, matchDate, "deposit")
	assert.Equal(t, int64(15000), entrySignedAmount(entry, "bank"))

	entry = bankEntry("bank", -9000, matchDate, "payment")
	assert.Equal(t, int64(-9000), entrySignedAmount(entry, "bank"))

	assert.Equal(t, int64(0), entrySignedAmount(entry, "elsewhere"), "entries not touching the account net to zero")
}

func TestMatcher_PerfectMatchScoresFull(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	txn := bankTxn(15000, matchDate, "ACME Invoice 42")
	entry := bankEntry("bank", 15000, matchDate, "acme  invoice 42")

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{entry}, "bank", matchDate)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0, candidates[0].Score, 1e-9)
	assert.Equal(t, int64(0), candidates[0].AmountDeltaMinor)
	assert.Equal(t, 0, candidates[0].DateDeltaDays)
	assert.Equal(t, domain.CandidatePending, candidates[0].Status)
}

func TestMatcher_LinearDecayWithinTolerance(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	// 2500 of 5000 tolerance -> amount score 0.5; 3.5 days would be ideal
	// but deltas are whole days: 3 of 7 -> date score 1 - 3/7.
	txn := bankTxn(15000, matchDate, "acme invoice 42")
	entry := bankEntry("bank", 12500, matchDate.AddDate(0, 0, -3), "acme invoice 42")

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{entry}, "bank", matchDate)
	require.Len(t, candidates, 1)
	want := 0.45*0.5 + 0.35*(1-3.0/7.0) + 0.20*1.0
	assert.InDelta(t, want, candidates[0].Score, 1e-9)
}

func TestMatcher_SkipsUnmatchablePairs(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	entry := bankEntry("bank", 15000, matchDate, "deposit")

	voidTxn := bankTxn(0, matchDate, "void")
	voidTxn.IsVoid = true
	reconciled := bankTxn(15000, matchDate, "deposit")
	reconciled.Reconciled = true
	opposite := bankTxn(-15000, matchDate, "deposit")

	candidates := m.Propose("s1", []domain.BankTransaction{voidTxn, reconciled, opposite}, []domain.JournalEntry{entry}, "bank", matchDate)
	assert.Empty(t, candidates, "void, reconciled and opposite-sign rows never pair")

	// An entry with no net movement on the bank account is skipped too.
	zeroEntry := domain.JournalEntry{
		EntryID:   uuid.NewString(),
		EntryDate: matchDate,
		Lines: []domain.JournalLine{
			{AccountID: "revenue", Side: domain.Debit, AmountMinor: 100},
			{AccountID: "expense", Side: domain.Credit, AmountMinor: 100},
		},
	}
	candidates = m.Propose("s1", []domain.BankTransaction{bankTxn(15000, matchDate, "x")}, []domain.JournalEntry{zeroEntry}, "bank", matchDate)
	assert.Empty(t, candidates)
}

func TestMatcher_FiltersBelowMinScore(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	// In the window but weak on every signal: amount at tolerance edge,
	// 5 of 7 days out, unrelated description. Score 0.35*(1-5/7) = 0.1.
	txn := bankTxn(20000, matchDate, "wire transfer inbound")
	entry := bankEntry("bank", 15000, matchDate.AddDate(0, 0, -5), "office rent")

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{entry}, "bank", matchDate)
	assert.Empty(t, candidates)
}

func TestMatcher_DateWindowIsHard(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	// An exact-amount pair far outside the window would still score
	// AmountWeight on amount alone; the window must exclude it outright.
	txn := bankTxn(15000, matchDate, "acme invoice 42")
	stale := bankEntry("bank", 15000, matchDate.AddDate(0, 0, -180), "acme invoice 42")
	edge := bankEntry("bank", 15000, matchDate.AddDate(0, 0, -7), "acme invoice 42")
	inside := bankEntry("bank", 15000, matchDate.AddDate(0, 0, -6), "acme invoice 42")

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{stale, edge, inside}, "bank", matchDate)
	require.Len(t, candidates, 1, "pairs at or beyond the tolerance are never proposed")
	assert.Equal(t, inside.EntryID, candidates[0].EntryID)
}

func TestMatcher_DeterministicOrder(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	txn := bankTxn(15000, matchDate, "acme invoice 42")
	exact := bankEntry("bank", 15000, matchDate, "acme invoice 42")
	closeAmount := bankEntry("bank", 14900, matchDate, "acme invoice 42")
	closeDate := bankEntry("bank", 15000, matchDate.AddDate(0, 0, 2), "acme invoice 42")

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{closeDate, closeAmount, exact}, "bank", matchDate)
	require.Len(t, candidates, 3)
	assert.Equal(t, exact.EntryID, candidates[0].EntryID, "highest score first")
	assert.True(t, candidates[0].Score > candidates[1].Score)
	assert.True(t, candidates[1].Score > candidates[2].Score || candidates[1].AmountDeltaMinor <= candidates[2].AmountDeltaMinor)
}

func TestMatcher_TiesBreakByID(t *testing.T) {
	m := newMatcher(DefaultMatcherConfig())

	txn := bankTxn(15000, matchDate, "acme invoice 42")
	entryA := bankEntry("bank", 15000, matchDate, "acme invoice 42")
	entryB := bankEntry("bank", 15000, matchDate, "acme invoice 42")
	if entryA.EntryID > entryB.EntryID {
		entryA, entryB = entryB, entryA
	}

	candidates := m.Propose("s1", []domain.BankTransaction{txn}, []domain.JournalEntry{entryB, entryA}, "bank", matchDate)
	require.Len(t, candidates, 2)
	assert.Equal(t, entryA.EntryID, candidates[0].EntryID, "identical scores order by entry ID")
}

func TestDescriptionScore(t *testing.T) {
	assert.Equal(t, 1.0, descriptionScore("ACME  Invoice 42", "acme invoice 42"), "case and spacing normalize away")
	assert.Equal(t, 0.0, descriptionScore("office rent", ""), "an empty side scores zero")
	// {wire, transfer, inbound} vs {wire, transfer}: 2 shared of 3 total.
	assert.InDelta(t, 2.0/3.0, descriptionScore("wire transfer inbound", "WIRE TRANSFER"), 1e-9)
	// Punctuation is part of the token: "#42" and "42" do not match.
	assert.InDelta(t, 2.0/4.0, descriptionScore("acme invoice #42", "acme invoice 42"), 1e-9)
}
