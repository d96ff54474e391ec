package services_test

import (
	"testing"
	"time"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var marchDate = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

func TestPostEntry_BalancedBaseCurrency(t *testing.T) {
	env := newTestEnv(t)

	entry := env.postSimpleEntry(t, "Invoice 1001 payment", marchDate, 12500)

	assert.Equal(t, domain.Posted, entry.Status)
	assert.Equal(t, domain.OriginManual, entry.Origin)
	assert.Equal(t, domain.Unreconciled, entry.ReconciliationStatus)
	assert.Equal(t, int64(1), entry.EntryNumber)
	require.Len(t, entry.Lines, 2)
	for _, line := range entry.Lines {
		assert.Equal(t, int64(12500), line.AmountMinor)
		assert.Equal(t, int64(12500), line.FunctionalAmountMinor, "base currency lines carry their own functional amount")
		assert.Nil(t, line.RateUsed)
	}

	second := env.postSimpleEntry(t, "Invoice 1002 payment", marchDate, 3000)
	assert.Equal(t, int64(2), second.EntryNumber, "entry numbers are sequential per journal")
}

func TestPostEntry_UnbalancedRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "does not balance",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "USD"},
			{AccountID: env.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: 9999, CurrencyCode: "USD"},
		},
	}, "tester")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnbalancedEntry)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPostEntry_SingleLineRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "one-legged",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "USD"},
		},
	}, "tester")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPostEntry_InactiveAndSummaryAccountsRejected(t *testing.T) {
	env := newTestEnv(t)

	inactive := false
	dormant, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code:        "1900",
		Name:        "Dormant Asset",
		AccountType: domain.Asset,
		IsActive:    &inactive,
	}, "tester")
	require.NoError(t, err)

	summary, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code:        "1999",
		Name:        "Current Assets",
		AccountType: domain.Asset,
		IsSummary:   true,
	}, "tester")
	require.NoError(t, err)

	_, err = env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "posts to a dormant account",
		Lines: []dto.EntryLineRequest{
			{AccountID: dormant.AccountID, Side: domain.Debit, AmountMinor: 100, CurrencyCode: "USD"},
			{AccountID: env.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: 100, CurrencyCode: "USD"},
		},
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrInactiveAccount)

	_, err = env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "posts to a summary account",
		Lines: []dto.EntryLineRequest{
			{AccountID: summary.AccountID, Side: domain.Debit, AmountMinor: 100, CurrencyCode: "USD"},
			{AccountID: env.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: 100, CurrencyCode: "USD"},
		},
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrSummaryPosting)
}

func TestPostEntry_ForeignCurrencyConversion(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.10"),
		EffectiveAt:      marchDate.AddDate(0, 0, -3),
		Source:           "ecb",
	}, "tester")
	require.NoError(t, err)

	entry, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "EUR supplier refund",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "EUR"},
			{AccountID: env.account(t, "1100").AccountID, Side: domain.Credit, AmountMinor: 10000, CurrencyCode: "EUR"},
		},
	}, "tester")
	require.NoError(t, err)

	require.Len(t, entry.Lines, 2)
	for _, line := range entry.Lines {
		assert.Equal(t, "EUR", line.CurrencyCode)
		assert.Equal(t, int64(11000), line.FunctionalAmountMinor, "100.00 EUR at 1.10 is 110.00 USD")
		require.NotNil(t, line.RateUsed)
		assert.True(t, line.RateUsed.Equal(decimal.RequireFromString("1.10")))
		assert.Equal(t, "ecb", line.RateSource)
	}
}

func TestPostEntry_NoRateAvailable(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "EUR with no rate loaded",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "EUR"},
			{AccountID: env.account(t, "1100").AccountID, Side: domain.Credit, AmountMinor: 10000, CurrencyCode: "EUR"},
		},
	}, "tester")

	assert.ErrorIs(t, err, apperrors.ErrNoRateAvailable)
}

func TestPostEntry_FunctionalOnlyAccountRejectsForeignCurrency(t *testing.T) {
	env := newTestEnv(t)

	// 4000 Revenue is FUNCTIONAL_ONLY in the seeded chart.
	_, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "EUR revenue on a functional-only account",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "EUR"},
			{AccountID: env.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: 10000, CurrencyCode: "EUR"},
		},
	}, "tester")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func applyLock(t *testing.T, env *testEnv, action domain.PeriodAction, approval string) *domain.PeriodLock {
	t.Helper()
	lock, err := env.services.Ledger.ApplyPeriodLock(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.ApplyPeriodLockRequest{
		FiscalYear:        2025,
		Period:            3,
		Action:            action,
		ApprovalReference: approval,
	}, "controller")
	require.NoError(t, err)
	return lock
}

func TestApplyPeriodLock_StateMachine(t *testing.T) {
	env := newTestEnv(t)
	ledger := env.services.Ledger

	state, err := ledger.GetPeriodState(env.ctx, env.company.CompanyID, env.journal.JournalID, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodOpen, state, "a period with no lock history is open")

	// CLOSE straight from OPEN is not a legal transition.
	_, err = ledger.ApplyPeriodLock(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.ApplyPeriodLockRequest{
		FiscalYear: 2025, Period: 3, Action: domain.Close, ApprovalReference: "CFO-1",
	}, "controller")
	assert.ErrorIs(t, err, apperrors.ErrLockTransition)

	lock := applyLock(t, env, domain.SoftClose, "")
	assert.Equal(t, domain.PeriodSoftClosed, lock.ResultingState)

	// CLOSE requires an approval reference.
	_, err = ledger.ApplyPeriodLock(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.ApplyPeriodLockRequest{
		FiscalYear: 2025, Period: 3, Action: domain.Close,
	}, "controller")
	assert.ErrorIs(t, err, apperrors.ErrMissingApproval)

	lock = applyLock(t, env, domain.Close, "CFO-1")
	assert.Equal(t, domain.PeriodClosed, lock.ResultingState)

	lock = applyLock(t, env, domain.ReopenSoft, "")
	assert.Equal(t, domain.PeriodSoftClosed, lock.ResultingState)

	applyLock(t, env, domain.Close, "CFO-2")
	lock = applyLock(t, env, domain.ReopenFull, "CFO-3")
	assert.Equal(t, domain.PeriodOpen, lock.ResultingState)

	state, err = ledger.GetPeriodState(env.ctx, env.company.CompanyID, env.journal.JournalID, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodOpen, state, "state is derived from the last lock in history")
}

func TestPostEntry_PeriodGates(t *testing.T) {
	env := newTestEnv(t)

	applyLock(t, env, domain.SoftClose, "")

	post := func(override bool, approval string) error {
		_, err := env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
			EntryDate:         marchDate,
			Memo:              "late adjustment",
			OverrideSoftClose: override,
			ApprovalReference: approval,
			Lines: []dto.EntryLineRequest{
				{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 500, CurrencyCode: "USD"},
				{AccountID: env.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: 500, CurrencyCode: "USD"},
			},
		}, "tester")
		return err
	}

	assert.ErrorIs(t, post(false, ""), apperrors.ErrPeriodSoftClosed)
	assert.ErrorIs(t, post(true, "   "), apperrors.ErrMissingApproval, "a blank approval reference does not satisfy the override")
	assert.NoError(t, post(true, "CFO-OVERRIDE-7"))

	applyLock(t, env, domain.Close, "CFO-1")
	err := post(true, "CFO-OVERRIDE-8")
	assert.ErrorIs(t, err, apperrors.ErrPeriodClosed, "a closed period rejects even approved overrides")
}

func TestReverseEntry(t *testing.T) {
	env := newTestEnv(t)

	original := env.postSimpleEntry(t, "Invoice 1001 payment", marchDate, 12500)

	reversal, err := env.services.Ledger.ReverseEntry(env.ctx, env.company.CompanyID, original.EntryID, dto.ReverseEntryRequest{
		Reason: "posted against the wrong customer",
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, original.EntryID, reversal.ReversesEntryID)
	assert.Equal(t, domain.OriginAdjustment, reversal.Origin)
	assert.Equal(t, original.EntryDate, reversal.EntryDate)
	require.Len(t, reversal.Lines, 2)
	for i, line := range reversal.Lines {
		originalLine := original.Lines[i]
		assert.NotEqual(t, originalLine.LineID, line.LineID)
		assert.Equal(t, originalLine.AccountID, line.AccountID)
		assert.Equal(t, originalLine.AmountMinor, line.AmountMinor)
		assert.NotEqual(t, originalLine.Side, line.Side, "reversal lines flip side")
	}

	reloaded, err := env.services.Ledger.GetEntryByID(env.ctx, env.company.CompanyID, original.EntryID)
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, reloaded.Status)
	assert.Equal(t, reversal.EntryID, reloaded.ReversedByEntryID)

	// A reversed entry cannot be reversed again.
	_, err = env.services.Ledger.ReverseEntry(env.ctx, env.company.CompanyID, original.EntryID, dto.ReverseEntryRequest{Reason: "twice"}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrState)

	// Balance nets to zero after the reversal.
	balance, err := env.services.Ledger.GetAccountBalance(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestRevalueCurrency_PostsAdjustmentAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Fx.SubmitRate(env.ctx, dto.CreateRateRequest{
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.RequireFromString("1.10"),
		EffectiveAt:      marchDate.AddDate(0, 0, -3),
	}, "tester")
	require.NoError(t, err)

	// 100.00 EUR booked at 1.10: cash +110.00 USD, receivables -110.00 USD.
	_, err = env.services.Ledger.PostEntry(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.PostEntryRequest{
		EntryDate: marchDate,
		Memo:      "EUR exposure",
		Lines: []dto.EntryLineRequest{
			{AccountID: env.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: 10000, CurrencyCode: "EUR"},
			{AccountID: env.account(t, "1100").AccountID, Side: domain.Credit, AmountMinor: 10000, CurrencyCode: "EUR"},
		},
	}, "tester")
	require.NoError(t, err)

	req := dto.RevaluationRequest{
		FiscalYear: 2025,
		Period:     3,
		SnapshotID: "2025-03-EOM",
		Rates:      []dto.SnapshotRate{{CurrencyCode: "EUR", Rate: decimal.RequireFromString("1.20")}},
	}
	result, err := env.services.Ledger.RevalueCurrency(env.ctx, env.company.CompanyID, env.journal.JournalID, req, "controller")
	require.NoError(t, err)
	assert.False(t, result.AlreadyApplied)
	require.Len(t, result.EntryIDs, 1, "one adjustment entry per exposure currency")

	adjustment, err := env.services.Ledger.GetEntryByID(env.ctx, env.company.CompanyID, result.EntryIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OriginAdjustment, adjustment.Origin)
	require.Len(t, adjustment.Lines, 4, "each exposed account pairs with an FX gain/loss line")
	for _, line := range adjustment.Lines {
		assert.Equal(t, "USD", line.CurrencyCode)
		assert.Equal(t, int64(1000), line.AmountMinor, "the 0.10 rate move on 100.00 EUR is 10.00 USD")
		assert.Equal(t, "revaluation:2025-03-EOM", line.RateSource)
	}
	debits, credits := adjustment.FunctionalTotals()
	assert.Equal(t, debits, credits)

	// The same snapshot applies exactly once.
	again, err := env.services.Ledger.RevalueCurrency(env.ctx, env.company.CompanyID, env.journal.JournalID, req, "controller")
	require.NoError(t, err)
	assert.True(t, again.AlreadyApplied)
	assert.Equal(t, result.EntryIDs, again.EntryIDs)
}

func TestListEntries_Pagination(t *testing.T) {
	env := newTestEnv(t)

	env.postSimpleEntry(t, "day one", marchDate, 100)
	env.postSimpleEntry(t, "day two", marchDate.AddDate(0, 0, 1), 200)
	env.postSimpleEntry(t, "day three", marchDate.AddDate(0, 0, 2), 300)

	first, err := env.services.Ledger.ListEntries(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.ListEntriesParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	require.NotNil(t, first.NextToken)
	assert.Equal(t, "day three", first.Entries[0].Memo, "entries list newest first")
	assert.Equal(t, "day two", first.Entries[1].Memo)

	second, err := env.services.Ledger.ListEntries(env.ctx, env.company.CompanyID, env.journal.JournalID, dto.ListEntriesParams{Limit: 2, NextToken: first.NextToken})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, "day one", second.Entries[0].Memo)
	assert.Nil(t, second.NextToken)
}
