package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/core/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/repositories/memory"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/pkg/config"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full service container over the in-memory store with
// one provisioned company, its seeded chart and its general journal.
type testEnv struct {
	ctx      context.Context
	repos    portsrepo.RepositoryProvider
	services *portssvc.ServiceContainer
	company  *domain.Company
	journal  domain.Journal
	accounts map[string]domain.Account // Keyed by account code
}

func testConfig() *config.Config {
	return &config.Config{
		MatcherAmountWeight:         0.45,
		MatcherDateWeight:           0.35,
		MatcherDescriptionWeight:    0.20,
		MatcherAmountToleranceMinor: 5000,
		MatcherDateToleranceDays:    7,
		MatcherMinScore:             0.35,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepositoryProvider()

	now := time.Now().UTC()
	for _, currency := range []domain.Currency{
		{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2},
		{CurrencyCode: "EUR", Symbol: "€", Name: "Euro", Precision: 2},
		{CurrencyCode: "JPY", Symbol: "¥", Name: "Japanese Yen", Precision: 0},
	} {
		currency.CreatedAt = now
		currency.CreatedBy = "seed"
		currency.LastUpdatedAt = now
		currency.LastUpdatedBy = "seed"
		require.NoError(t, repos.CurrencyRepo.SaveCurrency(ctx, currency))
	}

	container := services.NewServiceContainer(testConfig(), repos, telemetry.New())

	company, err := container.Company.CreateCompany(ctx, dto.CreateCompanyRequest{
		Name:             "Meridian Trading Ltd",
		BaseCurrencyCode: "USD",
	}, "tester")
	require.NoError(t, err)

	journals, err := container.Ledger.ListJournals(ctx, company.CompanyID)
	require.NoError(t, err)
	require.Len(t, journals, 1)

	accounts, err := container.Account.ListAccounts(ctx, company.CompanyID)
	require.NoError(t, err)
	byCode := make(map[string]domain.Account, len(accounts))
	for _, account := range accounts {
		byCode[account.Code] = account
	}

	return &testEnv{
		ctx:      ctx,
		repos:    repos,
		services: container,
		company:  company,
		journal:  journals[0],
		accounts: byCode,
	}
}

func (e *testEnv) account(t *testing.T, code string) domain.Account {
	t.Helper()
	account, ok := e.accounts[code]
	require.True(t, ok, "seeded chart is missing account %s", code)
	return account
}

// postSimpleEntry posts a base-currency entry debiting cash and crediting
// revenue.
func (e *testEnv) postSimpleEntry(t *testing.T, memo string, entryDate time.Time, amountMinor int64) *domain.JournalEntry {
	t.Helper()
	entry, err := e.services.Ledger.PostEntry(e.ctx, e.company.CompanyID, e.journal.JournalID, dto.PostEntryRequest{
		EntryDate: entryDate,
		Memo:      memo,
		Lines: []dto.EntryLineRequest{
			{AccountID: e.account(t, "1000").AccountID, Side: domain.Debit, AmountMinor: amountMinor, CurrencyCode: "USD"},
			{AccountID: e.account(t, "4000").AccountID, Side: domain.Credit, AmountMinor: amountMinor, CurrencyCode: "USD"},
		},
	}, "tester")
	require.NoError(t, err)
	return entry
}
