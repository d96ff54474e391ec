package services_test

import (
	"testing"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upsertAccount(t *testing.T, env *testEnv, req dto.UpsertAccountRequest) *domain.Account {
	t.Helper()
	account, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, req, "tester")
	require.NoError(t, err)
	return account
}

func TestUpsertAccount_CreateThenUpdateByCode(t *testing.T) {
	env := newTestEnv(t)

	created := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code:        "6100",
		Name:        "Travel",
		AccountType: domain.Expense,
	})
	assert.Equal(t, domain.FunctionalOnly, created.CurrencyMode, "currency mode defaults to functional-only")
	assert.True(t, created.IsActive, "accounts activate on create")

	inactive := false
	updated := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code:        "6100",
		Name:        "Travel & Entertainment",
		AccountType: domain.Expense,
		IsActive:    &inactive,
	})
	assert.Equal(t, created.AccountID, updated.AccountID, "the code keys the upsert")
	assert.Equal(t, "Travel & Entertainment", updated.Name)
	assert.False(t, updated.IsActive)

	accounts, err := env.services.Account.ListAccounts(env.ctx, env.company.CompanyID)
	require.NoError(t, err)
	count := 0
	for _, account := range accounts {
		if account.Code == "6100" {
			count++
		}
	}
	assert.Equal(t, 1, count, "upsert never duplicates a code")
}

func TestUpsertAccount_TypeIsImmutable(t *testing.T) {
	env := newTestEnv(t)

	upsertAccount(t, env, dto.UpsertAccountRequest{Code: "6100", Name: "Travel", AccountType: domain.Expense})

	_, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code:        "6100",
		Name:        "Travel",
		AccountType: domain.Asset,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrImmutableField)
	assert.ErrorIs(t, err, apperrors.ErrValidation, "immutable-field violations are validation failures")
}

func TestUpsertAccount_TransactionalNeedsCurrency(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code:         "1200",
		Name:         "EUR Receivables",
		AccountType:  domain.Asset,
		CurrencyMode: domain.Transactional,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	account := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code:         "1200",
		Name:         "EUR Receivables",
		AccountType:  domain.Asset,
		CurrencyMode: domain.Transactional,
		CurrencyCode: "EUR",
	})
	assert.Equal(t, "EUR", account.CurrencyCode)
}

func TestUpsertAccount_ParentHierarchy(t *testing.T) {
	env := newTestEnv(t)

	parent := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code: "6000", Name: "Operating Expenses", AccountType: domain.Expense, IsSummary: true,
	})
	child := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code: "6100", Name: "Travel", AccountType: domain.Expense, ParentAccountID: &parent.AccountID,
	})
	assert.Equal(t, parent.AccountID, child.ParentAccountID)

	// Unknown parents are rejected outright.
	ghost := "no-such-account"
	_, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code: "6200", Name: "Meals", AccountType: domain.Expense, ParentAccountID: &ghost,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpsertAccount_RejectsCycles(t *testing.T) {
	env := newTestEnv(t)

	parent := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code: "6000", Name: "Operating Expenses", AccountType: domain.Expense, IsSummary: true,
	})
	child := upsertAccount(t, env, dto.UpsertAccountRequest{
		Code: "6100", Name: "Travel", AccountType: domain.Expense, ParentAccountID: &parent.AccountID,
	})

	// Self-parenting.
	_, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code: "6100", Name: "Travel", AccountType: domain.Expense, ParentAccountID: &child.AccountID,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrAccountCycle)

	// Two-node loop: pointing the parent back at its child.
	_, err = env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code: "6000", Name: "Operating Expenses", AccountType: domain.Expense, IsSummary: true, ParentAccountID: &child.AccountID,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrAccountCycle)
}
