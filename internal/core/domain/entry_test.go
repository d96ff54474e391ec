package domain_test

import (
	"testing"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestJournalEntry_FunctionalTotals(t *testing.T) {
	entry := domain.JournalEntry{
		Lines: []domain.JournalLine{
			{Side: domain.Debit, FunctionalAmountMinor: 125000},
			{Side: domain.Debit, FunctionalAmountMinor: 25000},
			{Side: domain.Credit, FunctionalAmountMinor: 150000},
		},
	}

	debits, credits := entry.FunctionalTotals()
	assert.Equal(t, int64(150000), debits)
	assert.Equal(t, int64(150000), credits)
	assert.True(t, entry.IsBalanced())
}

func TestJournalEntry_IsBalanced_DetectsOffByOne(t *testing.T) {
	entry := domain.JournalEntry{
		Lines: []domain.JournalLine{
			{Side: domain.Debit, FunctionalAmountMinor: 10800},
			{Side: domain.Credit, FunctionalAmountMinor: 10700},
		},
	}

	assert.False(t, entry.IsBalanced())
}

func TestAccount_AllowsPosting(t *testing.T) {
	assert.True(t, domain.Account{IsActive: true}.AllowsPosting())
	assert.False(t, domain.Account{IsActive: true, IsSummary: true}.AllowsPosting())
	assert.False(t, domain.Account{IsActive: false}.AllowsPosting())
}
