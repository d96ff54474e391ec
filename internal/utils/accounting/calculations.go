package accounting

import (
	"fmt"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// CalculateSignedAmount applies the correct sign to a journal line's
// functional amount based on account type and posting side.
// This is used in both services and repositories to ensure consistent accounting logic.
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (int64, error) {
	signed := line.FunctionalAmountMinor
	isDebit := line.Side == domain.Debit

	// Determine sign based on accounting convention
	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
	switch accountType {
	case domain.Asset, domain.Expense, domain.OffBalance:
		if !isDebit {
			signed = -signed
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			signed = -signed
		}
	default:
		return 0, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
	return signed, nil
}

// ValidateEntryBalance checks that an entry's lines balance to zero in
// functional currency and that every amount is positive.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("entry must have at least two lines")
	}

	var debits, credits int64
	for _, line := range lines {
		if line.AmountMinor <= 0 {
			return fmt.Errorf("line amount must be positive for line %s", line.LineID)
		}
		if line.FunctionalAmountMinor <= 0 {
			return fmt.Errorf("functional amount must be positive for line %s", line.LineID)
		}
		switch line.Side {
		case domain.Debit:
			debits += line.FunctionalAmountMinor
		case domain.Credit:
			credits += line.FunctionalAmountMinor
		default:
			return fmt.Errorf("unknown posting side '%s' for line %s", line.Side, line.LineID)
		}
	}

	if debits != credits {
		return fmt.Errorf("functional debits %d do not equal credits %d", debits, credits)
	}
	return nil
}

// NetBalanceChanges computes the per-account signed functional delta an
// entry applies when posted.
func NetBalanceChanges(lines []domain.JournalLine, accountTypes map[string]domain.AccountType) (map[string]int64, error) {
	changes := make(map[string]int64, len(lines))
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account ID %s", line.AccountID)
		}
		signed, err := CalculateSignedAmount(line, accountType)
		if err != nil {
			return nil, err
		}
		changes[line.AccountID] += signed
	}
	return changes, nil
}
