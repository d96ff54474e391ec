package repositories

import (
	"context"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// BankTransactionReader defines read operations for normalized bank rows
type BankTransactionReader interface {
	// FindBankTransactionByID retrieves one bank transaction.
	FindBankTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error)

	// FindByChecksum looks up a stored row by its dedupe key within a bank
	// account. Returns ErrNotFound when the checksum is new.
	FindByChecksum(ctx context.Context, companyID string, bankAccountID string, checksum string) (*domain.BankTransaction, error)

	// ListBankTransactions retrieves all rows for a bank account.
	ListBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error)

	// ListUnreconciledBankTransactions retrieves active, unmatched rows for
	// a bank account.
	ListUnreconciledBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error)
}

// BankTransactionWriter defines write operations for normalized bank rows
type BankTransactionWriter interface {
	// SaveBankTransactions persists a batch of new rows atomically.
	SaveBankTransactions(ctx context.Context, transactions []domain.BankTransaction) error

	// IncrementDuplicatesDropped bumps the duplicate counter on the stored
	// first occurrence of a checksum.
	IncrementDuplicatesDropped(ctx context.Context, transactionID string, by int, updatedBy string, updatedAt time.Time) error

	// UpdateBankTransactionReconciled flips the reconciled flag of a row.
	UpdateBankTransactionReconciled(ctx context.Context, transactionID string, reconciled bool, updatedBy string, updatedAt time.Time) error
}

// BankTransactionRepositoryFacade combines bank transaction interfaces
type BankTransactionRepositoryFacade interface {
	BankTransactionReader
	BankTransactionWriter
}
