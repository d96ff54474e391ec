package services

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
)

// IngestSvcFacade normalizes raw bank statements into stored transactions.
type IngestSvcFacade interface {
	// IngestStatement parses, normalizes and deduplicates one statement
	// payload for a bank account. Row failures are reported, not fatal;
	// re-ingesting the same payload changes nothing.
	IngestStatement(ctx context.Context, companyID string, req dto.IngestStatementRequest, actor string) (*dto.IngestReport, error)

	// ListBankTransactions retrieves stored rows for a bank account.
	ListBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error)
}
