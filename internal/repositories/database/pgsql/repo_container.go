package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CompanyRepo:        newPgxCompanyRepository(dbPool),
		AccountRepo:        newPgxAccountRepository(dbPool),
		LedgerRepo:         newPgxLedgerRepository(dbPool),
		CurrencyRepo:       newPgxCurrencyRepository(dbPool),
		RateRepo:           newPgxRateRepository(dbPool),
		BankRepo:           newPgxBankRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
		AuditRepo:          newPgxAuditRepository(dbPool),
	}
}
