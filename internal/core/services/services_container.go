package services

import (
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, counters *telemetry.Counters) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Audit goes first since every other service records through it.
	container.Audit = NewAuditService(repos.AuditRepo)
	auditRecorder := container.Audit.(portssvc.AuditRecorderSvc)

	container.Fx = NewFxService(repos.CurrencyRepo, repos.RateRepo, auditRecorder, counters)
	container.Company = NewCompanyService(repos.CompanyRepo, repos.AccountRepo, repos.LedgerRepo, repos.CurrencyRepo, auditRecorder)
	container.Account = NewAccountService(repos.AccountRepo, repos.CompanyRepo, auditRecorder)
	container.Ledger = NewLedgerService(repos.CompanyRepo, repos.AccountRepo, repos.LedgerRepo, container.Fx, auditRecorder, counters)
	container.Ingest = NewIngestService(repos.CompanyRepo, repos.AccountRepo, repos.BankRepo, container.Fx, auditRecorder, counters)

	matcherCfg := MatcherConfig{
		AmountWeight:         cfg.MatcherAmountWeight,
		DateWeight:           cfg.MatcherDateWeight,
		DescriptionWeight:    cfg.MatcherDescriptionWeight,
		AmountToleranceMinor: cfg.MatcherAmountToleranceMinor,
		DateToleranceDays:    cfg.MatcherDateToleranceDays,
		MinScore:             cfg.MatcherMinScore,
	}
	container.Reconciliation = NewReconciliationService(repos.AccountRepo, repos.BankRepo, repos.ReconciliationRepo, repos.LedgerRepo, auditRecorder, counters, matcherCfg)

	return container
}
