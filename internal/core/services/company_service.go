package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
)

// FXGainLossAccountCode is the seeded account revaluation adjustments post
// against.
const FXGainLossAccountCode = "9150"

// defaultChart is the starter chart of accounts every new company gets.
var defaultChart = []struct {
	code        string
	name        string
	accountType domain.AccountType
	mode        domain.CurrencyMode
	isSummary   bool
}{
	{"1000", "Cash and Bank", domain.Asset, domain.MultiCurrency, false},
	{"1100", "Accounts Receivable", domain.Asset, domain.MultiCurrency, false},
	{"2000", "Accounts Payable", domain.Liability, domain.MultiCurrency, false},
	{"3000", "Opening Balances", domain.Equity, domain.FunctionalOnly, false},
	{"4000", "Revenue", domain.Revenue, domain.FunctionalOnly, false},
	{"5000", "Expenses", domain.Expense, domain.FunctionalOnly, false},
	{FXGainLossAccountCode, "FX Gain/Loss", domain.Revenue, domain.FunctionalOnly, false},
}

// companyService provisions and reads tenants.
type companyService struct {
	companyRepo  portsrepo.CompanyRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	currencyRepo portsrepo.CurrencyReader
	auditSvc     portssvc.AuditRecorderSvc
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo portsrepo.CompanyRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, currencyRepo portsrepo.CurrencyReader, auditSvc portssvc.AuditRecorderSvc) portssvc.CompanySvcFacade {
	return &companyService{
		companyRepo:  companyRepo,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		currencyRepo: currencyRepo,
		auditSvc:     auditSvc,
	}
}

// Ensure companyService implements the portssvc.CompanySvcFacade interface
var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// CreateCompany provisions a tenant with its starter chart of accounts and
// a general journal.
func (s *companyService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorID string) (*domain.Company, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.BaseCurrencyCode); err != nil {
		return nil, fmt.Errorf("%w: unknown base currency %s", apperrors.ErrValidation, req.BaseCurrencyCode)
	}

	periodsPerYear := req.PeriodsPerYear
	if periodsPerYear == 0 {
		periodsPerYear = 12
	}
	switch periodsPerYear {
	case 1, 2, 4, 12:
	default:
		return nil, fmt.Errorf("%w: periodsPerYear must be 1, 2, 4 or 12, got %d", apperrors.ErrValidation, periodsPerYear)
	}
	openingMonth := req.OpeningMonth
	if openingMonth == 0 {
		openingMonth = 1
	}
	if openingMonth < 1 || openingMonth > 12 {
		return nil, fmt.Errorf("%w: openingMonth must be between 1 and 12, got %d", apperrors.ErrValidation, openingMonth)
	}

	now := time.Now().UTC()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorID,
	}

	company := domain.Company{
		CompanyID:        uuid.NewString(),
		Name:             req.Name,
		BaseCurrencyCode: req.BaseCurrencyCode,
		FiscalCalendar: domain.FiscalCalendar{
			PeriodsPerYear: periodsPerYear,
			OpeningMonth:   openingMonth,
		},
		AuditFields: audit,
	}

	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		logger.Error("Failed to save company", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save company: %w", err)
	}

	for _, seed := range defaultChart {
		account := domain.Account{
			AccountID:    uuid.NewString(),
			CompanyID:    company.CompanyID,
			Code:         seed.code,
			Name:         seed.name,
			AccountType:  seed.accountType,
			CurrencyMode: seed.mode,
			IsSummary:    seed.isSummary,
			IsActive:     true,
			AuditFields:  audit,
		}
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			logger.Error("Failed to seed chart of accounts",
				slog.String("company_id", company.CompanyID),
				slog.String("code", seed.code),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to seed account %s: %w", seed.code, err)
		}
	}

	journal := domain.Journal{
		JournalID:   uuid.NewString(),
		CompanyID:   company.CompanyID,
		Name:        "General Ledger",
		JournalType: domain.GeneralJournal,
		AuditFields: audit,
	}
	if err := s.ledgerRepo.SaveJournal(ctx, journal); err != nil {
		logger.Error("Failed to create default journal", slog.String("company_id", company.CompanyID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create default journal: %w", err)
	}

	if _, err := s.auditSvc.Record(ctx, company.CompanyID, "company", company.CompanyID, domain.AuditCompanyCreated, creatorID, ""); err != nil {
		return nil, err
	}

	logger.Info("Company created",
		slog.String("company_id", company.CompanyID),
		slog.String("base_currency", company.BaseCurrencyCode))
	return &company, nil
}

// GetCompanyByID retrieves a company by its ID.
func (s *companyService) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	return s.companyRepo.FindCompanyByID(ctx, companyID)
}

// ListCompanies retrieves all companies.
func (s *companyService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.companyRepo.ListCompanies(ctx)
}
