package services

import (
	"context"
	"errors"
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

// accountService maintains per-company charts of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	companyRepo portsrepo.CompanyReader
	auditSvc    portssvc.AuditRecorderSvc
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, companyRepo portsrepo.CompanyReader, auditSvc portssvc.AuditRecorderSvc) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		companyRepo: companyRepo,
		auditSvc:    auditSvc,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// UpsertAccount creates an account or updates the one carrying the same
// code. Account type and code are immutable after creation.
func (s *accountService) UpsertAccount(ctx context.Context, companyID string, req dto.UpsertAccountRequest, actor string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.companyRepo.FindCompanyByID(ctx, companyID); err != nil {
		return nil, err
	}

	mode := req.CurrencyMode
	if mode == "" {
		mode = domain.FunctionalOnly
	}
	if mode == domain.Transactional && req.CurrencyCode == "" {
		return nil, fmt.Errorf("%w: transactional account %s needs a currency code", apperrors.ErrValidation, req.Code)
	}

	now := time.Now().UTC()

	existing, err := s.accountRepo.FindAccountByCode(ctx, companyID, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account code %s: %w", req.Code, err)
	}

	if existing == nil {
		account := domain.Account{
			AccountID:    uuid.NewString(),
			CompanyID:    companyID,
			Code:         req.Code,
			Name:         req.Name,
			AccountType:  req.AccountType,
			CurrencyMode: mode,
			CurrencyCode: req.CurrencyCode,
			IsSummary:    req.IsSummary,
			IsActive:     true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor,
				LastUpdatedAt: now,
				LastUpdatedBy: actor,
			},
		}
		if req.IsActive != nil {
			account.IsActive = *req.IsActive
		}
		if req.ParentAccountID != nil && *req.ParentAccountID != "" {
			if err := s.validateParent(ctx, companyID, account.AccountID, *req.ParentAccountID); err != nil {
				return nil, err
			}
			account.ParentAccountID = *req.ParentAccountID
		}

		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			logger.Error("Failed to save account", slog.String("code", req.Code), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save account: %w", err)
		}
		if _, err := s.auditSvc.Record(ctx, companyID, "account", account.AccountID, domain.AuditAccountCreated, actor, fmt.Sprintf(`{"code":%q}`, account.Code)); err != nil {
			return nil, err
		}
		logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
		return &account, nil
	}

	// Update path. Type and code never change.
	if req.AccountType != existing.AccountType {
		return nil, fmt.Errorf("%w: account type of %s is %s", apperrors.ErrImmutableField, existing.Code, existing.AccountType)
	}

	updated := *existing
	updated.Name = req.Name
	updated.CurrencyMode = mode
	updated.CurrencyCode = req.CurrencyCode
	updated.IsSummary = req.IsSummary
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.ParentAccountID != nil {
		if *req.ParentAccountID != "" {
			if err := s.validateParent(ctx, companyID, existing.AccountID, *req.ParentAccountID); err != nil {
				return nil, err
			}
		}
		updated.ParentAccountID = *req.ParentAccountID
	}
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = actor

	if err := s.accountRepo.UpdateAccount(ctx, updated); err != nil {
		logger.Error("Failed to update account", slog.String("account_id", existing.AccountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	if _, err := s.auditSvc.Record(ctx, companyID, "account", updated.AccountID, domain.AuditAccountUpdated, actor, fmt.Sprintf(`{"code":%q}`, updated.Code)); err != nil {
		return nil, err
	}
	return &updated, nil
}

// validateParent checks the parent exists and that linking to it keeps the
// hierarchy acyclic.
func (s *accountService) validateParent(ctx context.Context, companyID string, accountID string, parentID string) error {
	if parentID == accountID {
		return fmt.Errorf("%w: account cannot be its own parent", apperrors.ErrAccountCycle)
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load chart for cycle check: %w", err)
	}
	byID := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.AccountID] = acc
	}
	if _, ok := byID[parentID]; !ok {
		return fmt.Errorf("%w: parent account %s", apperrors.ErrNotFound, parentID)
	}

	// Walk up from the proposed parent; reaching the account being linked
	// means the link would close a loop.
	current := parentID
	for steps := 0; steps <= len(accounts); steps++ {
		acc, ok := byID[current]
		if !ok || acc.ParentAccountID == "" {
			return nil
		}
		if acc.ParentAccountID == accountID {
			return fmt.Errorf("%w: linking under %s", apperrors.ErrAccountCycle, parentID)
		}
		current = acc.ParentAccountID
	}
	return fmt.Errorf("%w: parent chain of %s does not terminate", apperrors.ErrAccountCycle, parentID)
}

// GetAccountByID retrieves a specific account.
func (s *accountService) GetAccountByID(ctx context.Context, companyID string, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, companyID, accountID)
}

// GetAccountsByIDs retrieves multiple accounts keyed by ID.
func (s *accountService) GetAccountsByIDs(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, companyID, accountIDs)
}

// ListAccounts retrieves the chart of accounts for a company.
func (s *accountService) ListAccounts(ctx context.Context, companyID string) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, companyID)
}
