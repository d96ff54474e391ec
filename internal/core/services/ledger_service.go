package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/telemetry"
	"github.com/openbooks-app/openbooks/internal/utils"
)

const (
	defaultEntryPageSize = 50
	maxEntryPageSize     = 200
)

// ledgerService implements posting, reversal, period locking and
// revaluation. All mutations of one journal are serialized on a
// per-journal mutex, so concurrent posts into the same journal behave as
// if sequential.
type ledgerService struct {
	companyRepo portsrepo.CompanyReader
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	fxSvc       portssvc.FxSvcFacade
	auditSvc    portssvc.AuditRecorderSvc
	counters    *telemetry.Counters

	mu           sync.Mutex
	journalLocks map[string]*sync.Mutex
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(companyRepo portsrepo.CompanyReader, accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, fxSvc portssvc.FxSvcFacade, auditSvc portssvc.AuditRecorderSvc, counters *telemetry.Counters) portssvc.LedgerSvcFacade {
	return &ledgerService{
		companyRepo:  companyRepo,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		fxSvc:        fxSvc,
		auditSvc:     auditSvc,
		counters:     counters,
		journalLocks: make(map[string]*sync.Mutex),
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// journalLock returns the mutex serializing mutations of one journal.
func (s *ledgerService) journalLock(journalID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.journalLocks[journalID]
	if !ok {
		lock = &sync.Mutex{}
		s.journalLocks[journalID] = lock
	}
	return lock
}

// CreateJournal creates a new journal in a company.
func (s *ledgerService) CreateJournal(ctx context.Context, companyID string, req dto.CreateJournalRequest, actor string) (*domain.Journal, error) {
	if _, err := s.companyRepo.FindCompanyByID(ctx, companyID); err != nil {
		return nil, err
	}

	journalType := req.JournalType
	if journalType == "" {
		journalType = domain.GeneralJournal
	}

	now := time.Now().UTC()
	journal := domain.Journal{
		JournalID:   uuid.NewString(),
		CompanyID:   companyID,
		Name:        req.Name,
		JournalType: journalType,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	if err := s.ledgerRepo.SaveJournal(ctx, journal); err != nil {
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}
	if _, err := s.auditSvc.Record(ctx, companyID, "journal", journal.JournalID, domain.AuditJournalCreated, actor, fmt.Sprintf(`{"name":%q}`, journal.Name)); err != nil {
		return nil, err
	}
	return &journal, nil
}

// ListJournals retrieves all journals for a company.
func (s *ledgerService) ListJournals(ctx context.Context, companyID string) ([]domain.Journal, error) {
	return s.ledgerRepo.ListJournals(ctx, companyID)
}

// periodStateOf derives the effective lock state from history; an empty
// history means open.
func (s *ledgerService) periodStateOf(ctx context.Context, journalID string, ref domain.PeriodRef) (domain.PeriodState, error) {
	locks, err := s.ledgerRepo.ListPeriodLocks(ctx, journalID, ref.FiscalYear, ref.Period)
	if err != nil {
		return "", fmt.Errorf("failed to load period locks: %w", err)
	}
	if len(locks) == 0 {
		return domain.PeriodOpen, nil
	}
	return locks[len(locks)-1].ResultingState, nil
}

// PostEntry validates and posts a balanced entry.
func (s *ledgerService) PostEntry(ctx context.Context, companyID string, journalID string, req dto.PostEntryRequest, actor string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledgerRepo.FindJournalByID(ctx, companyID, journalID); err != nil {
		return nil, err
	}

	lock := s.journalLock(journalID)
	lock.Lock()
	defer lock.Unlock()

	// Period gate first: a closed period rejects before any line work.
	periodRef := company.FiscalCalendar.PeriodFor(req.EntryDate)
	state, err := s.periodStateOf(ctx, journalID, periodRef)
	if err != nil {
		return nil, err
	}
	switch state {
	case domain.PeriodClosed:
		return nil, fmt.Errorf("%w: %d-%02d of journal %s", apperrors.ErrPeriodClosed, periodRef.FiscalYear, periodRef.Period, journalID)
	case domain.PeriodSoftClosed:
		if !req.OverrideSoftClose {
			return nil, fmt.Errorf("%w: %d-%02d needs an approved override", apperrors.ErrPeriodSoftClosed, periodRef.FiscalYear, periodRef.Period)
		}
		if strings.TrimSpace(req.ApprovalReference) == "" {
			return nil, fmt.Errorf("%w: soft-close override for %d-%02d", apperrors.ErrMissingApproval, periodRef.FiscalYear, periodRef.Period)
		}
	}

	lines, err := s.buildLines(ctx, company, req)
	if err != nil {
		return nil, err
	}

	origin := req.Origin
	if origin == "" {
		origin = domain.OriginManual
	}

	entryNumber, err := s.ledgerRepo.NextEntryNumber(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate entry number: %w", err)
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		EntryID:              uuid.NewString(),
		JournalID:            journalID,
		CompanyID:            companyID,
		EntryNumber:          entryNumber,
		EntryDate:            req.EntryDate,
		Memo:                 req.Memo,
		Status:               domain.Posted,
		Origin:               origin,
		ReconciliationStatus: domain.Unreconciled,
		SourceDocumentID:     req.SourceDocumentID,
		Lines:                lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	for i := range entry.Lines {
		entry.Lines[i].EntryID = entry.EntryID
	}

	if err := s.ledgerRepo.SaveEntry(ctx, entry); err != nil {
		logger.Error("Failed to save entry", slog.String("journal_id", journalID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	debits, _ := entry.FunctionalTotals()
	detail := fmt.Sprintf(`{"entryNumber":%d,"functionalTotalMinor":%d}`, entry.EntryNumber, debits)
	if _, err := s.auditSvc.Record(ctx, companyID, "journal_entry", entry.EntryID, domain.AuditEntryPosted, actor, detail); err != nil {
		return nil, err
	}
	s.counters.IncEntriesPosted()

	logger.Info("Entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.Int64("entry_number", entry.EntryNumber),
		slog.String("journal_id", journalID))
	return &entry, nil
}

// buildLines validates accounts and currencies and restates every line in
// the company's functional currency.
func (s *ledgerService) buildLines(ctx context.Context, company *domain.Company, req dto.PostEntryRequest) ([]domain.JournalLine, error) {
	if len(req.Lines) < 2 {
		return nil, fmt.Errorf("%w: entry needs at least two lines, got %d", apperrors.ErrValidation, len(req.Lines))
	}

	accountIDs := make([]string, 0, len(req.Lines))
	seen := make(map[string]bool, len(req.Lines))
	for _, line := range req.Lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			accountIDs = append(accountIDs, line.AccountID)
		}
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, company.CompanyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	base := company.BaseCurrencyCode
	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		account, found := accounts[lineReq.AccountID]
		if !found {
			return nil, fmt.Errorf("%w: line %d references unknown account %s", apperrors.ErrValidation, i+1, lineReq.AccountID)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: line %d posts to %s (%s)", apperrors.ErrInactiveAccount, i+1, account.Code, account.Name)
		}
		if account.IsSummary {
			return nil, fmt.Errorf("%w: line %d posts to %s (%s)", apperrors.ErrSummaryPosting, i+1, account.Code, account.Name)
		}
		if lineReq.AmountMinor <= 0 {
			return nil, fmt.Errorf("%w: line %d amount must be positive", apperrors.ErrValidation, i+1)
		}

		currency := strings.ToUpper(lineReq.CurrencyCode)
		switch account.CurrencyMode {
		case domain.FunctionalOnly:
			if currency != base {
				return nil, fmt.Errorf("%w: line %d uses %s but account %s accepts only %s", apperrors.ErrValidation, i+1, currency, account.Code, base)
			}
		case domain.Transactional:
			if currency != base && currency != account.CurrencyCode {
				return nil, fmt.Errorf("%w: line %d uses %s but account %s accepts %s or %s", apperrors.ErrValidation, i+1, currency, account.Code, base, account.CurrencyCode)
			}
		}

		line := domain.JournalLine{
			LineID:       uuid.NewString(),
			AccountID:    lineReq.AccountID,
			Side:         lineReq.Side,
			AmountMinor:  lineReq.AmountMinor,
			CurrencyCode: currency,
			Memo:         lineReq.Memo,
		}

		if currency == base {
			line.FunctionalAmountMinor = lineReq.AmountMinor
		} else {
			converted, rate, err := s.fxSvc.Convert(ctx, lineReq.AmountMinor, currency, base, "", req.EntryDate)
			if err != nil {
				return nil, err
			}
			line.FunctionalAmountMinor = converted
			if rate != nil {
				rateValue := rate.Rate
				line.RateUsed = &rateValue
				line.RateSource = rate.Source
				if line.RateSource == "" {
					line.RateSource = string(rate.RateType)
				}
			}
		}
		lines[i] = line
	}

	var debits, credits int64
	for _, line := range lines {
		switch line.Side {
		case domain.Debit:
			debits += line.FunctionalAmountMinor
		case domain.Credit:
			credits += line.FunctionalAmountMinor
		}
	}
	if debits != credits {
		precision := 2
		if baseCurrency, err := s.fxSvc.GetCurrency(ctx, base); err == nil {
			precision = baseCurrency.Precision
		}
		return nil, fmt.Errorf("%w: debits %s, credits %s %s",
			apperrors.ErrUnbalancedEntry,
			utils.FormatMinorUnits(debits, precision),
			utils.FormatMinorUnits(credits, precision),
			base)
	}
	return lines, nil
}

// ReverseEntry posts a mirrored adjustment entry and links the pair.
// Legal only for a posted, not yet reversed entry whose period is open or
// soft-closed.
func (s *ledgerService) ReverseEntry(ctx context.Context, companyID string, entryID string, req dto.ReverseEntryRequest, actor string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	original, err := s.ledgerRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		return nil, err
	}

	lock := s.journalLock(original.JournalID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so concurrent reversals of the same entry
	// cannot both pass the status check.
	original, err = s.ledgerRepo.FindEntryByID(ctx, companyID, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %d is %s, only posted entries can be reversed", apperrors.ErrState, original.EntryNumber, original.Status)
	}
	if original.ReversedByEntryID != "" {
		return nil, fmt.Errorf("%w: entry %d is already reversed by %s", apperrors.ErrState, original.EntryNumber, original.ReversedByEntryID)
	}

	periodRef := company.FiscalCalendar.PeriodFor(original.EntryDate)
	state, err := s.periodStateOf(ctx, original.JournalID, periodRef)
	if err != nil {
		return nil, err
	}
	if state == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: cannot reverse into %d-%02d", apperrors.ErrPeriodClosed, periodRef.FiscalYear, periodRef.Period)
	}

	entryNumber, err := s.ledgerRepo.NextEntryNumber(ctx, original.JournalID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate entry number: %w", err)
	}

	now := time.Now().UTC()
	reversal := domain.JournalEntry{
		EntryID:              uuid.NewString(),
		JournalID:            original.JournalID,
		CompanyID:            companyID,
		EntryNumber:          entryNumber,
		EntryDate:            original.EntryDate,
		Memo:                 fmt.Sprintf("Reversal of entry %d: %s", original.EntryNumber, req.Reason),
		Status:               domain.Posted,
		Origin:               domain.OriginAdjustment,
		ReconciliationStatus: domain.Unreconciled,
		ReversesEntryID:      original.EntryID,
		Lines:                make([]domain.JournalLine, len(original.Lines)),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}
	for i, line := range original.Lines {
		mirrored := line
		mirrored.LineID = uuid.NewString()
		mirrored.EntryID = reversal.EntryID
		if line.Side == domain.Debit {
			mirrored.Side = domain.Credit
		} else {
			mirrored.Side = domain.Debit
		}
		reversal.Lines[i] = mirrored
	}

	if err := s.ledgerRepo.SaveEntry(ctx, reversal); err != nil {
		logger.Error("Failed to save reversal entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save reversal entry: %w", err)
	}
	if err := s.ledgerRepo.MarkReversed(ctx, original.EntryID, reversal.EntryID, actor, now); err != nil {
		return nil, fmt.Errorf("failed to mark entry reversed: %w", err)
	}

	detail := fmt.Sprintf(`{"reverses":%q,"reason":%q}`, original.EntryID, req.Reason)
	if _, err := s.auditSvc.Record(ctx, companyID, "journal_entry", reversal.EntryID, domain.AuditEntryReversed, actor, detail); err != nil {
		return nil, err
	}
	s.counters.IncEntriesReversed()

	logger.Info("Entry reversed",
		slog.String("original_entry_id", original.EntryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	return &reversal, nil
}

// ApplyPeriodLock applies one lock action, enforcing the state machine and
// the approval requirement of CLOSE and REOPEN_FULL.
func (s *ledgerService) ApplyPeriodLock(ctx context.Context, companyID string, journalID string, req dto.ApplyPeriodLockRequest, actor string) (*domain.PeriodLock, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.ledgerRepo.FindJournalByID(ctx, companyID, journalID); err != nil {
		return nil, err
	}

	lock := s.journalLock(journalID)
	lock.Lock()
	defer lock.Unlock()

	ref := domain.PeriodRef{FiscalYear: req.FiscalYear, Period: req.Period}
	current, err := s.periodStateOf(ctx, journalID, ref)
	if err != nil {
		return nil, err
	}

	next, err := domain.NextPeriodState(current, req.Action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLockTransition, err)
	}
	if req.Action.RequiresApproval() && strings.TrimSpace(req.ApprovalReference) == "" {
		return nil, fmt.Errorf("%w: %s on %d-%02d", apperrors.ErrMissingApproval, req.Action, req.FiscalYear, req.Period)
	}

	periodLock := domain.PeriodLock{
		LockID:            uuid.NewString(),
		JournalID:         journalID,
		FiscalYear:        req.FiscalYear,
		Period:            req.Period,
		Action:            req.Action,
		ResultingState:    next,
		ApprovalReference: req.ApprovalReference,
		LockedBy:          actor,
		LockedAt:          time.Now().UTC(),
	}
	if err := s.ledgerRepo.AppendPeriodLock(ctx, periodLock); err != nil {
		return nil, fmt.Errorf("failed to append period lock: %w", err)
	}

	detail := fmt.Sprintf(`{"fiscalYear":%d,"period":%d,"action":%q,"state":%q}`, req.FiscalYear, req.Period, req.Action, next)
	if _, err := s.auditSvc.Record(ctx, companyID, "period_lock", periodLock.LockID, domain.AuditPeriodLockApplied, actor, detail); err != nil {
		return nil, err
	}
	s.counters.IncPeriodLocksApplied()

	logger.Info("Period lock applied",
		slog.String("journal_id", journalID),
		slog.Int("fiscal_year", req.FiscalYear),
		slog.Int("period", req.Period),
		slog.String("action", string(req.Action)),
		slog.String("state", string(next)))
	return &periodLock, nil
}

// GetPeriodState derives the effective state of a period.
func (s *ledgerService) GetPeriodState(ctx context.Context, companyID string, journalID string, fiscalYear int, period int) (domain.PeriodState, error) {
	if _, err := s.ledgerRepo.FindJournalByID(ctx, companyID, journalID); err != nil {
		return "", err
	}
	return s.periodStateOf(ctx, journalID, domain.PeriodRef{FiscalYear: fiscalYear, Period: period})
}

// RevalueCurrency restates multi-currency balances at the snapshot rates
// and posts one balancing adjustment entry per currency exposure. Re-runs
// with the same snapshot are no-ops returning the prior entries.
func (s *ledgerService) RevalueCurrency(ctx context.Context, companyID string, journalID string, req dto.RevaluationRequest, actor string) (*dto.RevaluationResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledgerRepo.FindJournalByID(ctx, companyID, journalID); err != nil {
		return nil, err
	}

	lock := s.journalLock(journalID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.ledgerRepo.FindRevaluationEntries(ctx, journalID, req.FiscalYear, req.Period, req.SnapshotID)
	if err == nil {
		logger.Info("Revaluation snapshot already applied", slog.String("snapshot_id", req.SnapshotID))
		return &dto.RevaluationResponse{EntryIDs: existing, AlreadyApplied: true}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check prior revaluations: %w", err)
	}

	ref := domain.PeriodRef{FiscalYear: req.FiscalYear, Period: req.Period}
	state, err := s.periodStateOf(ctx, journalID, ref)
	if err != nil {
		return nil, err
	}
	if state == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: cannot revalue %d-%02d", apperrors.ErrPeriodClosed, req.FiscalYear, req.Period)
	}

	snapshotRates := make(map[string]decimal.Decimal, len(req.Rates))
	for _, r := range req.Rates {
		if !r.Rate.IsPositive() {
			return nil, fmt.Errorf("%w: snapshot rate for %s must be positive", apperrors.ErrValidation, r.CurrencyCode)
		}
		snapshotRates[strings.ToUpper(r.CurrencyCode)] = r.Rate
	}

	fxAccount, err := s.accountRepo.FindAccountByCode(ctx, companyID, FXGainLossAccountCode)
	if err != nil {
		return nil, fmt.Errorf("%w: FX gain/loss account %s is missing", apperrors.ErrValidation, FXGainLossAccountCode)
	}

	base := company.BaseCurrencyCode
	basePrecision := 2
	if baseCurrency, err := s.fxSvc.GetCurrency(ctx, base); err == nil {
		basePrecision = baseCurrency.Precision
	}

	exposures, err := s.ledgerRepo.AccountCurrencyExposures(ctx, companyID, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate currency exposures: %w", err)
	}

	// Group adjustments by currency so each exposure currency gets exactly
	// one adjustment entry.
	type adjustment struct {
		accountID  string
		deltaMinor int64
	}
	byCurrency := make(map[string][]adjustment)
	currencies := make([]string, 0)
	for _, exposure := range exposures {
		rate, ok := snapshotRates[exposure.CurrencyCode]
		if !ok {
			continue
		}
		precision := basePrecision
		if currency, err := s.fxSvc.GetCurrency(ctx, exposure.CurrencyCode); err == nil {
			precision = currency.Precision
		}
		target := ConvertMinor(exposure.AmountMinor, rate, precision, basePrecision)
		delta := target - exposure.FunctionalAmountMinor
		if delta == 0 {
			continue
		}
		if _, seen := byCurrency[exposure.CurrencyCode]; !seen {
			currencies = append(currencies, exposure.CurrencyCode)
		}
		byCurrency[exposure.CurrencyCode] = append(byCurrency[exposure.CurrencyCode], adjustment{accountID: exposure.AccountID, deltaMinor: delta})
	}
	sort.Strings(currencies)

	now := time.Now().UTC()
	entryIDs := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		rate := snapshotRates[currency]
		entryNumber, err := s.ledgerRepo.NextEntryNumber(ctx, journalID)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate entry number: %w", err)
		}

		entry := domain.JournalEntry{
			EntryID:              uuid.NewString(),
			JournalID:            journalID,
			CompanyID:            companyID,
			EntryNumber:          entryNumber,
			EntryDate:            now,
			Memo:                 fmt.Sprintf("Currency revaluation %s %d-%02d snapshot %s", currency, req.FiscalYear, req.Period, req.SnapshotID),
			Status:               domain.Posted,
			Origin:               domain.OriginAdjustment,
			ReconciliationStatus: domain.Unreconciled,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor,
				LastUpdatedAt: now,
				LastUpdatedBy: actor,
			},
		}

		rateSource := "revaluation:" + req.SnapshotID
		for _, adj := range byCurrency[currency] {
			accountSide, fxSide := domain.Debit, domain.Credit
			amount := adj.deltaMinor
			if amount < 0 {
				accountSide, fxSide = domain.Credit, domain.Debit
				amount = -amount
			}
			rateValue := rate
			entry.Lines = append(entry.Lines,
				domain.JournalLine{
					LineID:                uuid.NewString(),
					EntryID:               entry.EntryID,
					AccountID:             adj.accountID,
					Side:                  accountSide,
					AmountMinor:           amount,
					CurrencyCode:          base,
					FunctionalAmountMinor: amount,
					RateUsed:              &rateValue,
					RateSource:            rateSource,
				},
				domain.JournalLine{
					LineID:                uuid.NewString(),
					EntryID:               entry.EntryID,
					AccountID:             fxAccount.AccountID,
					Side:                  fxSide,
					AmountMinor:           amount,
					CurrencyCode:          base,
					FunctionalAmountMinor: amount,
					RateUsed:              &rateValue,
					RateSource:            rateSource,
				})
		}

		if err := s.ledgerRepo.SaveEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to save revaluation entry: %w", err)
		}
		detail := fmt.Sprintf(`{"currency":%q,"snapshotID":%q}`, currency, req.SnapshotID)
		if _, err := s.auditSvc.Record(ctx, companyID, "journal_entry", entry.EntryID, domain.AuditRevaluationPosted, actor, detail); err != nil {
			return nil, err
		}
		s.counters.IncRevaluationsPosted()
		entryIDs = append(entryIDs, entry.EntryID)
	}

	if err := s.ledgerRepo.RecordRevaluation(ctx, journalID, req.FiscalYear, req.Period, req.SnapshotID, entryIDs); err != nil {
		return nil, fmt.Errorf("failed to record revaluation run: %w", err)
	}

	logger.Info("Revaluation posted",
		slog.String("journal_id", journalID),
		slog.String("snapshot_id", req.SnapshotID),
		slog.Int("entries", len(entryIDs)))
	return &dto.RevaluationResponse{EntryIDs: entryIDs, AlreadyApplied: false}, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	return s.ledgerRepo.FindEntryByID(ctx, companyID, entryID)
}

// ListEntries retrieves a paginated list of entries for a journal.
func (s *ledgerService) ListEntries(ctx context.Context, companyID string, journalID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if _, err := s.ledgerRepo.FindJournalByID(ctx, companyID, journalID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultEntryPageSize
	}
	if limit > maxEntryPageSize {
		limit = maxEntryPageSize
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByJournal(ctx, journalID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	resp := &dto.ListEntriesResponse{
		Entries:   make([]dto.EntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		resp.Entries[i] = dto.ToEntryResponse(&entries[i])
	}
	return resp, nil
}

// GetAccountBalance returns the net functional balance of an account over
// posted entries.
func (s *ledgerService) GetAccountBalance(ctx context.Context, companyID string, accountID string) (int64, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, companyID, accountID); err != nil {
		return 0, err
	}
	return s.ledgerRepo.AccountBalance(ctx, companyID, accountID)
}
