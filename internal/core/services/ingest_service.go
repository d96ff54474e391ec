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
	"github.com/openbooks-app/openbooks/internal/ingest"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/telemetry"
)

// ingestService normalizes raw statement payloads into stored bank
// transactions.
type ingestService struct {
	companyRepo portsrepo.CompanyReader
	accountRepo portsrepo.AccountReader
	bankRepo    portsrepo.BankTransactionRepositoryFacade
	fxSvc       portssvc.CurrencyReaderSvc
	auditSvc    portssvc.AuditRecorderSvc
	counters    *telemetry.Counters
}

// NewIngestService creates a new IngestService.
func NewIngestService(companyRepo portsrepo.CompanyReader, accountRepo portsrepo.AccountReader, bankRepo portsrepo.BankTransactionRepositoryFacade, fxSvc portssvc.CurrencyReaderSvc, auditSvc portssvc.AuditRecorderSvc, counters *telemetry.Counters) portssvc.IngestSvcFacade {
	return &ingestService{
		companyRepo: companyRepo,
		accountRepo: accountRepo,
		bankRepo:    bankRepo,
		fxSvc:       fxSvc,
		auditSvc:    auditSvc,
		counters:    counters,
	}
}

// Ensure ingestService implements the portssvc.IngestSvcFacade interface
var _ portssvc.IngestSvcFacade = (*ingestService)(nil)

// IngestStatement parses, normalizes and deduplicates one statement payload.
// Malformed rows are reported in the result, never fatal. Re-ingesting the
// same payload stores nothing new; it only bumps duplicate counters.
func (s *ingestService) IngestStatement(ctx context.Context, companyID string, req dto.IngestStatementRequest, actor string) (*dto.IngestReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	company, err := s.companyRepo.FindCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	bankAccount, err := s.accountRepo.FindAccountByID(ctx, companyID, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	if !bankAccount.AllowsPosting() {
		return nil, fmt.Errorf("%w: account %s cannot hold bank transactions", apperrors.ErrValidation, bankAccount.Code)
	}

	// Amounts without an explicit currency in the payload are parsed at the
	// bank account's own currency precision.
	statementCurrency := bankAccount.CurrencyCode
	if statementCurrency == "" {
		statementCurrency = company.BaseCurrencyCode
	}
	precision := 2
	if currency, err := s.fxSvc.GetCurrency(ctx, statementCurrency); err == nil {
		precision = currency.Precision
	}

	parser, err := ingest.ParserFor(req.Format, precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	rows, rowErrors, err := parser.Parse([]byte(req.Payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	report := &dto.IngestReport{
		RowsParsed: len(rows),
		RowsFailed: len(rowErrors),
		RowErrors:  rowErrors,
	}

	now := time.Now().UTC()
	batch := make([]domain.BankTransaction, 0, len(rows))
	// Checksum of each row kept in this batch -> its index in batch, so
	// in-payload duplicates collapse onto their first occurrence.
	kept := make(map[string]int, len(rows))

	for _, row := range rows {
		if row.CurrencyCode == "" {
			row.CurrencyCode = statementCurrency
		}
		checksum := ingest.RowChecksum(row)

		if idx, ok := kept[checksum]; ok {
			batch[idx].DuplicatesDropped++
			report.DuplicatesDropped++
			continue
		}

		stored, err := s.bankRepo.FindByChecksum(ctx, companyID, req.BankAccountID, checksum)
		if err == nil {
			if err := s.bankRepo.IncrementDuplicatesDropped(ctx, stored.TransactionID, 1, actor, now); err != nil {
				return nil, fmt.Errorf("failed to bump duplicate counter: %w", err)
			}
			report.DuplicatesDropped++
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check checksum: %w", err)
		}

		txn := domain.BankTransaction{
			TransactionID:   uuid.NewString(),
			CompanyID:       companyID,
			BankAccountID:   req.BankAccountID,
			PostedDate:      row.PostedDate,
			Description:     row.Description,
			AmountMinor:     row.AmountMinor,
			CurrencyCode:    row.CurrencyCode,
			AccountHint:     row.AccountHint,
			SourceReference: row.SourceReference,
			SourceChecksum:  checksum,
			IsVoid:          row.IsVoid,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor,
				LastUpdatedAt: now,
				LastUpdatedBy: actor,
			},
		}
		if txn.IsVoid {
			report.VoidRows++
		}
		kept[checksum] = len(batch)
		batch = append(batch, txn)
	}

	if len(batch) > 0 {
		if err := s.bankRepo.SaveBankTransactions(ctx, batch); err != nil {
			logger.Error("Failed to save bank transactions", slog.String("bank_account_id", req.BankAccountID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save bank transactions: %w", err)
		}
	}

	report.RowsImported = len(batch)
	report.TransactionIDs = make([]string, len(batch))
	for i := range batch {
		report.TransactionIDs[i] = batch[i].TransactionID
	}

	s.counters.IncStatementsIngested()
	s.counters.AddRowsImported(uint64(report.RowsImported))
	s.counters.AddRowsFailed(uint64(report.RowsFailed))
	s.counters.AddDuplicatesDropped(uint64(report.DuplicatesDropped))

	detail := fmt.Sprintf(`{"bankAccountID":%q,"imported":%d,"failed":%d,"duplicates":%d}`,
		req.BankAccountID, report.RowsImported, report.RowsFailed, report.DuplicatesDropped)
	if _, err := s.auditSvc.Record(ctx, companyID, "bank_statement", req.BankAccountID, domain.AuditStatementIngested, actor, detail); err != nil {
		return nil, err
	}

	logger.Info("Statement ingested",
		slog.String("bank_account_id", req.BankAccountID),
		slog.Int("rows_imported", report.RowsImported),
		slog.Int("rows_failed", report.RowsFailed),
		slog.Int("duplicates_dropped", report.DuplicatesDropped))
	return report, nil
}

// ListBankTransactions retrieves stored rows for a bank account.
func (s *ingestService) ListBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, companyID, bankAccountID); err != nil {
		return nil, err
	}
	return s.bankRepo.ListBankTransactions(ctx, companyID, bankAccountID)
}
