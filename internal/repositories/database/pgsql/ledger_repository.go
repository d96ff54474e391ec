package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	"github.com/openbooks-app/openbooks/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// --- Journals ---

func (r *PgxLedgerRepository) SaveJournal(ctx context.Context, journal domain.Journal) error {
	query := `
		INSERT INTO journals (journal_id, company_id, name, journal_type, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		journal.JournalID,
		journal.CompanyID,
		journal.Name,
		journal.JournalType,
		journal.CreatedAt,
		journal.CreatedBy,
		journal.LastUpdatedAt,
		journal.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save journal %s: %w", journal.JournalID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) FindJournalByID(ctx context.Context, companyID string, journalID string) (*domain.Journal, error) {
	query := `
		SELECT journal_id, company_id, name, journal_type, created_at, created_by, last_updated_at, last_updated_by
		FROM journals
		WHERE company_id = $1 AND journal_id = $2;
	`
	var journal domain.Journal
	err := r.Pool.QueryRow(ctx, query, companyID, journalID).Scan(
		&journal.JournalID,
		&journal.CompanyID,
		&journal.Name,
		&journal.JournalType,
		&journal.CreatedAt,
		&journal.CreatedBy,
		&journal.LastUpdatedAt,
		&journal.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNoRows(err, "journal "+journalID)
	}
	return &journal, nil
}

func (r *PgxLedgerRepository) ListJournals(ctx context.Context, companyID string) ([]domain.Journal, error) {
	query := `
		SELECT journal_id, company_id, name, journal_type, created_at, created_by, last_updated_at, last_updated_by
		FROM journals
		WHERE company_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer rows.Close()

	var journals []domain.Journal
	for rows.Next() {
		var journal domain.Journal
		if err := rows.Scan(
			&journal.JournalID,
			&journal.CompanyID,
			&journal.Name,
			&journal.JournalType,
			&journal.CreatedAt,
			&journal.CreatedBy,
			&journal.LastUpdatedAt,
			&journal.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journals = append(journals, journal)
	}
	return journals, rows.Err()
}

// --- Period locks ---

func (r *PgxLedgerRepository) AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error {
	query := `
		INSERT INTO period_locks (lock_id, journal_id, fiscal_year, period, action, resulting_state, approval_reference, locked_by, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		lock.LockID,
		lock.JournalID,
		lock.FiscalYear,
		lock.Period,
		lock.Action,
		lock.ResultingState,
		lock.ApprovalReference,
		lock.LockedBy,
		lock.LockedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append period lock: %w", err)
	}
	return nil
}

func (r *PgxLedgerRepository) ListPeriodLocks(ctx context.Context, journalID string, fiscalYear int, period int) ([]domain.PeriodLock, error) {
	query := `
		SELECT lock_id, journal_id, fiscal_year, period, action, resulting_state, approval_reference, locked_by, locked_at
		FROM period_locks
		WHERE journal_id = $1 AND fiscal_year = $2 AND period = $3
		ORDER BY locked_at, lock_id;
	`
	rows, err := r.Pool.Query(ctx, query, journalID, fiscalYear, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list period locks: %w", err)
	}
	defer rows.Close()

	var locks []domain.PeriodLock
	for rows.Next() {
		var lock domain.PeriodLock
		if err := rows.Scan(
			&lock.LockID,
			&lock.JournalID,
			&lock.FiscalYear,
			&lock.Period,
			&lock.Action,
			&lock.ResultingState,
			&lock.ApprovalReference,
			&lock.LockedBy,
			&lock.LockedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan period lock row: %w", err)
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

// --- Entries ---

const entryColumns = `entry_id, journal_id, company_id, entry_number, entry_date, memo, status, origin, reconciliation_status, source_document_id, match_candidate_id, reverses_entry_id, reversed_by_entry_id, created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row interface{ Scan(...any) error }) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var sourceDocumentID, matchCandidateID, reversesEntryID, reversedByEntryID *string
	err := row.Scan(
		&entry.EntryID,
		&entry.JournalID,
		&entry.CompanyID,
		&entry.EntryNumber,
		&entry.EntryDate,
		&entry.Memo,
		&entry.Status,
		&entry.Origin,
		&entry.ReconciliationStatus,
		&sourceDocumentID,
		&matchCandidateID,
		&reversesEntryID,
		&reversedByEntryID,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if sourceDocumentID != nil {
		entry.SourceDocumentID = *sourceDocumentID
	}
	if matchCandidateID != nil {
		entry.MatchCandidateID = *matchCandidateID
	}
	if reversesEntryID != nil {
		entry.ReversesEntryID = *reversesEntryID
	}
	if reversedByEntryID != nil {
		entry.ReversedByEntryID = *reversedByEntryID
	}
	return &entry, nil
}

// qualified prefixes every column in a comma-separated list with a table alias.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SaveEntry persists the entry and its lines in one transaction.
func (r *PgxLedgerRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	entryQuery := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = tx.Exec(ctx, entryQuery,
		entry.EntryID,
		entry.JournalID,
		entry.CompanyID,
		entry.EntryNumber,
		entry.EntryDate,
		entry.Memo,
		entry.Status,
		entry.Origin,
		entry.ReconciliationStatus,
		nullable(entry.SourceDocumentID),
		nullable(entry.MatchCandidateID),
		nullable(entry.ReversesEntryID),
		nullable(entry.ReversedByEntryID),
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}

	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, side, amount_minor, currency_code, functional_amount_minor, rate_used, rate_source, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, line := range entry.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.Side,
			line.AmountMinor,
			line.CurrencyCode,
			line.FunctionalAmountMinor,
			line.RateUsed,
			nullable(line.RateSource),
			nullable(line.Memo),
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range entry.Lines {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert lines for entry %s: %w", entry.EntryID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close line batch: %w", err)
	}

	return r.Commit(ctx, tx)
}

// NextEntryNumber allocates the next sequential number for a journal using
// an upserted per-journal counter row.
func (r *PgxLedgerRepository) NextEntryNumber(ctx context.Context, journalID string) (int64, error) {
	query := `
		INSERT INTO journal_counters (journal_id, next_number)
		VALUES ($1, 1)
		ON CONFLICT (journal_id)
		DO UPDATE SET next_number = journal_counters.next_number + 1
		RETURNING next_number;
	`
	var number int64
	if err := r.Pool.QueryRow(ctx, query, journalID).Scan(&number); err != nil {
		return 0, fmt.Errorf("failed to allocate entry number for journal %s: %w", journalID, err)
	}
	return number, nil
}

func (r *PgxLedgerRepository) MarkReversed(ctx context.Context, entryID string, reversedByEntryID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2, reversed_by_entry_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, entryID, domain.Reversed, reversedByEntryID, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark entry %s reversed: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

func (r *PgxLedgerRepository) UpdateEntryReconciliation(ctx context.Context, entryID string, status domain.ReconciliationStatus, matchCandidateID string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET reconciliation_status = $2, match_candidate_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, entryID, status, nullable(matchCandidateID), updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update reconciliation of entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE company_id = $1 AND entry_id = $2;`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, companyID, entryID))
	if err != nil {
		return nil, mapNoRows(err, "entry "+entryID)
	}
	if err := r.loadLines(ctx, []*domain.JournalEntry{entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// loadLines attaches lines to the given entries in one query.
func (r *PgxLedgerRepository) loadLines(ctx context.Context, entries []*domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	byID := make(map[string]*domain.JournalEntry, len(entries))
	for i, entry := range entries {
		ids[i] = entry.EntryID
		byID[entry.EntryID] = entry
	}

	query := `
		SELECT line_id, entry_id, account_id, side, amount_minor, currency_code, functional_amount_minor, rate_used, rate_source, memo
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load entry lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.JournalLine
		var rateSource, memo *string
		if err := rows.Scan(
			&line.LineID,
			&line.EntryID,
			&line.AccountID,
			&line.Side,
			&line.AmountMinor,
			&line.CurrencyCode,
			&line.FunctionalAmountMinor,
			&line.RateUsed,
			&rateSource,
			&memo,
		); err != nil {
			return fmt.Errorf("failed to scan line row: %w", err)
		}
		if rateSource != nil {
			line.RateSource = *rateSource
		}
		if memo != nil {
			line.Memo = *memo
		}
		if entry, ok := byID[line.EntryID]; ok {
			entry.Lines = append(entry.Lines, line)
		}
	}
	return rows.Err()
}

func (r *PgxLedgerRepository) ListEntriesByJournal(ctx context.Context, journalID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := []any{journalID}
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE journal_id = $1`
	if nextToken != nil && *nextToken != "" {
		entryDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (entry_date, created_at) < ($2, $3)`
		args = append(args, entryDate, createdAt)
	}
	query += fmt.Sprintf(` ORDER BY entry_date DESC, created_at DESC LIMIT %d;`, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		encoded := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		token = &encoded
	}

	if err := r.loadLines(ctx, entries); err != nil {
		return nil, nil, err
	}

	result := make([]domain.JournalEntry, len(entries))
	for i, entry := range entries {
		result[i] = *entry
	}
	return result, token, nil
}

func (r *PgxLedgerRepository) ListUnreconciledEntries(ctx context.Context, companyID string, accountID string) ([]domain.JournalEntry, error) {
	query := `
		SELECT DISTINCT ` + qualified(entryColumns, "e") + `
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.entry_id
		WHERE e.company_id = $1
			AND l.account_id = $2
			AND e.status = $3
			AND e.reconciliation_status = $4
		ORDER BY e.entry_date, e.entry_id;
	`
	return r.queryEntries(ctx, query, companyID, accountID, domain.Posted, domain.Unreconciled)
}

func (r *PgxLedgerRepository) ListEntriesByMatchCandidate(ctx context.Context, companyID string, matchCandidateID string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE company_id = $1 AND match_candidate_id = $2 ORDER BY entry_date, entry_id;`
	return r.queryEntries(ctx, query, companyID, matchCandidateID)
}

func (r *PgxLedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, entries); err != nil {
		return nil, err
	}

	result := make([]domain.JournalEntry, len(entries))
	for i, entry := range entries {
		result[i] = *entry
	}
	return result, nil
}

func (r *PgxLedgerRepository) AccountBalance(ctx context.Context, companyID string, accountID string) (int64, error) {
	// Reversed entries still count: a reversal nets against its original
	// rather than erasing it.
	query := `
		SELECT COALESCE(SUM(CASE WHEN l.side = 'DEBIT' THEN l.functional_amount_minor ELSE -l.functional_amount_minor END), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.company_id = $1 AND l.account_id = $2 AND e.status IN ($3, $4);
	`
	var balance int64
	if err := r.Pool.QueryRow(ctx, query, companyID, accountID, domain.Posted, domain.Reversed).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute account balance: %w", err)
	}
	return balance, nil
}

func (r *PgxLedgerRepository) AccountCurrencyExposures(ctx context.Context, companyID string, journalID string) ([]portsrepo.CurrencyExposure, error) {
	query := `
		SELECT l.account_id, l.currency_code,
			SUM(CASE WHEN l.side = 'DEBIT' THEN l.amount_minor ELSE -l.amount_minor END),
			SUM(CASE WHEN l.side = 'DEBIT' THEN l.functional_amount_minor ELSE -l.functional_amount_minor END)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		JOIN accounts a ON a.account_id = l.account_id
		JOIN companies c ON c.company_id = e.company_id
		WHERE e.company_id = $1
			AND e.journal_id = $2
			AND e.status IN ($3, $4)
			AND a.currency_mode <> $5
			AND l.currency_code <> c.base_currency_code
		GROUP BY l.account_id, l.currency_code
		ORDER BY l.account_id, l.currency_code;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, journalID, domain.Posted, domain.Reversed, domain.FunctionalOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate currency exposures: %w", err)
	}
	defer rows.Close()

	var exposures []portsrepo.CurrencyExposure
	for rows.Next() {
		var exposure portsrepo.CurrencyExposure
		if err := rows.Scan(&exposure.AccountID, &exposure.CurrencyCode, &exposure.AmountMinor, &exposure.FunctionalAmountMinor); err != nil {
			return nil, fmt.Errorf("failed to scan exposure row: %w", err)
		}
		exposures = append(exposures, exposure)
	}
	return exposures, rows.Err()
}

// --- Revaluations ---

func (r *PgxLedgerRepository) FindRevaluationEntries(ctx context.Context, journalID string, fiscalYear int, period int, snapshotID string) ([]string, error) {
	query := `
		SELECT entry_ids
		FROM revaluations
		WHERE journal_id = $1 AND fiscal_year = $2 AND period = $3 AND snapshot_id = $4;
	`
	var entryIDs []string
	err := r.Pool.QueryRow(ctx, query, journalID, fiscalYear, period, snapshotID).Scan(&entryIDs)
	if err != nil {
		return nil, mapNoRows(err, "revaluation snapshot "+snapshotID)
	}
	return entryIDs, nil
}

func (r *PgxLedgerRepository) RecordRevaluation(ctx context.Context, journalID string, fiscalYear int, period int, snapshotID string, entryIDs []string) error {
	query := `
		INSERT INTO revaluations (journal_id, fiscal_year, period, snapshot_id, entry_ids)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := r.Pool.Exec(ctx, query, journalID, fiscalYear, period, snapshotID, entryIDs); err != nil {
		return fmt.Errorf("failed to record revaluation run: %w", err)
	}
	return nil
}
