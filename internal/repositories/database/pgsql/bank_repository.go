package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
)

type PgxBankRepository struct {
	BaseRepository
}

func newPgxBankRepository(pool *pgxpool.Pool) portsrepo.BankTransactionRepositoryFacade {
	return &PgxBankRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxBankRepository implements portsrepo.BankTransactionRepositoryFacade
var _ portsrepo.BankTransactionRepositoryFacade = (*PgxBankRepository)(nil)

const bankColumns = `transaction_id, company_id, bank_account_id, posted_date, description, amount_minor, currency_code, account_hint, source_reference, source_checksum, is_void, reconciled, duplicates_dropped, created_at, created_by, last_updated_at, last_updated_by`

func scanBankTransaction(row interface{ Scan(...any) error }) (*domain.BankTransaction, error) {
	var txn domain.BankTransaction
	var accountHint, sourceReference *string
	err := row.Scan(
		&txn.TransactionID,
		&txn.CompanyID,
		&txn.BankAccountID,
		&txn.PostedDate,
		&txn.Description,
		&txn.AmountMinor,
		&txn.CurrencyCode,
		&accountHint,
		&sourceReference,
		&txn.SourceChecksum,
		&txn.IsVoid,
		&txn.Reconciled,
		&txn.DuplicatesDropped,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if accountHint != nil {
		txn.AccountHint = *accountHint
	}
	if sourceReference != nil {
		txn.SourceReference = *sourceReference
	}
	return &txn, nil
}

// SaveBankTransactions inserts the batch in one database transaction.
func (r *PgxBankRepository) SaveBankTransactions(ctx context.Context, transactions []domain.BankTransaction) error {
	if len(transactions) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO bank_transactions (` + bankColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	batch := &pgx.Batch{}
	for _, txn := range transactions {
		batch.Queue(query,
			txn.TransactionID,
			txn.CompanyID,
			txn.BankAccountID,
			txn.PostedDate,
			txn.Description,
			txn.AmountMinor,
			txn.CurrencyCode,
			nullable(txn.AccountHint),
			nullable(txn.SourceReference),
			txn.SourceChecksum,
			txn.IsVoid,
			txn.Reconciled,
			txn.DuplicatesDropped,
			txn.CreatedAt,
			txn.CreatedBy,
			txn.LastUpdatedAt,
			txn.LastUpdatedBy,
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range transactions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert bank transaction: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close bank transaction batch: %w", err)
	}
	return r.Commit(ctx, tx)
}

func (r *PgxBankRepository) IncrementDuplicatesDropped(ctx context.Context, transactionID string, by int, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE bank_transactions
		SET duplicates_dropped = duplicates_dropped + $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, by, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to bump duplicates on transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

func (r *PgxBankRepository) UpdateBankTransactionReconciled(ctx context.Context, transactionID string, reconciled bool, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE bank_transactions
		SET reconciled = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, reconciled, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update reconciled flag on transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

func (r *PgxBankRepository) FindBankTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions WHERE transaction_id = $1;`
	txn, err := scanBankTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, mapNoRows(err, "bank transaction "+transactionID)
	}
	return txn, nil
}

func (r *PgxBankRepository) FindByChecksum(ctx context.Context, companyID string, bankAccountID string, checksum string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions WHERE company_id = $1 AND bank_account_id = $2 AND source_checksum = $3;`
	txn, err := scanBankTransaction(r.Pool.QueryRow(ctx, query, companyID, bankAccountID, checksum))
	if err != nil {
		return nil, mapNoRows(err, "checksum "+checksum)
	}
	return txn, nil
}

func (r *PgxBankRepository) ListBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions WHERE company_id = $1 AND bank_account_id = $2 ORDER BY posted_date, transaction_id;`
	return r.queryBankTransactions(ctx, query, companyID, bankAccountID)
}

func (r *PgxBankRepository) ListUnreconciledBankTransactions(ctx context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_transactions WHERE company_id = $1 AND bank_account_id = $2 AND reconciled = FALSE AND is_void = FALSE ORDER BY posted_date, transaction_id;`
	return r.queryBankTransactions(ctx, query, companyID, bankAccountID)
}

func (r *PgxBankRepository) queryBankTransactions(ctx context.Context, query string, args ...any) ([]domain.BankTransaction, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.BankTransaction
	for rows.Next() {
		txn, err := scanBankTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction row: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}
