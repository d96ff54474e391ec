package services_test

import (
	"testing"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementCSV = `date,description,amount,currency,reference
2025-03-01,ACME INVOICE 42,150.00,USD,ref-1
2025-03-02,OFFICE RENT,(900.00),USD,ref-2
2025-03-03,BANK FEE REVERSAL,0.00,USD,ref-3
not-a-date,BROKEN ROW,10.00,USD,ref-4
2025-03-04,WIRE IN,1.234,USD,ref-5
`

func ingestCSV(t *testing.T, env *testEnv, payload string) *dto.IngestReport {
	t.Helper()
	report, err := env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		Format:        "csv",
		Payload:       payload,
	}, "tester")
	require.NoError(t, err)
	return report
}

func TestIngestStatement_CSV(t *testing.T) {
	env := newTestEnv(t)

	report := ingestCSV(t, env, statementCSV)

	assert.Equal(t, 3, report.RowsParsed, "only cleanly parsed rows count as parsed")
	assert.Equal(t, 3, report.RowsImported)
	assert.Equal(t, 2, report.RowsFailed, "bad date and over-precise amount are rejected")
	assert.Equal(t, 1, report.VoidRows, "zero amounts import as void rows")
	assert.Equal(t, 0, report.DuplicatesDropped)
	assert.Len(t, report.TransactionIDs, 3)
	require.Len(t, report.RowErrors, 2)
	assert.Equal(t, 5, report.RowErrors[0].Line)
	assert.Equal(t, 6, report.RowErrors[1].Line)

	txns, err := env.services.Ingest.ListBankTransactions(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	byRef := make(map[string]domain.BankTransaction, len(txns))
	for _, txn := range txns {
		byRef[txn.SourceReference] = txn
	}
	assert.Equal(t, int64(15000), byRef["ref-1"].AmountMinor)
	assert.Equal(t, int64(-90000), byRef["ref-2"].AmountMinor, "parenthesized amounts are negative")
	assert.True(t, byRef["ref-3"].IsVoid)
	assert.NotEmpty(t, byRef["ref-1"].SourceChecksum)
}

func TestIngestStatement_ReingestIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first := ingestCSV(t, env, statementCSV)
	require.Equal(t, 3, first.RowsImported)

	second := ingestCSV(t, env, statementCSV)
	assert.Equal(t, 0, second.RowsImported, "re-ingesting the same payload stores nothing")
	assert.Equal(t, 3, second.DuplicatesDropped)
	assert.Empty(t, second.TransactionIDs)

	txns, err := env.services.Ingest.ListBankTransactions(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	assert.Len(t, txns, 3, "store still holds the first batch only")
	for _, txn := range txns {
		assert.Equal(t, 1, txn.DuplicatesDropped, "each stored row remembers its dropped copy")
	}
}

func TestIngestStatement_InPayloadDuplicatesCollapse(t *testing.T) {
	env := newTestEnv(t)

	payload := `date,description,amount,currency,reference
2025-03-01,COFFEE,4.50,USD,dup
2025-03-01,COFFEE,4.50,USD,dup
`
	report := ingestCSV(t, env, payload)
	assert.Equal(t, 1, report.RowsImported)
	assert.Equal(t, 1, report.DuplicatesDropped)
}

func TestIngestStatement_CurrencyDefaultsToAccountCurrency(t *testing.T) {
	env := newTestEnv(t)

	payload := `date,description,amount
2025-03-01,NO CURRENCY COLUMN,12.34
`
	report := ingestCSV(t, env, payload)
	require.Equal(t, 1, report.RowsImported)

	txns, err := env.services.Ingest.ListBankTransactions(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "USD", txns[0].CurrencyCode, "blank currency falls back to the account's currency")
}

func TestIngestStatement_RejectsNonPostableAccount(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.services.Account.UpsertAccount(env.ctx, env.company.CompanyID, dto.UpsertAccountRequest{
		Code:        "1090",
		Name:        "Bank Accounts (header)",
		AccountType: domain.Asset,
		IsSummary:   true,
	}, "tester")
	require.NoError(t, err)

	_, err = env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: summary.AccountID,
		Payload:       statementCSV,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestIngestStatement_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		Format:        "mt940",
		Payload:       statementCSV,
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestIngestStatement_MissingRequiredColumns(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		Payload:       "description,reference\nno amounts here,x\n",
	}, "tester")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "a header without date or amount is a payload-level failure")
}

func TestIngestStatement_OFX(t *testing.T) {
	env := newTestEnv(t)

	payload := `<OFX>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>CREDIT</TRNTYPE>
<DTPOSTED>20250301</DTPOSTED>
<TRNAMT>150.00</TRNAMT>
<FITID>ofx-1</FITID>
<NAME>ACME INVOICE 42</NAME>
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT</TRNTYPE>
<DTPOSTED>20250302120000</DTPOSTED>
<TRNAMT>-900.00</TRNAMT>
<FITID>ofx-2</FITID>
<MEMO>OFFICE RENT</MEMO>
</STMTTRN>
</BANKTRANLIST>
</OFX>`

	report, err := env.services.Ingest.IngestStatement(env.ctx, env.company.CompanyID, dto.IngestStatementRequest{
		BankAccountID: env.account(t, "1000").AccountID,
		Format:        "ofx",
		Payload:       payload,
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, 2, report.RowsParsed)
	assert.Equal(t, 2, report.RowsImported)
	assert.Equal(t, 0, report.RowsFailed)

	txns, err := env.services.Ingest.ListBankTransactions(env.ctx, env.company.CompanyID, env.account(t, "1000").AccountID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	byRef := map[string]domain.BankTransaction{}
	for _, txn := range txns {
		byRef[txn.SourceReference] = txn
	}
	assert.Equal(t, int64(15000), byRef["ofx-1"].AmountMinor)
	assert.Equal(t, "ACME INVOICE 42", byRef["ofx-1"].Description)
	assert.Equal(t, int64(-90000), byRef["ofx-2"].AmountMinor)
}
