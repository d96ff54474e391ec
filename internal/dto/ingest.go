package dto

import "github.com/openbooks-app/openbooks/internal/ingest"

// IngestStatementRequest carries one raw statement payload.
type IngestStatementRequest struct {
	BankAccountID string `json:"bankAccountID" binding:"required"`
	Format        string `json:"format" binding:"omitempty,oneof=csv ofx"` // Defaults to csv
	Payload       string `json:"payload" binding:"required"`
}

// IngestReport summarizes one ingestion run. Failed rows never abort the
// batch; they are listed here instead. RowsParsed counts only rows that
// parsed cleanly; failures are in RowsFailed.
type IngestReport struct {
	RowsParsed        int               `json:"rowsParsed"`
	RowsImported      int               `json:"rowsImported"`
	RowsFailed        int               `json:"rowsFailed"`
	DuplicatesDropped int               `json:"duplicatesDropped"`
	VoidRows          int               `json:"voidRows"`
	RowErrors         []ingest.RowError `json:"rowErrors,omitempty"`
	TransactionIDs    []string          `json:"transactionIDs"`
}
