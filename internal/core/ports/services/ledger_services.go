package services

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
)

// JournalSvc defines operations on journal metadata
type JournalSvc interface {
	// CreateJournal creates a new journal in a company.
	CreateJournal(ctx context.Context, companyID string, req dto.CreateJournalRequest, actor string) (*domain.Journal, error)

	// ListJournals retrieves all journals for a company.
	ListJournals(ctx context.Context, companyID string) ([]domain.Journal, error)
}

// EntryReaderSvc defines read operations for entries
type EntryReaderSvc interface {
	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries for a journal.
	ListEntries(ctx context.Context, companyID string, journalID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// GetAccountBalance returns the net functional balance of an account
	// over posted entries.
	GetAccountBalance(ctx context.Context, companyID string, accountID string) (int64, error)
}

// EntryWriterSvc defines posting operations
type EntryWriterSvc interface {
	// PostEntry validates and posts a balanced entry into an open period.
	PostEntry(ctx context.Context, companyID string, journalID string, req dto.PostEntryRequest, actor string) (*domain.JournalEntry, error)

	// ReverseEntry posts a mirrored adjustment entry and links the pair.
	ReverseEntry(ctx context.Context, companyID string, entryID string, req dto.ReverseEntryRequest, actor string) (*domain.JournalEntry, error)
}

// PeriodSvc defines period lock operations
type PeriodSvc interface {
	// ApplyPeriodLock applies one lock action, enforcing the state machine
	// and approval requirements.
	ApplyPeriodLock(ctx context.Context, companyID string, journalID string, req dto.ApplyPeriodLockRequest, actor string) (*domain.PeriodLock, error)

	// GetPeriodState derives the effective state of a period from its
	// lock history.
	GetPeriodState(ctx context.Context, companyID string, journalID string, fiscalYear int, period int) (domain.PeriodState, error)
}

// RevaluationSvc defines period-end revaluation
type RevaluationSvc interface {
	// RevalueCurrency restates multi-currency balances at snapshot rates,
	// posting one balancing adjustment entry per currency exposure.
	// Idempotent per (journal, period, snapshot).
	RevalueCurrency(ctx context.Context, companyID string, journalID string, req dto.RevaluationRequest, actor string) (*dto.RevaluationResponse, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
// This is a facade for clients that need access to all operations
type LedgerSvcFacade interface {
	JournalSvc
	EntryReaderSvc
	EntryWriterSvc
	PeriodSvc
	RevaluationSvc
}
