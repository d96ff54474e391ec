package repositories

import (
	"context"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// JournalReader defines read operations for journal metadata
type JournalReader interface {
	// FindJournalByID retrieves a journal by ID, scoped to a company.
	FindJournalByID(ctx context.Context, companyID string, journalID string) (*domain.Journal, error)

	// ListJournals retrieves all journals for a company.
	ListJournals(ctx context.Context, companyID string) ([]domain.Journal, error)
}

// JournalWriter defines write operations for journal metadata
type JournalWriter interface {
	// SaveJournal persists a new journal.
	SaveJournal(ctx context.Context, journal domain.Journal) error
}

// PeriodLockReader reads the append-only lock history of a period.
type PeriodLockReader interface {
	// ListPeriodLocks returns the lock history for one (journal, year, period)
	// ordered oldest first. An empty history means the period is open.
	ListPeriodLocks(ctx context.Context, journalID string, fiscalYear int, period int) ([]domain.PeriodLock, error)
}

// PeriodLockWriter appends lock actions. Lock rows are never updated.
type PeriodLockWriter interface {
	// AppendPeriodLock records one applied lock action.
	AppendPeriodLock(ctx context.Context, lock domain.PeriodLock) error
}

// CurrencyExposure is an aggregate of posted, non-functional-currency lines
// on one account: the transaction-currency balance alongside the functional
// amount currently booked for it.
type CurrencyExposure struct {
	AccountID             string
	CurrencyCode          string
	AmountMinor           int64 // Net signed balance in transaction currency
	FunctionalAmountMinor int64 // Net signed balance currently booked in base currency
}

// EntryReader defines read operations for journal entries
type EntryReader interface {
	// FindEntryByID retrieves an entry with its lines, scoped to a company.
	FindEntryByID(ctx context.Context, companyID string, entryID string) (*domain.JournalEntry, error)

	// ListEntriesByJournal retrieves a paginated list of entries for a journal,
	// newest first. It returns the entries, a token for the next page, and an error.
	ListEntriesByJournal(ctx context.Context, journalID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// ListUnreconciledEntries retrieves posted entries touching the given
	// account that have not been reconciled or written off.
	ListUnreconciledEntries(ctx context.Context, companyID string, accountID string) ([]domain.JournalEntry, error)

	// ListEntriesByMatchCandidate retrieves entries linked to a match
	// candidate, used when a session reopen unwinds its dispositions.
	ListEntriesByMatchCandidate(ctx context.Context, companyID string, matchCandidateID string) ([]domain.JournalEntry, error)

	// AccountBalance returns the net signed functional balance of an account
	// over posted entries.
	AccountBalance(ctx context.Context, companyID string, accountID string) (int64, error)

	// AccountCurrencyExposures aggregates posted foreign-currency lines per
	// (account, currency) for a journal, for period-end revaluation.
	AccountCurrencyExposures(ctx context.Context, companyID string, journalID string) ([]CurrencyExposure, error)
}

// EntryWriter defines write operations for journal entries
type EntryWriter interface {
	// SaveEntry persists an entry and all of its lines atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// NextEntryNumber allocates the next sequential entry number for a journal.
	NextEntryNumber(ctx context.Context, journalID string) (int64, error)

	// MarkReversed flips an entry to REVERSED and links its reversal.
	MarkReversed(ctx context.Context, entryID string, reversedByEntryID string, updatedBy string, updatedAt time.Time) error

	// UpdateEntryReconciliation sets the reconciliation status and candidate
	// link of an entry.
	UpdateEntryReconciliation(ctx context.Context, entryID string, status domain.ReconciliationStatus, matchCandidateID string, updatedBy string, updatedAt time.Time) error
}

// RevaluationReader checks whether a revaluation run already happened.
type RevaluationReader interface {
	// FindRevaluationEntries returns the entry IDs a previous run with the
	// same snapshot produced, or ErrNotFound when the run is new.
	FindRevaluationEntries(ctx context.Context, journalID string, fiscalYear int, period int, snapshotID string) ([]string, error)
}

// RevaluationWriter records a completed revaluation run.
type RevaluationWriter interface {
	// RecordRevaluation marks a (journal, year, period, snapshot) run done.
	RecordRevaluation(ctx context.Context, journalID string, fiscalYear int, period int, snapshotID string, entryIDs []string) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
// This is a facade for clients that need access to all operations
type LedgerRepositoryFacade interface {
	JournalReader
	JournalWriter
	PeriodLockReader
	PeriodLockWriter
	EntryReader
	EntryWriter
	RevaluationReader
	RevaluationWriter
}
