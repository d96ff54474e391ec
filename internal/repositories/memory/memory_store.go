// Package memory provides a map-backed repository provider. It keeps full
// fidelity with the pgsql semantics (ordering, not-found sentinels, dedupe
// keys) and backs the server when no database is configured, plus the
// heavier service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	"github.com/openbooks-app/openbooks/internal/utils/pagination"
)

// Store implements every repository facade over in-process maps.
type Store struct {
	mu sync.RWMutex

	companies    map[string]domain.Company
	accounts     map[string]domain.Account
	journals     map[string]domain.Journal
	periodLocks  map[string][]domain.PeriodLock // journal|year|period
	entries      map[string]domain.JournalEntry
	entryNumbers map[string]int64    // journal -> last issued number
	revaluations map[string][]string // journal|year|period|snapshot -> entry IDs
	currencies   map[string]domain.Currency
	rates        []domain.CurrencyRate
	bankTxns     map[string]domain.BankTransaction
	sessions     map[string]domain.ReconciliationSession
	candidates   map[string]domain.MatchCandidate
	auditEvents  map[string][]domain.AuditEvent // company -> ordered events
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		companies:    make(map[string]domain.Company),
		accounts:     make(map[string]domain.Account),
		journals:     make(map[string]domain.Journal),
		periodLocks:  make(map[string][]domain.PeriodLock),
		entries:      make(map[string]domain.JournalEntry),
		entryNumbers: make(map[string]int64),
		revaluations: make(map[string][]string),
		currencies:   make(map[string]domain.Currency),
		bankTxns:     make(map[string]domain.BankTransaction),
		sessions:     make(map[string]domain.ReconciliationSession),
		candidates:   make(map[string]domain.MatchCandidate),
		auditEvents:  make(map[string][]domain.AuditEvent),
	}
}

// NewRepositoryProvider wires one shared store into every repository slot.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	store := NewStore()
	return portsrepo.RepositoryProvider{
		CompanyRepo:        store,
		AccountRepo:        store,
		LedgerRepo:         store,
		CurrencyRepo:       store,
		RateRepo:           store,
		BankRepo:           store,
		ReconciliationRepo: store,
		AuditRepo:          store,
	}
}

var (
	_ portsrepo.CompanyRepositoryFacade         = (*Store)(nil)
	_ portsrepo.AccountRepositoryFacade         = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade          = (*Store)(nil)
	_ portsrepo.CurrencyRepositoryFacade        = (*Store)(nil)
	_ portsrepo.RateRepositoryFacade            = (*Store)(nil)
	_ portsrepo.BankTransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.ReconciliationRepositoryFacade  = (*Store)(nil)
	_ portsrepo.AuditRepositoryFacade           = (*Store)(nil)
)

func lockKey(journalID string, fiscalYear, period int) string {
	return fmt.Sprintf("%s|%d|%d", journalID, fiscalYear, period)
}

func revaluationKey(journalID string, fiscalYear, period int, snapshotID string) string {
	return fmt.Sprintf("%s|%d|%d|%s", journalID, fiscalYear, period, snapshotID)
}

// --- Companies ---

func (s *Store) SaveCompany(_ context.Context, company domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companies[company.CompanyID]; exists {
		return fmt.Errorf("%w: company %s", apperrors.ErrDuplicate, company.CompanyID)
	}
	s.companies[company.CompanyID] = company
	return nil
}

func (s *Store) FindCompanyByID(_ context.Context, companyID string) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.companies[companyID]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}
	return &company, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companies := make([]domain.Company, 0, len(s.companies))
	for _, company := range s.companies {
		companies = append(companies, company)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].CreatedAt.Before(companies[j].CreatedAt) })
	return companies, nil
}

// --- Accounts ---

func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.CompanyID == account.CompanyID && existing.Code == account.Code {
			return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
		}
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) UpdateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountID]; !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, companyID string, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok || account.CompanyID != companyID {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *Store) FindAccountByCode(_ context.Context, companyID string, code string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.CompanyID == companyID && account.Code == code {
			return &account, nil
		}
	}
	return nil, fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
}

func (s *Store) FindAccountsByIDs(_ context.Context, companyID string, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok && account.CompanyID == companyID {
			result[id] = account
		}
	}
	return result, nil
}

func (s *Store) ListAccounts(_ context.Context, companyID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []domain.Account
	for _, account := range s.accounts {
		if account.CompanyID == companyID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// --- Journals ---

func (s *Store) SaveJournal(_ context.Context, journal domain.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journals[journal.JournalID] = journal
	return nil
}

func (s *Store) FindJournalByID(_ context.Context, companyID string, journalID string) (*domain.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	journal, ok := s.journals[journalID]
	if !ok || journal.CompanyID != companyID {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return &journal, nil
}

func (s *Store) ListJournals(_ context.Context, companyID string) ([]domain.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var journals []domain.Journal
	for _, journal := range s.journals {
		if journal.CompanyID == companyID {
			journals = append(journals, journal)
		}
	}
	sort.Slice(journals, func(i, j int) bool { return journals[i].CreatedAt.Before(journals[j].CreatedAt) })
	return journals, nil
}

// --- Period locks ---

func (s *Store) AppendPeriodLock(_ context.Context, lock domain.PeriodLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := lockKey(lock.JournalID, lock.FiscalYear, lock.Period)
	s.periodLocks[key] = append(s.periodLocks[key], lock)
	return nil
}

func (s *Store) ListPeriodLocks(_ context.Context, journalID string, fiscalYear int, period int) ([]domain.PeriodLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := lockKey(journalID, fiscalYear, period)
	locks := make([]domain.PeriodLock, len(s.periodLocks[key]))
	copy(locks, s.periodLocks[key])
	return locks, nil
}

// --- Entries ---

func (s *Store) SaveEntry(_ context.Context, entry domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.EntryID]; exists {
		return fmt.Errorf("%w: entry %s", apperrors.ErrDuplicate, entry.EntryID)
	}
	entry.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	s.entries[entry.EntryID] = entry
	return nil
}

func (s *Store) NextEntryNumber(_ context.Context, journalID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryNumbers[journalID]++
	return s.entryNumbers[journalID], nil
}

func (s *Store) MarkReversed(_ context.Context, entryID string, reversedByEntryID string, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	entry.Status = domain.Reversed
	entry.ReversedByEntryID = reversedByEntryID
	entry.LastUpdatedBy = updatedBy
	entry.LastUpdatedAt = updatedAt
	s.entries[entryID] = entry
	return nil
}

func (s *Store) UpdateEntryReconciliation(_ context.Context, entryID string, status domain.ReconciliationStatus, matchCandidateID string, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	entry.ReconciliationStatus = status
	entry.MatchCandidateID = matchCandidateID
	entry.LastUpdatedBy = updatedBy
	entry.LastUpdatedAt = updatedAt
	s.entries[entryID] = entry
	return nil
}

func (s *Store) FindEntryByID(_ context.Context, companyID string, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok || entry.CompanyID != companyID {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrNotFound, entryID)
	}
	entry.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	return &entry, nil
}

func (s *Store) ListEntriesByJournal(_ context.Context, journalID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.JournalEntry
	for _, entry := range s.entries {
		if entry.JournalID == journalID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.After(entries[j].EntryDate)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if nextToken != nil && *nextToken != "" {
		entryDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		idx := sort.Search(len(entries), func(i int) bool {
			if !entries[i].EntryDate.Equal(entryDate) {
				return entries[i].EntryDate.Before(entryDate)
			}
			return entries[i].CreatedAt.Before(createdAt)
		})
		entries = entries[idx:]
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		encoded := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		token = &encoded
	}
	return entries, token, nil
}

func (s *Store) ListUnreconciledEntries(_ context.Context, companyID string, accountID string) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []domain.JournalEntry
	for _, entry := range s.entries {
		if entry.CompanyID != companyID || entry.Status != domain.Posted || entry.ReconciliationStatus != domain.Unreconciled {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountID == accountID {
				entries = append(entries, entry)
				break
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].EntryID < entries[j].EntryID
	})
	return entries, nil
}

func (s *Store) ListEntriesByMatchCandidate(_ context.Context, companyID string, matchCandidateID string) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []domain.JournalEntry
	for _, entry := range s.entries {
		if entry.CompanyID == companyID && entry.MatchCandidateID == matchCandidateID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EntryID < entries[j].EntryID })
	return entries, nil
}

func (s *Store) AccountBalance(_ context.Context, companyID string, accountID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var balance int64
	for _, entry := range s.entries {
		if entry.CompanyID != companyID {
			continue
		}
		// Reversed entries still count: a reversal nets against its
		// original rather than erasing it.
		if entry.Status != domain.Posted && entry.Status != domain.Reversed {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountID != accountID {
				continue
			}
			if line.Side == domain.Debit {
				balance += line.FunctionalAmountMinor
			} else {
				balance -= line.FunctionalAmountMinor
			}
		}
	}
	return balance, nil
}

func (s *Store) AccountCurrencyExposures(_ context.Context, companyID string, journalID string) ([]portsrepo.CurrencyExposure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[companyID]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, companyID)
	}

	type key struct {
		accountID string
		currency  string
	}
	totals := make(map[key]*portsrepo.CurrencyExposure)
	for _, entry := range s.entries {
		if entry.CompanyID != companyID || entry.JournalID != journalID {
			continue
		}
		if entry.Status != domain.Posted && entry.Status != domain.Reversed {
			continue
		}
		for _, line := range entry.Lines {
			if line.CurrencyCode == company.BaseCurrencyCode {
				continue
			}
			account, ok := s.accounts[line.AccountID]
			if !ok || account.CurrencyMode == domain.FunctionalOnly {
				continue
			}
			k := key{line.AccountID, line.CurrencyCode}
			exposure, ok := totals[k]
			if !ok {
				exposure = &portsrepo.CurrencyExposure{AccountID: line.AccountID, CurrencyCode: line.CurrencyCode}
				totals[k] = exposure
			}
			if line.Side == domain.Debit {
				exposure.AmountMinor += line.AmountMinor
				exposure.FunctionalAmountMinor += line.FunctionalAmountMinor
			} else {
				exposure.AmountMinor -= line.AmountMinor
				exposure.FunctionalAmountMinor -= line.FunctionalAmountMinor
			}
		}
	}

	exposures := make([]portsrepo.CurrencyExposure, 0, len(totals))
	for _, exposure := range totals {
		exposures = append(exposures, *exposure)
	}
	sort.Slice(exposures, func(i, j int) bool {
		if exposures[i].AccountID != exposures[j].AccountID {
			return exposures[i].AccountID < exposures[j].AccountID
		}
		return exposures[i].CurrencyCode < exposures[j].CurrencyCode
	})
	return exposures, nil
}

// --- Revaluations ---

func (s *Store) FindRevaluationEntries(_ context.Context, journalID string, fiscalYear int, period int, snapshotID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entryIDs, ok := s.revaluations[revaluationKey(journalID, fiscalYear, period, snapshotID)]
	if !ok {
		return nil, fmt.Errorf("%w: revaluation snapshot %s", apperrors.ErrNotFound, snapshotID)
	}
	return append([]string(nil), entryIDs...), nil
}

func (s *Store) RecordRevaluation(_ context.Context, journalID string, fiscalYear int, period int, snapshotID string, entryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revaluations[revaluationKey(journalID, fiscalYear, period, snapshotID)] = append([]string(nil), entryIDs...)
	return nil
}

// --- Currencies and rates ---

func (s *Store) SaveCurrency(_ context.Context, currency domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.currencies[currency.CurrencyCode]; !exists {
		s.currencies[currency.CurrencyCode] = currency
	}
	return nil
}

func (s *Store) FindCurrencyByCode(_ context.Context, code string) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currency, ok := s.currencies[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("%w: currency %s", apperrors.ErrNotFound, code)
	}
	return &currency, nil
}

func (s *Store) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currencies := make([]domain.Currency, 0, len(s.currencies))
	for _, currency := range s.currencies {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].CurrencyCode < currencies[j].CurrencyCode })
	return currencies, nil
}

func (s *Store) SaveRate(_ context.Context, rate domain.CurrencyRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append(s.rates, rate)
	return nil
}

func (s *Store) FindRateAt(_ context.Context, fromCurrency string, toCurrency string, rateType domain.RateType, asOf time.Time) (*domain.CurrencyRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.CurrencyRate
	for i := range s.rates {
		rate := s.rates[i]
		if rate.FromCurrencyCode != fromCurrency || rate.ToCurrencyCode != toCurrency {
			continue
		}
		if rateType != "" && rate.RateType != rateType {
			continue
		}
		if rate.EffectiveAt.After(asOf) {
			continue
		}
		if best == nil ||
			rate.EffectiveAt.After(best.EffectiveAt) ||
			(rate.EffectiveAt.Equal(best.EffectiveAt) && rate.CreatedAt.After(best.CreatedAt)) {
			best = &s.rates[i]
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: rate %s->%s", apperrors.ErrNotFound, fromCurrency, toCurrency)
	}
	found := *best
	return &found, nil
}

func (s *Store) ListRates(_ context.Context, fromCurrency string, toCurrency string) ([]domain.CurrencyRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rates []domain.CurrencyRate
	for _, rate := range s.rates {
		if rate.FromCurrencyCode == fromCurrency && rate.ToCurrencyCode == toCurrency {
			rates = append(rates, rate)
		}
	}
	sort.Slice(rates, func(i, j int) bool {
		if !rates[i].EffectiveAt.Equal(rates[j].EffectiveAt) {
			return rates[i].EffectiveAt.After(rates[j].EffectiveAt)
		}
		return rates[i].CreatedAt.After(rates[j].CreatedAt)
	})
	return rates, nil
}

// --- Bank transactions ---

func (s *Store) SaveBankTransactions(_ context.Context, transactions []domain.BankTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range transactions {
		if _, exists := s.bankTxns[txn.TransactionID]; exists {
			return fmt.Errorf("%w: bank transaction %s", apperrors.ErrDuplicate, txn.TransactionID)
		}
	}
	for _, txn := range transactions {
		s.bankTxns[txn.TransactionID] = txn
	}
	return nil
}

func (s *Store) IncrementDuplicatesDropped(_ context.Context, transactionID string, by int, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.bankTxns[transactionID]
	if !ok {
		return fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, transactionID)
	}
	txn.DuplicatesDropped += by
	txn.LastUpdatedBy = updatedBy
	txn.LastUpdatedAt = updatedAt
	s.bankTxns[transactionID] = txn
	return nil
}

func (s *Store) UpdateBankTransactionReconciled(_ context.Context, transactionID string, reconciled bool, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.bankTxns[transactionID]
	if !ok {
		return fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, transactionID)
	}
	txn.Reconciled = reconciled
	txn.LastUpdatedBy = updatedBy
	txn.LastUpdatedAt = updatedAt
	s.bankTxns[transactionID] = txn
	return nil
}

func (s *Store) FindBankTransactionByID(_ context.Context, transactionID string) (*domain.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.bankTxns[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: bank transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return &txn, nil
}

func (s *Store) FindByChecksum(_ context.Context, companyID string, bankAccountID string, checksum string) (*domain.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, txn := range s.bankTxns {
		if txn.CompanyID == companyID && txn.BankAccountID == bankAccountID && txn.SourceChecksum == checksum {
			found := txn
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: checksum %s", apperrors.ErrNotFound, checksum)
}

func (s *Store) ListBankTransactions(_ context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error) {
	return s.listBankTransactions(companyID, bankAccountID, false)
}

func (s *Store) ListUnreconciledBankTransactions(_ context.Context, companyID string, bankAccountID string) ([]domain.BankTransaction, error) {
	return s.listBankTransactions(companyID, bankAccountID, true)
}

func (s *Store) listBankTransactions(companyID string, bankAccountID string, unreconciledOnly bool) ([]domain.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var transactions []domain.BankTransaction
	for _, txn := range s.bankTxns {
		if txn.CompanyID != companyID || txn.BankAccountID != bankAccountID {
			continue
		}
		if unreconciledOnly && (txn.Reconciled || txn.IsVoid) {
			continue
		}
		transactions = append(transactions, txn)
	}
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].PostedDate.Equal(transactions[j].PostedDate) {
			return transactions[i].PostedDate.Before(transactions[j].PostedDate)
		}
		return transactions[i].TransactionID < transactions[j].TransactionID
	})
	return transactions, nil
}

// --- Reconciliation sessions and candidates ---

func (s *Store) SaveSession(_ context.Context, session domain.ReconciliationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) UpdateSessionStatus(_ context.Context, sessionID string, status domain.SessionStatus, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	session.Status = status
	session.LastUpdatedBy = updatedBy
	session.LastUpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = session
	return nil
}

func (s *Store) FindSessionByID(_ context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return &session, nil
}

func (s *Store) ListSessionsByCompany(_ context.Context, companyID string) ([]domain.ReconciliationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sessions []domain.ReconciliationSession
	for _, session := range s.sessions {
		if session.CompanyID == companyID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (s *Store) SaveCandidates(_ context.Context, candidates []domain.MatchCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, candidate := range candidates {
		s.candidates[candidate.CandidateID] = candidate
	}
	return nil
}

func (s *Store) UpdateCandidate(_ context.Context, candidate domain.MatchCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[candidate.CandidateID]; !ok {
		return fmt.Errorf("%w: candidate %s", apperrors.ErrNotFound, candidate.CandidateID)
	}
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) FindCandidateByID(_ context.Context, candidateID string) (*domain.MatchCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, fmt.Errorf("%w: candidate %s", apperrors.ErrNotFound, candidateID)
	}
	return &candidate, nil
}

func (s *Store) ListCandidatesBySession(_ context.Context, sessionID string) ([]domain.MatchCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []domain.MatchCandidate
	for _, candidate := range s.candidates {
		if candidate.SessionID == sessionID {
			candidates = append(candidates, candidate)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AmountDeltaMinor != b.AmountDeltaMinor {
			return a.AmountDeltaMinor < b.AmountDeltaMinor
		}
		if a.DateDeltaDays != b.DateDeltaDays {
			return a.DateDeltaDays < b.DateDeltaDays
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.EntryID < b.EntryID
	})
	return candidates, nil
}

// --- Audit trail ---

func (s *Store) AppendAuditEvent(_ context.Context, event domain.AuditEvent) (*domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Sequence = uint64(len(s.auditEvents[event.CompanyID])) + 1
	s.auditEvents[event.CompanyID] = append(s.auditEvents[event.CompanyID], event)
	return &event, nil
}

func (s *Store) ListAuditEvents(_ context.Context, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []domain.AuditEvent
	for _, event := range s.auditEvents[filter.CompanyID] {
		if filter.EntityID != "" && event.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && event.Action != filter.Action {
			continue
		}
		if filter.From != nil && event.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && event.OccurredAt.After(*filter.To) {
			continue
		}
		if filter.AfterSequence > 0 && event.Sequence <= filter.AfterSequence {
			continue
		}
		events = append(events, event)
		if filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}
	return events, nil
}
