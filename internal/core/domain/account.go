package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset      AccountType = "ASSET"
	Liability  AccountType = "LIABILITY"
	Equity     AccountType = "EQUITY"
	Revenue    AccountType = "REVENUE"
	Expense    AccountType = "EXPENSE"
	OffBalance AccountType = "OFF_BALANCE"
)

// CurrencyMode controls which transaction currencies an account accepts.
type CurrencyMode string

const (
	// FunctionalOnly accounts accept postings in the company base currency only.
	FunctionalOnly CurrencyMode = "FUNCTIONAL_ONLY"
	// Transactional accounts accept a single foreign currency alongside the base.
	Transactional CurrencyMode = "TRANSACTIONAL"
	// MultiCurrency accounts accept any supported currency and are the ones
	// picked up by period-end revaluation.
	MultiCurrency CurrencyMode = "MULTI_CURRENCY"
)

// Account is a node in a company's chart of accounts.
// Summary accounts group children and never carry postings themselves.
type Account struct {
	AccountID       string       `json:"accountID"` // Primary Key (UUID)
	CompanyID       string       `json:"companyID"` // FK -> companies.company_id (NON-NULL)
	Code            string       `json:"code"`      // Unique per company, immutable
	Name            string       `json:"name"`
	AccountType     AccountType  `json:"accountType"`
	CurrencyMode    CurrencyMode `json:"currencyMode"`
	CurrencyCode    string       `json:"currencyCode"`    // Transaction currency for TRANSACTIONAL accounts
	ParentAccountID string       `json:"parentAccountID"` // Nullable FK -> accounts.account_id (self-referencing)
	IsSummary       bool         `json:"isSummary"`
	IsActive        bool         `json:"isActive"`
	AuditFields
}

// AllowsPosting reports whether journal lines may reference this account.
func (a Account) AllowsPosting() bool {
	return a.IsActive && !a.IsSummary
}
