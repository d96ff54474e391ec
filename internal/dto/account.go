package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// UpsertAccountRequest defines the data for creating or updating an account.
// The account code is the upsert key within a company.
type UpsertAccountRequest struct {
	Code            string              `json:"code" binding:"required"`
	Name            string              `json:"name" binding:"required"`
	AccountType     domain.AccountType  `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE OFF_BALANCE"`
	CurrencyMode    domain.CurrencyMode `json:"currencyMode" binding:"omitempty,oneof=FUNCTIONAL_ONLY TRANSACTIONAL MULTI_CURRENCY"`
	CurrencyCode    string              `json:"currencyCode"`                // Required when currencyMode is TRANSACTIONAL
	ParentAccountID *string             `json:"parentAccountID"`             // Optional, use pointer for nullability
	IsSummary       bool                `json:"isSummary"`
	IsActive        *bool               `json:"isActive"` // Optional, defaults to true on create
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID       string              `json:"accountID"`
	CompanyID       string              `json:"companyID"`
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	AccountType     domain.AccountType  `json:"accountType"`
	CurrencyMode    domain.CurrencyMode `json:"currencyMode"`
	CurrencyCode    string              `json:"currencyCode"`
	ParentAccountID string              `json:"parentAccountID"` // Empty string if null in DB
	IsSummary       bool                `json:"isSummary"`
	IsActive        bool                `json:"isActive"`
	CreatedAt       time.Time           `json:"createdAt"`
	CreatedBy       string              `json:"createdBy"`
	LastUpdatedAt   time.Time           `json:"lastUpdatedAt"`
	LastUpdatedBy   string              `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		CompanyID:       acc.CompanyID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		CurrencyMode:    acc.CurrencyMode,
		CurrencyCode:    acc.CurrencyCode,
		ParentAccountID: acc.ParentAccountID,
		IsSummary:       acc.IsSummary,
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ListAccountsResponse wraps a chart of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
