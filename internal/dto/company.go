package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// CreateCompanyRequest defines the data needed to create a new company.
type CreateCompanyRequest struct {
	Name             string `json:"name" binding:"required"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"required,len=3"`
	PeriodsPerYear   int    `json:"periodsPerYear"` // Defaults to 12
	OpeningMonth     int    `json:"openingMonth"`   // Defaults to 1 (January)
}

// CompanyResponse defines the data returned for a company.
type CompanyResponse struct {
	CompanyID        string    `json:"companyID"`
	Name             string    `json:"name"`
	BaseCurrencyCode string    `json:"baseCurrencyCode"`
	PeriodsPerYear   int       `json:"periodsPerYear"`
	OpeningMonth     int       `json:"openingMonth"`
	CreatedAt        time.Time `json:"createdAt"`
	CreatedBy        string    `json:"createdBy"`
}

// ToCompanyResponse converts a domain.Company to CompanyResponse DTO
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID:        c.CompanyID,
		Name:             c.Name,
		BaseCurrencyCode: c.BaseCurrencyCode,
		PeriodsPerYear:   c.FiscalCalendar.PeriodsPerYear,
		OpeningMonth:     c.FiscalCalendar.OpeningMonth,
		CreatedAt:        c.CreatedAt,
		CreatedBy:        c.CreatedBy,
	}
}

// ListCompaniesResponse wraps a list of companies.
type ListCompaniesResponse struct {
	Companies []CompanyResponse `json:"companies"`
}
