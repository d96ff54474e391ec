package domain

import "time"

// FiscalCalendar describes how a company's year is cut into posting periods.
type FiscalCalendar struct {
	PeriodsPerYear int `json:"periodsPerYear"` // Usually 12
	OpeningMonth   int `json:"openingMonth"`   // 1 = January
}

// PeriodRef identifies a single posting period within a fiscal year.
type PeriodRef struct {
	FiscalYear int `json:"fiscalYear"`
	Period     int `json:"period"` // 1-based
}

// PeriodFor maps a calendar date onto the fiscal period it belongs to.
// The fiscal year is labelled by the calendar year it opens in.
func (c FiscalCalendar) PeriodFor(date time.Time) PeriodRef {
	periods := c.PeriodsPerYear
	if periods <= 0 {
		periods = 12
	}
	opening := c.OpeningMonth
	if opening <= 0 || opening > 12 {
		opening = 1
	}

	monthOffset := (int(date.Month()) - opening + 12) % 12
	year := date.Year()
	if int(date.Month()) < opening {
		year--
	}

	// Collapse calendar months into the configured number of periods
	// (12 -> monthly, 4 -> quarterly, 1 -> annual).
	period := monthOffset*periods/12 + 1

	return PeriodRef{FiscalYear: year, Period: period}
}

// Company is a tenant. Every account, journal, entry, rate, bank transaction
// and audit event is scoped to exactly one company.
type Company struct {
	CompanyID        string         `json:"companyID"` // Primary Key (UUID)
	Name             string         `json:"name"`
	BaseCurrencyCode string         `json:"baseCurrencyCode"` // Functional currency, immutable
	FiscalCalendar   FiscalCalendar `json:"fiscalCalendar"`
	AuditFields
}
