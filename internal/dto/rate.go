package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRateRequest submits one immutable rate observation.
type CreateRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3"`
	Rate             decimal.Decimal `json:"rate" binding:"required"`
	RateType         domain.RateType `json:"rateType" binding:"omitempty,oneof=SPOT AVERAGE USER_SUPPLIED"`
	EffectiveAt      time.Time       `json:"effectiveAt" binding:"required"`
	Source           string          `json:"source"`
}

// RateResponse mirrors domain.CurrencyRate.
type RateResponse struct {
	RateID           string          `json:"rateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateType         domain.RateType `json:"rateType"`
	EffectiveAt      time.Time       `json:"effectiveAt"`
	Source           string          `json:"source,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}

// ToRateResponse converts a domain.CurrencyRate to RateResponse DTO.
func ToRateResponse(r *domain.CurrencyRate) RateResponse {
	return RateResponse{
		RateID:           r.RateID,
		FromCurrencyCode: r.FromCurrencyCode,
		ToCurrencyCode:   r.ToCurrencyCode,
		Rate:             r.Rate,
		RateType:         r.RateType,
		EffectiveAt:      r.EffectiveAt,
		Source:           r.Source,
		CreatedAt:        r.CreatedAt,
		CreatedBy:        r.CreatedBy,
	}
}

// ConvertRequest asks for one amount conversion at a point in time.
type ConvertRequest struct {
	AmountMinor      int64           `json:"amountMinor" binding:"required"`
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3"`
	RateType         domain.RateType `json:"rateType" binding:"omitempty,oneof=SPOT AVERAGE USER_SUPPLIED"`
	AsOf             time.Time       `json:"asOf" binding:"required"`
}

// ConvertResponse reports a conversion result with the rate that produced it.
type ConvertResponse struct {
	AmountMinor     int64            `json:"amountMinor"`
	CurrencyCode    string           `json:"currencyCode"`
	RateUsed        *decimal.Decimal `json:"rateUsed,omitempty"` // Nil for same-currency identity
	RateSource      string           `json:"rateSource,omitempty"`
	RateEffectiveAt *time.Time       `json:"rateEffectiveAt,omitempty"`
}
