package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
)

// rateHandler handles HTTP requests for currencies, exchange rates and
// conversions.
type rateHandler struct {
	fxService portssvc.FxSvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(fs portssvc.FxSvcFacade) *rateHandler {
	return &rateHandler{
		fxService: fs,
	}
}

// registerRateRoutes registers currency and rate routes.
func registerRateRoutes(rg *gin.RouterGroup, fxService portssvc.FxSvcFacade) {
	h := newRateHandler(fxService)

	currencies := rg.Group("/currencies")
	{
		currencies.GET("", h.listCurrencies)
		currencies.GET("/:code", h.getCurrencyByCode)
	}

	rates := rg.Group("/rates")
	{
		rates.POST("", h.submitRate)
		rates.GET("/:from/:to", h.listRates)
		rates.GET("/:from/:to/resolve", h.resolveRate)
	}

	rg.POST("/convert", h.convert)
}

// listCurrencies godoc
// @Summary List registered currencies
// @Tags currencies
// @Produce  json
// @Success 200 {array} domain.Currency
// @Failure 500 {object} map[string]string "Failed to list currencies"
// @Router /currencies [get]
func (h *rateHandler) listCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currencies, err := h.fxService.ListCurrencies(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list currencies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list currencies"})
		return
	}

	c.JSON(http.StatusOK, currencies)
}

// getCurrencyByCode godoc
// @Summary Get a currency by code
// @Tags currencies
// @Produce  json
// @Param   code path string true "Currency code (3 letters)"
// @Success 200 {object} domain.Currency
// @Failure 400 {object} map[string]string "Invalid code"
// @Failure 404 {object} map[string]string "Currency not found"
// @Failure 500 {object} map[string]string "Failed to retrieve currency"
// @Router /currencies/{code} [get]
func (h *rateHandler) getCurrencyByCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")
	if len(code) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Currency code must be 3 letters"})
		return
	}

	currency, err := h.fxService.GetCurrency(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Currency not found: " + code})
		} else {
			logger.Error("Failed to get currency", slog.String("currency_code", code), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve currency"})
		}
		return
	}

	c.JSON(http.StatusOK, currency)
}

// submitRate godoc
// @Summary Submit an exchange rate observation
// @Description Stores one immutable rate observation; resolution always picks the latest at or before the requested time
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.CreateRateRequest true "Rate observation"
// @Success 201 {object} dto.RateResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Unknown currency"
// @Failure 500 {object} map[string]string "Failed to store rate"
// @Router /rates [post]
func (h *rateHandler) submitRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SubmitRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("from", req.FromCurrencyCode), slog.String("to", req.ToCurrencyCode), slog.String("actor", actor))

	rate, err := h.fxService.SubmitRate(c.Request.Context(), req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error submitting rate", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Rate references an unknown currency", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to store rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store rate"})
		}
		return
	}

	logger.Info("Rate stored", slog.String("rate_id", rate.RateID))
	c.JSON(http.StatusCreated, dto.ToRateResponse(rate))
}

// listRates godoc
// @Summary List rate observations for a pair
// @Tags rates
// @Produce  json
// @Param   from path string true "From currency code"
// @Param   to path string true "To currency code"
// @Success 200 {array} dto.RateResponse
// @Failure 500 {object} map[string]string "Failed to list rates"
// @Router /rates/{from}/{to} [get]
func (h *rateHandler) listRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Param("from")
	to := c.Param("to")

	rates, err := h.fxService.ListRates(c.Request.Context(), from, to)
	if err != nil {
		logger.Error("Failed to list rates", slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rates"})
		return
	}

	resp := make([]dto.RateResponse, 0, len(rates))
	for i := range rates {
		resp = append(resp, dto.ToRateResponse(&rates[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// resolveRate godoc
// @Summary Resolve the effective rate for a pair
// @Description Finds the latest observation at or before asOf, optionally narrowed by rateType
// @Tags rates
// @Produce  json
// @Param   from path string true "From currency code"
// @Param   to path string true "To currency code"
// @Param   asOf query string true "Resolution instant (RFC 3339)"
// @Param   rateType query string false "SPOT, AVERAGE or USER_SUPPLIED"
// @Success 200 {object} dto.RateResponse
// @Failure 400 {object} map[string]string "Invalid asOf"
// @Failure 422 {object} map[string]string "No rate available"
// @Failure 500 {object} map[string]string "Failed to resolve rate"
// @Router /rates/{from}/{to}/resolve [get]
func (h *rateHandler) resolveRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Param("from")
	to := c.Param("to")
	asOf, err := time.Parse(time.RFC3339, c.Query("asOf"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be an RFC 3339 timestamp"})
		return
	}
	rateType := domain.RateType(c.Query("rateType"))

	rate, err := h.fxService.ResolveRate(c.Request.Context(), from, to, rateType, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoRateAvailable) {
			logger.Warn("No rate available for pair", slog.String("from", from), slog.String("to", to), slog.Time("as_of", asOf))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to resolve rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve rate"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRateResponse(rate))
}

// convert godoc
// @Summary Convert an amount between currencies
// @Description Restates an amount at the resolved rate, rounding half-to-even at the target precision
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   conversion body dto.ConvertRequest true "Conversion request"
// @Success 200 {object} dto.ConvertResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Unknown currency"
// @Failure 422 {object} map[string]string "No rate available"
// @Failure 500 {object} map[string]string "Failed to convert"
// @Router /convert [post]
func (h *rateHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	converted, rate, err := h.fxService.Convert(c.Request.Context(), req.AmountMinor, req.FromCurrencyCode, req.ToCurrencyCode, req.RateType, req.AsOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoRateAvailable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to convert amount", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert"})
		}
		return
	}

	resp := dto.ConvertResponse{
		AmountMinor:  converted,
		CurrencyCode: req.ToCurrencyCode,
	}
	if rate != nil {
		resp.RateUsed = &rate.Rate
		resp.RateSource = rate.Source
		resp.RateEffectiveAt = &rate.EffectiveAt
	}
	c.JSON(http.StatusOK, resp)
}
