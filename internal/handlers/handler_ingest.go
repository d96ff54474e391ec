package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openbooks-app/openbooks/internal/apperrors"
	"github.com/openbooks-app/openbooks/internal/core/domain"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
)

// ingestHandler handles HTTP requests for bank statement ingestion.
type ingestHandler struct {
	ingestService portssvc.IngestSvcFacade
}

// newIngestHandler creates a new ingestHandler.
func newIngestHandler(is portssvc.IngestSvcFacade) *ingestHandler {
	return &ingestHandler{
		ingestService: is,
	}
}

// registerIngestRoutes registers statement ingestion routes under a company.
func registerIngestRoutes(rg *gin.RouterGroup, ingestService portssvc.IngestSvcFacade) {
	h := newIngestHandler(ingestService)

	company := rg.Group("/companies/:companyID")
	{
		company.POST("/bank-statements", h.ingestStatement)
		company.GET("/bank-accounts/:bankAccountID/transactions", h.listBankTransactions)
	}
}

// ingestStatement godoc
// @Summary Ingest a bank statement
// @Description Parses, normalizes and deduplicates one CSV or OFX payload; failed rows are reported, not fatal, and re-ingesting the same payload changes nothing
// @Tags ingestion
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   statement body dto.IngestStatementRequest true "Statement payload"
// @Success 200 {object} dto.IngestReport
// @Failure 400 {object} map[string]string "Unparseable payload"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 422 {object} map[string]string "Account cannot hold bank transactions"
// @Failure 500 {object} map[string]string "Failed to ingest statement"
// @Router /companies/{companyID}/bank-statements [post]
func (h *ingestHandler) ingestStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	var req dto.IngestStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for IngestStatement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("company_id", companyID), slog.String("bank_account_id", req.BankAccountID), slog.String("actor", actor))

	report, err := h.ingestService.IngestStatement(c.Request.Context(), companyID, req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrState) {
			logger.Warn("Statement targets a non-postable account", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Statement payload rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement target not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to ingest statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest statement"})
		}
		return
	}

	logger.Info("Statement ingested",
		slog.Int("rows_parsed", report.RowsParsed),
		slog.Int("rows_imported", report.RowsImported),
		slog.Int("rows_failed", report.RowsFailed),
		slog.Int("duplicates_dropped", report.DuplicatesDropped),
	)
	c.JSON(http.StatusOK, report)
}

// listBankTransactions godoc
// @Summary List stored bank transactions for an account
// @Tags ingestion
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Success 200 {array} domain.BankTransaction
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Router /companies/{companyID}/bank-accounts/{bankAccountID}/transactions [get]
func (h *ingestHandler) listBankTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	bankAccountID := c.Param("bankAccountID")

	transactions, err := h.ingestService.ListBankTransactions(c.Request.Context(), companyID, bankAccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bank account not found"})
		} else {
			logger.Error("Failed to list bank transactions", slog.String("bank_account_id", bankAccountID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		}
		return
	}

	if transactions == nil {
		transactions = []domain.BankTransaction{}
	}
	c.JSON(http.StatusOK, transactions)
}
