package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openbooks-app/openbooks/internal/apperrors"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
)

// ledgerHandler handles HTTP requests for journals, entries, period locks
// and revaluation.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers journal and entry routes under a company.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	journals := rg.Group("/companies/:companyID/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.POST("/:journalID/entries", h.postEntry)
		journals.GET("/:journalID/entries", h.listEntries)
		journals.POST("/:journalID/period-locks", h.applyPeriodLock)
		journals.GET("/:journalID/periods/:fiscalYear/:period/state", h.getPeriodState)
		journals.POST("/:journalID/revaluations", h.revalueCurrency)
	}

	entries := rg.Group("/companies/:companyID/entries")
	{
		entries.GET("/:entryID", h.getEntryByID)
		entries.POST("/:entryID/reverse", h.reverseEntry)
	}
}

// createJournal godoc
// @Summary Create a journal
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journal body dto.CreateJournalRequest true "Journal details"
// @Success 201 {object} dto.JournalResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Company not found"
// @Failure 500 {object} map[string]string "Failed to create journal"
// @Router /companies/{companyID}/journals [post]
func (h *ledgerHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	journal, err := h.ledgerService.CreateJournal(c.Request.Context(), companyID, req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create journal", slog.String("company_id", companyID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create journal"})
		}
		return
	}

	logger.Info("Journal created", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// listJournals godoc
// @Summary List a company's journals
// @Tags journals
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Success 200 {array} dto.JournalResponse
// @Failure 404 {object} map[string]string "Company not found"
// @Failure 500 {object} map[string]string "Failed to list journals"
// @Router /companies/{companyID}/journals [get]
func (h *ledgerHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	journals, err := h.ledgerService.ListJournals(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		} else {
			logger.Error("Failed to list journals", slog.String("company_id", companyID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journals"})
		}
		return
	}

	resp := make([]dto.JournalResponse, 0, len(journals))
	for i := range journals {
		resp = append(resp, dto.ToJournalResponse(&journals[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// postEntry godoc
// @Summary Post a journal entry
// @Description Validates and posts a balanced entry into an open period
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journalID path string true "Journal ID"
// @Param   entry body dto.PostEntryRequest true "Entry to post"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid or unbalanced entry"
// @Failure 403 {object} map[string]string "Approval reference required"
// @Failure 404 {object} map[string]string "Journal or account not found"
// @Failure 409 {object} map[string]string "Period is closed or soft-closed"
// @Failure 422 {object} map[string]string "No exchange rate available"
// @Failure 500 {object} map[string]string "Failed to post entry"
// @Router /companies/{companyID}/journals/{journalID}/entries [post]
func (h *ledgerHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	journalID := c.Param("journalID")
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("company_id", companyID), slog.String("journal_id", journalID), slog.String("actor", actor))

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), companyID, journalID, req, actor)
	if err != nil {
		h.writePostingError(c, logger, err)
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entry.EntryID), slog.Int64("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// writePostingError maps posting failures onto HTTP statuses. Shared by
// post and reverse, which fail for the same reasons.
func (h *ledgerHandler) writePostingError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrMissingApproval):
		logger.Warn("Posting requires an approval reference", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPeriodClosed), errors.Is(err, apperrors.ErrPeriodSoftClosed):
		logger.Warn("Posting into a locked period rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNoRateAvailable):
		logger.Warn("No exchange rate available for posting", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrState):
		logger.Warn("Posting rejected by entry state", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Posting failed validation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Posting target not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to post entry", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post entry"})
	}
}

// listEntries godoc
// @Summary List a journal's entries
// @Description Returns a page of entries newest first; pass nextToken to continue
// @Tags entries
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journalID path string true "Journal ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Continuation token"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Router /companies/{companyID}/journals/{journalID}/entries [get]
func (h *ledgerHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	journalID := c.Param("journalID")
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.ledgerService.ListEntries(c.Request.Context(), companyID, journalID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list entries", slog.String("journal_id", journalID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		}
		return
	}

	c.JSON(http.StatusOK, page)
}

// getEntryByID godoc
// @Summary Get an entry with its lines
// @Tags entries
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Router /companies/{companyID}/entries/{entryID} [get]
func (h *ledgerHandler) getEntryByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	entryID := c.Param("entryID")

	entry, err := h.ledgerService.GetEntryByID(c.Request.Context(), companyID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else {
			logger.Error("Failed to get entry", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entry"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Posts a mirrored adjustment entry and links the pair
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   entryID path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reversal reason"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already reversed or period closed"
// @Failure 500 {object} map[string]string "Failed to reverse entry"
// @Router /companies/{companyID}/entries/{entryID}/reverse [post]
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	entryID := c.Param("entryID")
	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("entry_id", entryID), slog.String("actor", actor))

	reversal, err := h.ledgerService.ReverseEntry(c.Request.Context(), companyID, entryID, req, actor)
	if err != nil {
		h.writePostingError(c, logger, err)
		return
	}

	logger.Info("Entry reversed", slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}

// applyPeriodLock godoc
// @Summary Apply a period lock action
// @Description Moves a period through the lock state machine; CLOSE and REOPEN_FULL require an approval reference
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journalID path string true "Journal ID"
// @Param   lock body dto.ApplyPeriodLockRequest true "Lock action"
// @Success 201 {object} dto.PeriodLockResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Approval reference required"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 409 {object} map[string]string "Transition not allowed from current state"
// @Failure 500 {object} map[string]string "Failed to apply period lock"
// @Router /companies/{companyID}/journals/{journalID}/period-locks [post]
func (h *ledgerHandler) applyPeriodLock(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	journalID := c.Param("journalID")
	var req dto.ApplyPeriodLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyPeriodLock", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("journal_id", journalID), slog.Int("fiscal_year", req.FiscalYear), slog.Int("period", req.Period), slog.String("actor", actor))

	lock, err := h.ledgerService.ApplyPeriodLock(c.Request.Context(), companyID, journalID, req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrMissingApproval) {
			logger.Warn("Lock action requires an approval reference")
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrLockTransition) {
			logger.Warn("Period lock transition rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		} else {
			logger.Error("Failed to apply period lock", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply period lock"})
		}
		return
	}

	logger.Info("Period lock applied", slog.String("resulting_state", string(lock.ResultingState)))
	c.JSON(http.StatusCreated, dto.ToPeriodLockResponse(lock))
}

// getPeriodState godoc
// @Summary Get the effective lock state of a period
// @Tags periods
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journalID path string true "Journal ID"
// @Param   fiscalYear path int true "Fiscal year"
// @Param   period path int true "Period number"
// @Success 200 {object} dto.PeriodStateResponse
// @Failure 400 {object} map[string]string "Invalid period reference"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 500 {object} map[string]string "Failed to derive period state"
// @Router /companies/{companyID}/journals/{journalID}/periods/{fiscalYear}/{period}/state [get]
func (h *ledgerHandler) getPeriodState(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	journalID := c.Param("journalID")
	fiscalYear, err := strconv.Atoi(c.Param("fiscalYear"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fiscal year must be an integer"})
		return
	}
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Period must be an integer"})
		return
	}

	state, err := h.ledgerService.GetPeriodState(c.Request.Context(), companyID, journalID, fiscalYear, period)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to derive period state", slog.String("journal_id", journalID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive period state"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.PeriodStateResponse{
		JournalID:  journalID,
		FiscalYear: fiscalYear,
		Period:     period,
		State:      state,
	})
}

// revalueCurrency godoc
// @Summary Run period-end currency revaluation
// @Description Restates multi-currency balances at snapshot rates; idempotent per snapshot ID
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   journalID path string true "Journal ID"
// @Param   revaluation body dto.RevaluationRequest true "Snapshot rates"
// @Success 200 {object} dto.RevaluationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 409 {object} map[string]string "Period is closed"
// @Failure 500 {object} map[string]string "Failed to revalue"
// @Router /companies/{companyID}/journals/{journalID}/revaluations [post]
func (h *ledgerHandler) revalueCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	journalID := c.Param("journalID")
	var req dto.RevaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RevalueCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("journal_id", journalID), slog.String("snapshot_id", req.SnapshotID), slog.String("actor", actor))

	result, err := h.ledgerService.RevalueCurrency(c.Request.Context(), companyID, journalID, req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrPeriodClosed) {
			logger.Warn("Revaluation into a closed period rejected")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to revalue currency exposures", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revalue"})
		}
		return
	}

	logger.Info("Revaluation completed", slog.Int("entry_count", len(result.EntryIDs)), slog.Bool("already_applied", result.AlreadyApplied))
	c.JSON(http.StatusOK, result)
}
