package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openbooks-app/openbooks/internal/apperrors"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
)

// reconciliationHandler handles HTTP requests for matching sessions and
// candidate dispositions.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
	}
}

// registerReconciliationRoutes registers session routes under a company.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	sessions := rg.Group("/companies/:companyID/reconciliation-sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:sessionID", h.getSession)
		sessions.GET("/:sessionID/candidates", h.listCandidates)
		sessions.GET("/:sessionID/summary", h.getSessionSummary)
		sessions.POST("/:sessionID/reopen", h.reopenSession)
		sessions.POST("/:sessionID/candidates/:candidateID/accept", h.acceptCandidate)
		sessions.POST("/:sessionID/candidates/:candidateID/partial-accept", h.partiallyAcceptCandidate)
		sessions.POST("/:sessionID/candidates/:candidateID/write-off", h.writeOffCandidate)
		sessions.POST("/:sessionID/candidates/:candidateID/reject", h.rejectCandidate)
	}
}

// writeCandidateError maps candidate disposition failures onto HTTP statuses.
func writeCandidateError(c *gin.Context, logger *slog.Logger, err error, operation string) {
	switch {
	case errors.Is(err, apperrors.ErrMissingApproval):
		logger.Warn("Disposition requires an approval reference", slog.String("operation", operation))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAlreadyMatched):
		logger.Warn("Candidate side already reconciled", slog.String("operation", operation))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrState):
		logger.Warn("Candidate is not pending", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Disposition failed validation", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error("Candidate disposition failed", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation + " candidate"})
	}
}

// createSession godoc
// @Summary Open a reconciliation session
// @Description Opens a session for one bank account and period, and generates scored match candidates
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   session body dto.CreateSessionRequest true "Session details"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 500 {object} map[string]string "Failed to create session"
// @Router /companies/{companyID}/reconciliation-sessions [post]
func (h *reconciliationHandler) createSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSession", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("company_id", companyID), slog.String("bank_account_id", req.BankAccountID), slog.String("actor", actor))

	session, err := h.reconciliationService.CreateSession(c.Request.Context(), companyID, req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating session", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		}
		return
	}

	logger.Info("Reconciliation session created", slog.String("session_id", session.SessionID))
	c.JSON(http.StatusCreated, dto.ToSessionResponse(session))
}

// getSession godoc
// @Summary Get a reconciliation session
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to retrieve session"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID} [get]
func (h *reconciliationHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")

	session, err := h.reconciliationService.GetSession(c.Request.Context(), companyID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to get session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// listCandidates godoc
// @Summary List a session's match candidates
// @Description Candidates are ordered by descending score with deterministic tie-breaks
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Success 200 {object} dto.ListCandidatesResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to list candidates"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/candidates [get]
func (h *reconciliationHandler) listCandidates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")

	candidates, err := h.reconciliationService.ListCandidates(c.Request.Context(), companyID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to list candidates", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list candidates"})
		}
		return
	}

	resp := dto.ListCandidatesResponse{Candidates: make([]dto.CandidateResponse, 0, len(candidates))}
	for i := range candidates {
		resp.Candidates = append(resp.Candidates, dto.ToCandidateResponse(&candidates[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// acceptCandidate godoc
// @Summary Accept a match candidate
// @Description Marks both the bank transaction and the entry reconciled
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Param   candidateID path string true "Candidate ID"
// @Success 200 {object} dto.CandidateResponse
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 409 {object} map[string]string "Candidate not pending or side already reconciled"
// @Failure 500 {object} map[string]string "Failed to accept candidate"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/candidates/{candidateID}/accept [post]
func (h *reconciliationHandler) acceptCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")
	candidateID := c.Param("candidateID")
	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("session_id", sessionID), slog.String("candidate_id", candidateID), slog.String("actor", actor))

	candidate, err := h.reconciliationService.AcceptCandidate(c.Request.Context(), companyID, sessionID, candidateID, actor)
	if err != nil {
		writeCandidateError(c, logger, err, "accept")
		return
	}

	logger.Info("Candidate accepted")
	c.JSON(http.StatusOK, dto.ToCandidateResponse(candidate))
}

// partiallyAcceptCandidate godoc
// @Summary Partially accept a match candidate
// @Description Splits the bank transaction across entries; allocations must sum exactly to the transaction amount
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Param   candidateID path string true "Candidate ID"
// @Param   allocations body dto.PartialAcceptRequest true "Allocation split"
// @Success 200 {object} dto.CandidateResponse
// @Failure 400 {object} map[string]string "Allocations do not sum to the transaction amount"
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 409 {object} map[string]string "Candidate not pending or side already reconciled"
// @Failure 500 {object} map[string]string "Failed to partially accept candidate"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/candidates/{candidateID}/partial-accept [post]
func (h *reconciliationHandler) partiallyAcceptCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")
	candidateID := c.Param("candidateID")
	var req dto.PartialAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PartialAccept", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("session_id", sessionID), slog.String("candidate_id", candidateID), slog.String("actor", actor))

	candidate, err := h.reconciliationService.PartiallyAcceptCandidate(c.Request.Context(), companyID, sessionID, candidateID, req, actor)
	if err != nil {
		writeCandidateError(c, logger, err, "partially accept")
		return
	}

	logger.Info("Candidate partially accepted", slog.String("match_group_id", candidate.MatchGroupID))
	c.JSON(http.StatusOK, dto.ToCandidateResponse(candidate))
}

// writeOffCandidate godoc
// @Summary Write off a match candidate
// @Description Resolves the candidate as uncollectable; the approval reference is mandatory
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Param   candidateID path string true "Candidate ID"
// @Param   writeOff body dto.WriteOffRequest true "Approval reference"
// @Success 200 {object} dto.CandidateResponse
// @Failure 403 {object} map[string]string "Approval reference required"
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 409 {object} map[string]string "Candidate not pending"
// @Failure 500 {object} map[string]string "Failed to write off candidate"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/candidates/{candidateID}/write-off [post]
func (h *reconciliationHandler) writeOffCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")
	candidateID := c.Param("candidateID")
	var req dto.WriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for WriteOff", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("session_id", sessionID), slog.String("candidate_id", candidateID), slog.String("actor", actor))

	candidate, err := h.reconciliationService.WriteOffCandidate(c.Request.Context(), companyID, sessionID, candidateID, req, actor)
	if err != nil {
		writeCandidateError(c, logger, err, "write off")
		return
	}

	logger.Info("Candidate written off")
	c.JSON(http.StatusOK, dto.ToCandidateResponse(candidate))
}

// rejectCandidate godoc
// @Summary Reject a match candidate
// @Description Discards the proposed pairing, leaving both sides unreconciled
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Param   candidateID path string true "Candidate ID"
// @Success 200 {object} dto.CandidateResponse
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 409 {object} map[string]string "Candidate not pending"
// @Failure 500 {object} map[string]string "Failed to reject candidate"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/candidates/{candidateID}/reject [post]
func (h *reconciliationHandler) rejectCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")
	candidateID := c.Param("candidateID")
	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("session_id", sessionID), slog.String("candidate_id", candidateID), slog.String("actor", actor))

	candidate, err := h.reconciliationService.RejectCandidate(c.Request.Context(), companyID, sessionID, candidateID, actor)
	if err != nil {
		writeCandidateError(c, logger, err, "reject")
		return
	}

	logger.Info("Candidate rejected")
	c.JSON(http.StatusOK, dto.ToCandidateResponse(candidate))
}

// reopenSession godoc
// @Summary Reopen a reconciliation session
// @Description Resets every candidate to pending and clears the reconciliation marks the session applied
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to reopen session"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/reopen [post]
func (h *reconciliationHandler) reopenSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")
	actor := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("session_id", sessionID), slog.String("actor", actor))

	session, err := h.reconciliationService.ReopenSession(c.Request.Context(), companyID, sessionID, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else if errors.Is(err, apperrors.ErrState) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reopen session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reopen session"})
		}
		return
	}

	logger.Info("Session reopened")
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// getSessionSummary godoc
// @Summary Get session progress
// @Tags reconciliation
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   sessionID path string true "Session ID"
// @Success 200 {object} dto.SessionSummaryResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to summarize session"
// @Router /companies/{companyID}/reconciliation-sessions/{sessionID}/summary [get]
func (h *reconciliationHandler) getSessionSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")
	sessionID := c.Param("sessionID")

	summary, err := h.reconciliationService.SessionSummary(c.Request.Context(), companyID, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to summarize session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SessionSummaryResponse{
		SessionID:     summary.SessionID,
		Matched:       summary.Matched,
		Pending:       summary.Pending,
		WrittenOff:    summary.WrittenOff,
		Rejected:      summary.Rejected,
		CoverageRatio: summary.CoverageRatio(),
	})
}
