package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// ApplyPeriodLockRequest applies one lock action to a period.
type ApplyPeriodLockRequest struct {
	FiscalYear        int                 `json:"fiscalYear" binding:"required"`
	Period            int                 `json:"period" binding:"required,min=1"`
	Action            domain.PeriodAction `json:"action" binding:"required,oneof=SOFT_CLOSE CLOSE REOPEN_SOFT REOPEN_FULL"`
	ApprovalReference string              `json:"approvalReference"` // Required for CLOSE and REOPEN_FULL
}

// PeriodLockResponse mirrors one applied lock action.
type PeriodLockResponse struct {
	LockID            string              `json:"lockID"`
	JournalID         string              `json:"journalID"`
	FiscalYear        int                 `json:"fiscalYear"`
	Period            int                 `json:"period"`
	Action            domain.PeriodAction `json:"action"`
	ResultingState    domain.PeriodState  `json:"resultingState"`
	ApprovalReference string              `json:"approvalReference,omitempty"`
	LockedBy          string              `json:"lockedBy"`
	LockedAt          time.Time           `json:"lockedAt"`
}

// ToPeriodLockResponse converts a domain.PeriodLock to its DTO.
func ToPeriodLockResponse(l *domain.PeriodLock) PeriodLockResponse {
	return PeriodLockResponse{
		LockID:            l.LockID,
		JournalID:         l.JournalID,
		FiscalYear:        l.FiscalYear,
		Period:            l.Period,
		Action:            l.Action,
		ResultingState:    l.ResultingState,
		ApprovalReference: l.ApprovalReference,
		LockedBy:          l.LockedBy,
		LockedAt:          l.LockedAt,
	}
}

// PeriodStateResponse reports the effective lock state of a period.
type PeriodStateResponse struct {
	JournalID  string             `json:"journalID"`
	FiscalYear int                `json:"fiscalYear"`
	Period     int                `json:"period"`
	State      domain.PeriodState `json:"state"`
}
