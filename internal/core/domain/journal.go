package domain

import (
	"fmt"
	"time"
)

// JournalType groups journals by the business stream they record.
type JournalType string

const (
	GeneralJournal     JournalType = "GENERAL"
	PayablesJournal    JournalType = "PAYABLES"
	ReceivablesJournal JournalType = "RECEIVABLES"
	CashJournal        JournalType = "CASH"
)

// Journal is a named stream of entries within a company. Period locks apply
// per journal, so cash books can close independently of the general ledger.
type Journal struct {
	JournalID   string      `json:"journalID"` // Primary Key (UUID)
	CompanyID   string      `json:"companyID"` // FK -> companies.company_id (NON-NULL)
	Name        string      `json:"name"`
	JournalType JournalType `json:"journalType"`
	AuditFields
}

// PeriodState is the effective lock state of a (journal, fiscal year, period).
type PeriodState string

const (
	PeriodOpen       PeriodState = "OPEN"
	PeriodSoftClosed PeriodState = "SOFT_CLOSED"
	PeriodClosed     PeriodState = "CLOSED"
)

// PeriodAction is one step applied to a period's lock state.
type PeriodAction string

const (
	SoftClose  PeriodAction = "SOFT_CLOSE"
	Close      PeriodAction = "CLOSE"
	ReopenSoft PeriodAction = "REOPEN_SOFT"
	ReopenFull PeriodAction = "REOPEN_FULL"
)

// RequiresApproval reports whether the action must carry an approval
// reference to be accepted.
func (a PeriodAction) RequiresApproval() bool {
	return a == Close || a == ReopenFull
}

// periodTransitions enumerates the legal lock state machine.
var periodTransitions = map[PeriodState]map[PeriodAction]PeriodState{
	PeriodOpen: {
		SoftClose: PeriodSoftClosed,
	},
	PeriodSoftClosed: {
		Close: PeriodClosed,
	},
	PeriodClosed: {
		ReopenSoft: PeriodSoftClosed,
		ReopenFull: PeriodOpen,
	},
}

// NextPeriodState returns the state a period moves to when action is applied,
// or an error describing the rejected transition.
func NextPeriodState(current PeriodState, action PeriodAction) (PeriodState, error) {
	next, ok := periodTransitions[current][action]
	if !ok {
		return current, fmt.Errorf("cannot apply %s while period is %s", action, current)
	}
	return next, nil
}

// PeriodLock is one applied lock action. Locks are append-only history; the
// effective state of a period is derived from its latest lock.
type PeriodLock struct {
	LockID            string       `json:"lockID"` // Primary Key (UUID)
	JournalID         string       `json:"journalID"`
	FiscalYear        int          `json:"fiscalYear"`
	Period            int          `json:"period"`
	Action            PeriodAction `json:"action"`
	ResultingState    PeriodState  `json:"resultingState"`
	ApprovalReference string       `json:"approvalReference"` // Required for CLOSE and REOPEN_FULL
	LockedBy          string       `json:"lockedBy"`
	LockedAt          time.Time    `json:"lockedAt"`
}
