package domain

import "time"

// AuditAction names the state change an audit event records.
type AuditAction string

const (
	AuditCompanyCreated     AuditAction = "COMPANY_CREATED"
	AuditAccountCreated     AuditAction = "ACCOUNT_CREATED"
	AuditAccountUpdated     AuditAction = "ACCOUNT_UPDATED"
	AuditJournalCreated     AuditAction = "JOURNAL_CREATED"
	AuditEntryPosted        AuditAction = "ENTRY_POSTED"
	AuditEntryReversed      AuditAction = "ENTRY_REVERSED"
	AuditPeriodLockApplied  AuditAction = "PERIOD_LOCK_APPLIED"
	AuditRevaluationPosted  AuditAction = "REVALUATION_POSTED"
	AuditRateSubmitted      AuditAction = "RATE_SUBMITTED"
	AuditStatementIngested  AuditAction = "STATEMENT_INGESTED"
	AuditSessionCreated     AuditAction = "SESSION_CREATED"
	AuditCandidateAccepted  AuditAction = "CANDIDATE_ACCEPTED"
	AuditCandidatePartial   AuditAction = "CANDIDATE_PARTIALLY_ACCEPTED"
	AuditCandidateWrittenOf AuditAction = "CANDIDATE_WRITTEN_OFF"
	AuditCandidateRejected  AuditAction = "CANDIDATE_REJECTED"
	AuditSessionReopened    AuditAction = "SESSION_REOPENED"
)

// AuditEvent is one immutable row in a company's audit trail. Sequence is
// assigned by the store and increases by exactly one per company with no
// gaps, independent of wall-clock time.
type AuditEvent struct {
	EventID    string      `json:"eventID"` // Primary Key (UUID)
	CompanyID  string      `json:"companyID"`
	Sequence   uint64      `json:"sequence"`
	EntityType string      `json:"entityType"` // e.g. "journal_entry", "reconciliation_session"
	EntityID   string      `json:"entityID"`
	Action     AuditAction `json:"action"`
	Actor      string      `json:"actor"`
	OccurredAt time.Time   `json:"occurredAt"`
	Detail     string      `json:"detail,omitempty"` // Free-form JSON payload
}

// AuditTrailFilter narrows an audit trail query. Zero values mean "any".
type AuditTrailFilter struct {
	CompanyID     string
	EntityID      string
	Action        AuditAction
	From          *time.Time
	To            *time.Time
	AfterSequence uint64
	Limit         int
}
