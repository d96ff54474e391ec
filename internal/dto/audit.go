package dto

import (
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// ListAuditParams narrows an audit trail query.
type ListAuditParams struct {
	EntityID  string     `form:"entityID"`
	Action    string     `form:"action"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int        `form:"limit"`
	NextToken *string    `form:"nextToken"`
}

// AuditEventResponse mirrors domain.AuditEvent.
type AuditEventResponse struct {
	EventID    string             `json:"eventID"`
	CompanyID  string             `json:"companyID"`
	Sequence   uint64             `json:"sequence"`
	EntityType string             `json:"entityType"`
	EntityID   string             `json:"entityID"`
	Action     domain.AuditAction `json:"action"`
	Actor      string             `json:"actor"`
	OccurredAt time.Time          `json:"occurredAt"`
	Detail     string             `json:"detail,omitempty"`
}

// ToAuditEventResponse converts a domain.AuditEvent to its DTO.
func ToAuditEventResponse(e *domain.AuditEvent) AuditEventResponse {
	return AuditEventResponse{
		EventID:    e.EventID,
		CompanyID:  e.CompanyID,
		Sequence:   e.Sequence,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Actor:      e.Actor,
		OccurredAt: e.OccurredAt,
		Detail:     e.Detail,
	}
}

// ListAuditResponse is one page of audit events.
type ListAuditResponse struct {
	Events    []AuditEventResponse `json:"events"`
	NextToken *string              `json:"nextToken,omitempty"`
}
