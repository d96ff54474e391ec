package services

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/openbooks-app/openbooks/internal/dto"
)

// AuditRecorderSvc is used by the other services to record state changes.
type AuditRecorderSvc interface {
	// Record appends one event to the company's audit trail. The store
	// assigns the sequence number.
	Record(ctx context.Context, companyID string, entityType string, entityID string, action domain.AuditAction, actor string, detail string) (*domain.AuditEvent, error)
}

// AuditReaderSvc queries the audit trail.
type AuditReaderSvc interface {
	// ListAuditTrail returns a filtered page of a company's audit events
	// in sequence order.
	ListAuditTrail(ctx context.Context, companyID string, params dto.ListAuditParams) (*dto.ListAuditResponse, error)
}

// AuditSvcFacade combines audit service interfaces
type AuditSvcFacade interface {
	AuditRecorderSvc
	AuditReaderSvc
}
