package repositories

import (
	"context"

	"github.com/openbooks-app/openbooks/internal/core/domain"
)

// AuditEventWriter appends to the audit trail. There is no update or delete.
type AuditEventWriter interface {
	// AppendAuditEvent stores the event, assigning it the next sequence
	// number for its company, and returns the stored event. Sequence
	// assignment and insertion are atomic: concurrent appends for the same
	// company never produce gaps or duplicates.
	AppendAuditEvent(ctx context.Context, event domain.AuditEvent) (*domain.AuditEvent, error)
}

// AuditEventReader queries the audit trail.
type AuditEventReader interface {
	// ListAuditEvents returns events matching the filter in ascending
	// sequence order.
	ListAuditEvents(ctx context.Context, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error)
}

// AuditRepositoryFacade combines audit trail interfaces
type AuditRepositoryFacade interface {
	AuditEventWriter
	AuditEventReader
}
