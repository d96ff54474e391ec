package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
	portssvc "github.com/openbooks-app/openbooks/internal/core/ports/services"
	"github.com/openbooks-app/openbooks/internal/dto"
	"github.com/openbooks-app/openbooks/internal/middleware"
	"github.com/openbooks-app/openbooks/internal/utils/pagination"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// auditService records and queries the per-company audit trail.
type auditService struct {
	auditRepo portsrepo.AuditRepositoryFacade
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo portsrepo.AuditRepositoryFacade) portssvc.AuditSvcFacade {
	return &auditService{auditRepo: auditRepo}
}

// Ensure auditService implements the portssvc.AuditSvcFacade interface
var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// Record appends one event. The repository assigns the company-scoped
// sequence number atomically, so callers never see gaps or duplicates.
func (s *auditService) Record(ctx context.Context, companyID string, entityType string, entityID string, action domain.AuditAction, actor string, detail string) (*domain.AuditEvent, error) {
	event := domain.AuditEvent{
		EventID:    uuid.NewString(),
		CompanyID:  companyID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Detail:     detail,
	}

	stored, err := s.auditRepo.AppendAuditEvent(ctx, event)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to append audit event",
			slog.String("company_id", companyID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to append audit event: %w", err)
	}
	return stored, nil
}

// ListAuditTrail returns a filtered page of events in sequence order.
func (s *auditService) ListAuditTrail(ctx context.Context, companyID string, params dto.ListAuditParams) (*dto.ListAuditResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}

	filter := domain.AuditTrailFilter{
		CompanyID: companyID,
		EntityID:  params.EntityID,
		Action:    domain.AuditAction(params.Action),
		From:      params.From,
		To:        params.To,
		Limit:     limit,
	}
	if params.NextToken != nil {
		afterSeq, err := pagination.DecodeSequenceToken(*params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("invalid audit pagination token: %w", err)
		}
		filter.AfterSequence = afterSeq
	}

	events, err := s.auditRepo.ListAuditEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	resp := &dto.ListAuditResponse{Events: make([]dto.AuditEventResponse, len(events))}
	for i := range events {
		resp.Events[i] = dto.ToAuditEventResponse(&events[i])
	}
	if len(events) == limit {
		token := pagination.EncodeSequenceToken(events[len(events)-1].Sequence)
		resp.NextToken = &token
	}
	return resp, nil
}
