package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	portsrepo "github.com/openbooks-app/openbooks/internal/core/ports/repositories"
)

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAuditRepository implements portsrepo.AuditRepositoryFacade
var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// AppendAuditEvent assigns the next per-company sequence and inserts the
// event in one statement, so concurrent appends never leave gaps. The
// INSERT..SELECT takes a row-level lock path through the unique
// (company_id, sequence) index; a conflicting concurrent insert retries.
func (r *PgxAuditRepository) AppendAuditEvent(ctx context.Context, event domain.AuditEvent) (*domain.AuditEvent, error) {
	query := `
		INSERT INTO audit_events (event_id, company_id, sequence, entity_type, entity_id, action, actor, occurred_at, detail)
		SELECT $1, $2, COALESCE(MAX(sequence), 0) + 1, $3, $4, $5, $6, $7, $8
		FROM audit_events
		WHERE company_id = $2
		RETURNING sequence;
	`
	for attempt := 0; attempt < 5; attempt++ {
		err := r.Pool.QueryRow(ctx, query,
			event.EventID,
			event.CompanyID,
			event.EntityType,
			event.EntityID,
			event.Action,
			event.Actor,
			event.OccurredAt,
			nullable(event.Detail),
		).Scan(&event.Sequence)
		if err == nil {
			return &event, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to append audit event: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to append audit event for company %s: sequence contention", event.CompanyID)
}

func (r *PgxAuditRepository) ListAuditEvents(ctx context.Context, filter domain.AuditTrailFilter) ([]domain.AuditEvent, error) {
	query := `
		SELECT event_id, company_id, sequence, entity_type, entity_id, action, actor, occurred_at, COALESCE(detail, '')
		FROM audit_events
		WHERE company_id = $1
	`
	args := []any{filter.CompanyID}
	idx := 2
	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", idx)
		args = append(args, filter.EntityID)
		idx++
	}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", idx)
		args = append(args, filter.Action)
		idx++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", idx)
		args = append(args, *filter.To)
		idx++
	}
	if filter.AfterSequence > 0 {
		query += fmt.Sprintf(" AND sequence > $%d", idx)
		args = append(args, filter.AfterSequence)
		idx++
	}
	query += " ORDER BY sequence"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		if err := rows.Scan(
			&event.EventID,
			&event.CompanyID,
			&event.Sequence,
			&event.EntityType,
			&event.EntityID,
			&event.Action,
			&event.Actor,
			&event.OccurredAt,
			&event.Detail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event row: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
