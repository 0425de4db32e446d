package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"
)

const defaultFindLimit = 100

// PostgresStore is the queryable audit log.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Write(ctx context.Context, ev models.AuditEvent) error {
	metadata, err := json.Marshal(ev.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_role, action, target_id, description, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID,
		ev.ActorID,
		string(ev.ActorRole),
		ev.Action,
		ev.TargetID,
		ev.Description,
		metadata,
		ev.OccurredAt,
	)
	if err != nil {
		return errors.NewDatabaseWriteFailedError("insert audit event", err)
	}
	return nil
}

// Find returns matching events, newest first.
func (s *PostgresStore) Find(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.TargetID != "" {
		add("target_id = $%d", f.TargetID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if !f.From.IsZero() {
		add("occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("occurred_at < $%d", f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}

	query := `SELECT id, actor_id, actor_role, action, target_id, description, metadata, occurred_at FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("find audit events", err)
	}
	defer rows.Close()

	events := []models.AuditEvent{}
	for rows.Next() {
		var (
			ev       models.AuditEvent
			role     string
			metadata []byte
		)
		if err := rows.Scan(&ev.ID, &ev.ActorID, &role, &ev.Action, &ev.TargetID, &ev.Description, &metadata, &ev.OccurredAt); err != nil {
			return nil, errors.NewDatabaseQueryFailedError("scan audit event", err)
		}
		ev.ActorRole = models.Role(role)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, errors.NewDatabaseQueryFailedError("decode audit metadata for "+ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("iterate audit events", err)
	}
	return events, nil
}
