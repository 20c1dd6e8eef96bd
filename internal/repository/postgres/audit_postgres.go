package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"complianceapi/internal/model"
	"complianceapi/internal/repository"
)

// AuditPostgres reads the append-only audit trail.
type AuditPostgres struct {
	db *sql.DB
}

func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

func (r *AuditPostgres) ListByRecords(ctx context.Context, recordIDs []string) ([]model.AuditEntry, error) {
	if len(recordIDs) == 0 {
		return []model.AuditEntry{}, nil
	}
	const q = `
		SELECT id, record_id, actor_id, action, notes, created_at
		FROM audit_entries
		WHERE record_id = ANY($1)
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(recordIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.ActorID, &e.Action, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
