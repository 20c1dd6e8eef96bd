package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"complianceapi/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_document_records",
		SQL: `CREATE TABLE IF NOT EXISTS document_records (
  id                 UUID        PRIMARY KEY,
  owner_id           TEXT        NOT NULL,
  document_type_id   TEXT        NOT NULL,
  issue_date         DATE,
  expiry_date        DATE,
  file_ref           TEXT        NOT NULL,
  version            INT         NOT NULL CHECK (version >= 1),
  status             TEXT        NOT NULL CHECK (status IN ('pending', 'verified', 'rejected', 'expired')),
  reviewer_id        TEXT        NOT NULL DEFAULT '',
  reviewer_notes     TEXT        NOT NULL DEFAULT '',
  extensions         JSONB       NOT NULL DEFAULT '{}',
  is_current         BOOLEAN     NOT NULL DEFAULT TRUE,
  expiry_notified_at TIMESTAMPTZ,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		// One current record per (owner, type); concurrent submissions race
		// on this index rather than producing duplicates.
		Name: "create_unique_index_current_record",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_document_records_current
  ON document_records (owner_id, document_type_id) WHERE is_current;`,
	},
	{
		Name: "create_index_records_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_records_owner ON document_records (owner_id);`,
	},
	{
		Name: "create_index_records_expiry",
		SQL: `CREATE INDEX IF NOT EXISTS idx_document_records_expiry
  ON document_records (expiry_date) WHERE is_current AND status = 'verified';`,
	},
	{
		Name: "create_table_audit_entries",
		SQL: `CREATE TABLE IF NOT EXISTS audit_entries (
  id         UUID        PRIMARY KEY,
  record_id  UUID        NOT NULL REFERENCES document_records (id),
  actor_id   TEXT        NOT NULL,
  action     TEXT        NOT NULL CHECK (action IN ('submit', 'approve', 'reject', 'expire', 'archive')),
  notes      TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_record",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_entries_record ON audit_entries (record_id, created_at);`,
	},
}

// EnsureMigrated runs the schema migration unless the sentinel table already
// exists.
func EnsureMigrated(ctx context.Context, db *sql.DB) error {
	log := logging.New("database")
	start := time.Now()

	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT to_regclass('public.document_records') IS NOT NULL").Scan(&exists); err != nil {
		log.Error("db_migration_failed", err, map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		log.Info("db_migration_skip", map[string]any{
			"msg":         "schema already exists, skipping migration",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed", err, map[string]any{
				"migration_step": step.Name,
				"duration_ms":    time.Since(start).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("db_migration_step", map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Info("db_migration_success", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
