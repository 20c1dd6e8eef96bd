package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"complianceapi/internal/model"
	"complianceapi/internal/repository"
)

// RecordPostgres is the PostgreSQL implementation of
// repository.RecordRepository. It uses database/sql with parameterized
// queries; the partial unique index on (owner_id, document_type_id) WHERE
// is_current is what guarantees a single current record per pair under
// concurrent submissions.
type RecordPostgres struct {
	db *sql.DB
}

func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

const recordColumns = `id, owner_id, document_type_id, issue_date, expiry_date, file_ref,
	version, status, reviewer_id, reviewer_notes, extensions, is_current,
	expiry_notified_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.DocumentRecord, error) {
	var (
		rec        model.DocumentRecord
		issue, exp sql.NullTime
		notified   sql.NullTime
		extRaw     []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.DocumentTypeID,
		&issue,
		&exp,
		&rec.FileRef,
		&rec.Version,
		&rec.Status,
		&rec.ReviewerID,
		&rec.ReviewerNotes,
		&extRaw,
		&rec.IsCurrent,
		&notified,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if issue.Valid {
		t := issue.Time.UTC()
		rec.IssueDate = &t
	}
	if exp.Valid {
		t := exp.Time.UTC()
		rec.ExpiryDate = &t
	}
	if notified.Valid {
		t := notified.Time.UTC()
		rec.ExpiryNotifiedAt = &t
	}
	if len(extRaw) > 0 {
		if err := json.Unmarshal(extRaw, &rec.Extensions); err != nil {
			return nil, fmt.Errorf("decode extensions: %w", err)
		}
	}
	return &rec, nil
}

func extensionsJSON(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	return json.Marshal(m)
}

// isUniqueViolation reports a PostgreSQL unique constraint failure (23505),
// raised when a second "current" record races for the same (owner, type).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const insertRecordSQL = `
	INSERT INTO document_records (` + recordColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING ` + recordColumns

const insertAuditSQL = `
	INSERT INTO audit_entries (id, record_id, actor_id, action, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

func insertRecordTx(ctx context.Context, tx *sql.Tx, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	extRaw, err := extensionsJSON(rec.Extensions)
	if err != nil {
		return nil, fmt.Errorf("encode extensions: %w", err)
	}
	row := tx.QueryRowContext(ctx, insertRecordSQL,
		rec.ID,
		rec.OwnerID,
		rec.DocumentTypeID,
		nullTime(rec.IssueDate),
		nullTime(rec.ExpiryDate),
		rec.FileRef,
		rec.Version,
		rec.Status,
		rec.ReviewerID,
		rec.ReviewerNotes,
		extRaw,
		rec.IsCurrent,
		nullTime(rec.ExpiryNotifiedAt),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return scanRecord(row)
}

func insertAuditTx(ctx context.Context, tx *sql.Tx, e *model.AuditEntry) error {
	_, err := tx.ExecContext(ctx, insertAuditSQL,
		e.ID, e.RecordID, e.ActorID, e.Action, e.Notes, e.CreatedAt)
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts the first version of a record plus its submit audit entry.
func (r *RecordPostgres) Create(ctx context.Context, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stored, err := insertRecordTx(ctx, tx, rec)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrStaleRecord
		}
		return nil, err
	}
	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// Supersede retires the current record and inserts the replacement version in
// one transaction.
func (r *RecordPostgres) Supersede(ctx context.Context, currentID string, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const retire = `
		UPDATE document_records SET is_current = FALSE, updated_at = $2
		WHERE id = $1 AND is_current = TRUE`
	res, err := tx.ExecContext(ctx, retire, currentID, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrStaleRecord
	}

	stored, err := insertRecordTx(ctx, tx, rec)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrStaleRecord
		}
		return nil, err
	}
	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// TransitionStatus applies a guarded status change plus audit entry
// atomically. The WHERE clause on (id, status, version, is_current) is the
// optimistic check: zero rows means the record vanished, a concurrent writer
// got there first, or the row was superseded. Historical rows are never
// mutated.
func (r *RecordPostgres) TransitionStatus(ctx context.Context, ch repository.StatusChange, entry *model.AuditEntry) (*model.DocumentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		UPDATE document_records
		SET status = $4, reviewer_id = $5, reviewer_notes = $6, updated_at = $7
		WHERE id = $1 AND status = $2 AND version = $3 AND is_current = TRUE
		RETURNING ` + recordColumns
	row := tx.QueryRowContext(ctx, q,
		ch.RecordID, ch.FromStatus, ch.Version,
		ch.ToStatus, ch.ReviewerID, ch.Notes, entry.CreatedAt,
	)
	updated, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.staleOrMissing(ctx, ch.RecordID)
		}
		return nil, err
	}
	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// staleOrMissing distinguishes a lost optimistic race from a missing record.
func (r *RecordPostgres) staleOrMissing(ctx context.Context, id string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_records WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrStaleRecord
	}
	return repository.ErrNotFound
}

func (r *RecordPostgres) FindByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM document_records WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (r *RecordPostgres) FindCurrent(ctx context.Context, ownerID, typeID string) (*model.DocumentRecord, error) {
	const q = `
		SELECT ` + recordColumns + ` FROM document_records
		WHERE owner_id = $1 AND document_type_id = $2 AND is_current = TRUE`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, ownerID, typeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return rec, err
}

func (r *RecordPostgres) ListCurrentForOwner(ctx context.Context, ownerID string) ([]model.DocumentRecord, error) {
	const q = `
		SELECT ` + recordColumns + ` FROM document_records
		WHERE owner_id = $1 AND is_current = TRUE
		ORDER BY document_type_id`
	return r.queryRecords(ctx, q, ownerID)
}

func (r *RecordPostgres) ListVersions(ctx context.Context, ownerID, typeID string) ([]model.DocumentRecord, error) {
	const q = `
		SELECT ` + recordColumns + ` FROM document_records
		WHERE owner_id = $1 AND document_type_id = $2
		ORDER BY version DESC`
	return r.queryRecords(ctx, q, ownerID, typeID)
}

func (r *RecordPostgres) ListVerifiedExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error) {
	const q = `
		SELECT ` + recordColumns + ` FROM document_records
		WHERE is_current = TRUE AND status = $1 AND expiry_date IS NOT NULL AND expiry_date <= $2
		ORDER BY expiry_date`
	return r.queryRecords(ctx, q, model.StatusVerified, cutoff)
}

func (r *RecordPostgres) ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error) {
	const q = `
		SELECT ` + recordColumns + ` FROM document_records
		WHERE is_current = TRUE AND status = $1 AND updated_at <= $2
		ORDER BY updated_at`
	return r.queryRecords(ctx, q, model.StatusRejected, cutoff)
}

// ArchiveRecord retires a rejected record together with its archive audit
// entry. Guarded on version so a resubmission racing the archive pass wins.
func (r *RecordPostgres) ArchiveRecord(ctx context.Context, id string, version int, entry *model.AuditEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		UPDATE document_records SET is_current = FALSE, updated_at = $4
		WHERE id = $1 AND version = $2 AND status = $3 AND is_current = TRUE`
	res, err := tx.ExecContext(ctx, q, id, version, model.StatusRejected, entry.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStaleRecord
	}
	if err := insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *RecordPostgres) MarkExpiryNotified(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE document_records SET expiry_notified_at = $2
		WHERE id = $1 AND expiry_notified_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

func (r *RecordPostgres) queryRecords(ctx context.Context, q string, args ...any) ([]model.DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
