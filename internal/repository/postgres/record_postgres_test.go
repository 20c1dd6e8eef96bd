package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"complianceapi/internal/model"
	"complianceapi/internal/repository"
)

var recordColumnNames = []string{
	"id", "owner_id", "document_type_id", "issue_date", "expiry_date", "file_ref",
	"version", "status", "reviewer_id", "reviewer_notes", "extensions", "is_current",
	"expiry_notified_at", "created_at", "updated_at",
}

func sampleRecord() *model.DocumentRecord {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	issue := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2029, time.January, 15, 0, 0, 0, 0, time.UTC)
	return &model.DocumentRecord{
		ID:             "rec-1",
		OwnerID:        "worker-1",
		DocumentTypeID: "dbs_check",
		IssueDate:      &issue,
		ExpiryDate:     &exp,
		FileRef:        "compliance/rec-1.pdf",
		Version:        1,
		Status:         model.StatusPending,
		Extensions:     map[string]string{"certificate_number": "123456789012"},
		IsCurrent:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func recordRows(rec *model.DocumentRecord) *sqlmock.Rows {
	return sqlmock.NewRows(recordColumnNames).AddRow(
		rec.ID, rec.OwnerID, rec.DocumentTypeID,
		nullTime(rec.IssueDate), nullTime(rec.ExpiryDate), rec.FileRef,
		rec.Version, rec.Status, rec.ReviewerID, rec.ReviewerNotes,
		[]byte(`{"certificate_number":"123456789012"}`), rec.IsCurrent,
		nullTime(rec.ExpiryNotifiedAt), rec.CreatedAt, rec.UpdatedAt,
	)
}

func sampleAudit(recordID string, action model.Action) *model.AuditEntry {
	return &model.AuditEntry{
		ID:        "audit-1",
		RecordID:  recordID,
		ActorID:   "worker-1",
		Action:    action,
		CreatedAt: time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rec := sampleRecord()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO document_records").
			WillReturnRows(recordRows(rec))
		mock.ExpectExec("INSERT INTO audit_entries").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stored, err := repo.Create(ctx, rec, sampleAudit(rec.ID, model.ActionSubmit))

		assert.NoError(t, err)
		assert.Equal(t, rec.ID, stored.ID)
		assert.Equal(t, "123456789012", stored.Extensions["certificate_number"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent current record loses", func(t *testing.T) {
		rec := sampleRecord()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO document_records").
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Create(ctx, rec, sampleAudit(rec.ID, model.ActionSubmit))

		assert.ErrorIs(t, err, repository.ErrStaleRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("audit insert failure rolls back", func(t *testing.T) {
		rec := sampleRecord()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO document_records").
			WillReturnRows(recordRows(rec))
		mock.ExpectExec("INSERT INTO audit_entries").
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		_, err := repo.Create(ctx, rec, sampleAudit(rec.ID, model.ActionSubmit))

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordPostgres_Supersede(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("retires previous and inserts replacement", func(t *testing.T) {
		rec := sampleRecord()
		rec.ID = "rec-2"
		rec.Version = 2

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_records SET is_current = FALSE").
			WithArgs("rec-1", rec.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO document_records").
			WillReturnRows(recordRows(rec))
		mock.ExpectExec("INSERT INTO audit_entries").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stored, err := repo.Supersede(ctx, "rec-1", rec, sampleAudit(rec.ID, model.ActionSubmit))

		assert.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("previous already superseded", func(t *testing.T) {
		rec := sampleRecord()
		rec.ID = "rec-2"
		rec.Version = 2

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_records SET is_current = FALSE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Supersede(ctx, "rec-1", rec, sampleAudit(rec.ID, model.ActionSubmit))

		assert.ErrorIs(t, err, repository.ErrStaleRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordPostgres_TransitionStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	change := repository.StatusChange{
		RecordID:   "rec-1",
		FromStatus: model.StatusPending,
		ToStatus:   model.StatusVerified,
		Version:    1,
		ReviewerID: "admin-1",
	}

	t.Run("guarded update applies", func(t *testing.T) {
		rec := sampleRecord()
		rec.Status = model.StatusVerified
		rec.ReviewerID = "admin-1"
		entry := sampleAudit(rec.ID, model.ActionApprove)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE document_records").
			WithArgs(change.RecordID, change.FromStatus, change.Version,
				change.ToStatus, change.ReviewerID, change.Notes, entry.CreatedAt).
			WillReturnRows(recordRows(rec))
		mock.ExpectExec("INSERT INTO audit_entries").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		updated, err := repo.TransitionStatus(ctx, change, entry)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusVerified, updated.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race maps to stale", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE document_records").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("rec-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.TransitionStatus(ctx, change, sampleAudit("rec-1", model.ActionApprove))

		assert.ErrorIs(t, err, repository.ErrStaleRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record maps to not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE document_records").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("rec-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.TransitionStatus(ctx, change, sampleAudit("rec-1", model.ActionApprove))

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("superseded row is excluded by the guard and maps to stale", func(t *testing.T) {
		// The update must constrain on is_current so a retired row with
		// matching (status, version) is never touched.
		mock.ExpectBegin()
		mock.ExpectQuery("AND is_current = TRUE").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("rec-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.TransitionStatus(ctx, change, sampleAudit("rec-1", model.ActionApprove))

		assert.ErrorIs(t, err, repository.ErrStaleRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records WHERE id = ?").
			WithArgs("rec-1").
			WillReturnRows(recordRows(sampleRecord()))

		rec, err := repo.FindByID(ctx, "rec-1")

		assert.NoError(t, err)
		assert.Equal(t, "worker-1", rec.OwnerID)
		assert.NotNil(t, rec.ExpiryDate)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		rec, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, rec)
	})
}

func TestRecordPostgres_FindCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs("worker-1", "dbs_check").
			WillReturnRows(recordRows(sampleRecord()))

		rec, err := repo.FindCurrent(ctx, "worker-1", "dbs_check")

		assert.NoError(t, err)
		assert.True(t, rec.IsCurrent)
	})

	t.Run("no current record", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs("worker-1", "right_to_work").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindCurrent(ctx, "worker-1", "right_to_work")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRecordPostgres_ListQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("current for owner", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs("worker-1").
			WillReturnRows(recordRows(sampleRecord()))

		items, err := repo.ListCurrentForOwner(ctx, "worker-1")

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("empty result is a slice, not nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs("worker-2").
			WillReturnRows(sqlmock.NewRows(recordColumnNames))

		items, err := repo.ListCurrentForOwner(ctx, "worker-2")

		assert.NoError(t, err)
		assert.NotNil(t, items)
		assert.Len(t, items, 0)
	})

	t.Run("versions newest first", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs("worker-1", "dbs_check").
			WillReturnRows(recordRows(sampleRecord()))

		items, err := repo.ListVersions(ctx, "worker-1", "dbs_check")

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("verified expiring before cutoff", func(t *testing.T) {
		cutoff := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
		rec := sampleRecord()
		rec.Status = model.StatusVerified

		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs(model.StatusVerified, cutoff).
			WillReturnRows(recordRows(rec))

		items, err := repo.ListVerifiedExpiringBefore(ctx, cutoff)

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("rejected before cutoff", func(t *testing.T) {
		cutoff := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
		rec := sampleRecord()
		rec.Status = model.StatusRejected

		mock.ExpectQuery("SELECT (.+) FROM document_records").
			WithArgs(model.StatusRejected, cutoff).
			WillReturnRows(recordRows(rec))

		items, err := repo.ListRejectedBefore(ctx, cutoff)

		assert.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestRecordPostgres_ArchiveRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()
	entry := sampleAudit("rec-1", model.ActionArchive)

	t.Run("archives rejected record", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_records SET is_current = FALSE").
			WithArgs("rec-1", 1, model.StatusRejected, entry.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO audit_entries").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ArchiveRecord(ctx, "rec-1", 1, entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resubmission racing the archive wins", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE document_records SET is_current = FALSE").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.ArchiveRecord(ctx, "rec-1", 1, entry)

		assert.ErrorIs(t, err, repository.ErrStaleRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordPostgres_MarkExpiryNotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()
	at := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE document_records SET expiry_notified_at").
		WithArgs("rec-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkExpiryNotified(ctx, "rec-1", at)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
