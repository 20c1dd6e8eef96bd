package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"complianceapi/internal/expiry"
	"complianceapi/internal/model"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
	"complianceapi/internal/storage"
)

// SubmitInput carries one document submission: metadata plus file content.
// OwnerID and ActorID are opaque identity strings supplied by the caller;
// the engine records them but never authenticates them.
type SubmitInput struct {
	OwnerID        string
	DocumentTypeID string
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	Extensions     map[string]string
	ActorID        string

	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// HistoryResult bundles every version of an (owner, type) document with its
// full audit trail.
type HistoryResult struct {
	Versions []model.DocumentRecord `json:"versions"`
	Audit    []model.AuditEntry     `json:"audit"`
}

// SubmissionService is the intake side of the engine: new documents enter
// pending, replacements supersede the prior version.
type SubmissionService interface {
	// Submit validates against the type registry, stores the file, and
	// persists a pending record. If a current record already exists for the
	// (owner, type) pair it is superseded, its version incremented.
	Submit(ctx context.Context, in SubmitInput) (*model.DocumentRecord, error)

	Get(ctx context.Context, id string) (*model.DocumentRecord, error)

	// History returns all versions for the (owner, type) pair the given
	// record belongs to, plus their audit entries.
	History(ctx context.Context, recordID string) (*HistoryResult, error)

	// DownloadURL returns a time-limited link to the record's file.
	DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

type submissionService struct {
	reg   *registry.Registry
	store storage.Storage
	repo  repository.RecordRepository
	audit repository.AuditRepository
	now   func() time.Time
}

func NewSubmissionService(reg *registry.Registry, store storage.Storage, repo repository.RecordRepository, audit repository.AuditRepository) SubmissionService {
	return &submissionService{
		reg:   reg,
		store: store,
		repo:  repo,
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *submissionService) Submit(ctx context.Context, in SubmitInput) (*model.DocumentRecord, error) {
	if in.OwnerID == "" {
		return nil, &MissingFieldError{Field: "owner_id", Rule: "every document belongs to an owner"}
	}
	if in.Reader == nil {
		return nil, &MissingFieldError{Field: "file", Rule: "a submission carries exactly one file"}
	}

	typ, err := s.reg.Lookup(in.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if err := s.reg.ValidateExtensions(typ, in.Extensions); err != nil {
		return nil, err
	}

	issue, expiryDate, err := resolveDates(typ, in.IssueDate, in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	// Upload the file first; the DB write is rolled back against the blob
	// store on failure, never the other way round.
	ext := filepath.Ext(in.Filename)
	key := filepath.ToSlash(filepath.Join("compliance", uuid.NewString()+ext))
	if _, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
			"owner-id":          in.OwnerID,
			"document-type":     in.DocumentTypeID,
		},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := s.now()
	rec := &model.DocumentRecord{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		DocumentTypeID: in.DocumentTypeID,
		IssueDate:      issue,
		ExpiryDate:     expiryDate,
		FileRef:        key,
		Version:        1,
		Status:         model.StatusPending,
		Extensions:     in.Extensions,
		IsCurrent:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	entry := &model.AuditEntry{
		ID:        uuid.NewString(),
		RecordID:  rec.ID,
		ActorID:   in.ActorID,
		Action:    model.ActionSubmit,
		CreatedAt: now,
	}

	current, err := s.repo.FindCurrent(ctx, in.OwnerID, in.DocumentTypeID)
	var stored *model.DocumentRecord
	switch {
	case err == nil:
		rec.Version = current.Version + 1
		entry.Notes = fmt.Sprintf("supersedes version %d", current.Version)
		stored, err = s.repo.Supersede(ctx, current.ID, rec, entry)
	case errors.Is(err, repository.ErrNotFound):
		stored, err = s.repo.Create(ctx, rec, entry)
	default:
		err = fmt.Errorf("lookup current record: %w", err)
	}
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// resolveDates normalizes submitted dates and derives the expiry from the
// type's validity period when it was not supplied explicitly. A type that
// requires an expiry but has no validity period (right-to-work) must have it
// supplied by the caller.
func resolveDates(typ model.DocumentType, issueIn, expiryIn *time.Time) (issue, exp *time.Time, err error) {
	if issueIn != nil {
		d := expiry.DateOnly(*issueIn)
		issue = &d
	}
	if expiryIn != nil {
		d := expiry.DateOnly(*expiryIn)
		exp = &d
	}
	if exp == nil && typ.ValidityMonths > 0 {
		if issue == nil {
			return nil, nil, &MissingFieldError{
				Field: "issue_date",
				Rule:  fmt.Sprintf("%s derives its expiry from the issue date", typ.ID),
			}
		}
		exp = expiry.ComputeExpiry(*issue, typ.ValidityMonths)
	}
	if exp == nil && typ.RequiresExpiry {
		return nil, nil, &MissingFieldError{
			Field: "expiry_date",
			Rule:  fmt.Sprintf("%s requires an expiry date", typ.ID),
		}
	}
	if issue != nil && exp != nil && !exp.After(*issue) {
		return nil, nil, &MissingFieldError{
			Field: "expiry_date",
			Rule:  "expiry date must be after the issue date",
		}
	}
	return issue, exp, nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*model.DocumentRecord, error) {
	if id == "" {
		return nil, &MissingFieldError{Field: "id", Rule: "record id is required"}
	}
	return s.repo.FindByID(ctx, id)
}

func (s *submissionService) History(ctx context.Context, recordID string) (*HistoryResult, error) {
	rec, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, rec.OwnerID, rec.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(versions))
	for i, v := range versions {
		ids[i] = v.ID
	}
	entries, err := s.audit.ListByRecords(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Versions: versions, Audit: entries}, nil
}

func (s *submissionService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, rec.FileRef, expiry)
}
