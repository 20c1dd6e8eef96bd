package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"complianceapi/internal/model"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
	"complianceapi/internal/verification"
)

// ReviewService executes admin decisions on pending documents. Both actions
// are idempotent under at-least-once delivery: repeating an identical
// reviewer+action on an already-decided record returns the current state with
// no duplicate audit entry.
type ReviewService interface {
	Approve(ctx context.Context, recordID, reviewerID, notes string) (*model.DocumentRecord, error)
	Reject(ctx context.Context, recordID, reviewerID, reason string) (*model.DocumentRecord, error)
}

type reviewService struct {
	reg  *registry.Registry
	repo repository.RecordRepository
	now  func() time.Time
}

func NewReviewService(reg *registry.Registry, repo repository.RecordRepository) ReviewService {
	return &reviewService{
		reg:  reg,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Approve(ctx context.Context, recordID, reviewerID, notes string) (*model.DocumentRecord, error) {
	rec, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.StatusVerified && rec.ReviewerID == reviewerID {
		return rec, nil // repeat delivery of the same decision
	}
	if !rec.IsCurrent {
		// The record was superseded between the reviewer's fetch and this
		// decision. The historical row must not be mutated.
		return nil, repository.ErrStaleRecord
	}

	typ, err := s.reg.Lookup(rec.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := verification.Approve(rec, typ, reviewerID, now); err != nil {
		return nil, err
	}
	return s.repo.TransitionStatus(ctx, repository.StatusChange{
		RecordID:   rec.ID,
		FromStatus: model.StatusPending,
		ToStatus:   model.StatusVerified,
		Version:    rec.Version,
		ReviewerID: reviewerID,
		Notes:      notes,
	}, &model.AuditEntry{
		ID:        uuid.NewString(),
		RecordID:  rec.ID,
		ActorID:   reviewerID,
		Action:    model.ActionApprove,
		Notes:     notes,
		CreatedAt: now,
	})
}

func (s *reviewService) Reject(ctx context.Context, recordID, reviewerID, reason string) (*model.DocumentRecord, error) {
	if reason == "" {
		// Validated before any read or mutation.
		return nil, verification.ErrReasonRequired
	}
	rec, err := s.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.StatusRejected && rec.ReviewerID == reviewerID {
		return rec, nil
	}
	if !rec.IsCurrent {
		return nil, repository.ErrStaleRecord
	}

	if err := verification.Reject(rec, reviewerID, reason); err != nil {
		return nil, err
	}
	now := s.now()
	return s.repo.TransitionStatus(ctx, repository.StatusChange{
		RecordID:   rec.ID,
		FromStatus: model.StatusPending,
		ToStatus:   model.StatusRejected,
		Version:    rec.Version,
		ReviewerID: reviewerID,
		Notes:      reason,
	}, &model.AuditEntry{
		ID:        uuid.NewString(),
		RecordID:  rec.ID,
		ActorID:   reviewerID,
		Action:    model.ActionReject,
		Notes:     reason,
		CreatedAt: now,
	})
}
