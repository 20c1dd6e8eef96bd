package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"complianceapi/internal/model"
	notifyMocks "complianceapi/internal/notify/mocks"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
	repoMocks "complianceapi/internal/repository/mocks"
)

func newSweeper(t *testing.T, cfg Config, repo repository.RecordRepository, notifier *notifyMocks.MockNotifier) *Sweeper {
	t.Helper()
	reg, err := registry.New(registry.Catalog())
	if err != nil {
		t.Fatalf("catalog did not load: %v", err)
	}
	metrics, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics registration failed: %v", err)
	}
	return New(cfg, reg, repo, notifier, metrics)
}

func verifiedDBS(id string, expiryDate time.Time) model.DocumentRecord {
	return model.DocumentRecord{
		ID:             id,
		OwnerID:        "worker-1",
		DocumentTypeID: "dbs_check",
		ExpiryDate:     &expiryDate,
		Version:        1,
		Status:         model.StatusVerified,
		ReviewerID:     "admin-1",
		IsCurrent:      true,
	}
}

func TestSweeper_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(2027, time.February, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Interval: time.Hour, WarningWindowMonths: 3}

	t.Run("lapsed record is expired, warning-window record notified once", func(t *testing.T) {
		lapsed := verifiedDBS("rec-lapsed", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
		closing := verifiedDBS("rec-closing", time.Date(2026, time.December, 10, 0, 0, 0, 0, time.UTC))

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{lapsed, closing}, nil)
		mRepo.On("TransitionStatus", ctx, repository.StatusChange{
			RecordID:   "rec-lapsed",
			FromStatus: model.StatusVerified,
			ToStatus:   model.StatusExpired,
			Version:    1,
			ReviewerID: "admin-1",
		}, mock.MatchedBy(func(e *model.AuditEntry) bool {
			return e.Action == model.ActionExpire && e.ActorID == SweepActor
		})).Return(&model.DocumentRecord{ID: "rec-lapsed", Status: model.StatusExpired}, nil)
		mRepo.On("MarkExpiryNotified", ctx, "rec-closing", now).Return(nil)

		mNotify := new(notifyMocks.MockNotifier)
		mNotify.On("ExpiringSoon", ctx, closing, mock.Anything).Return()

		s := newSweeper(t, cfg, mRepo, mNotify)
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{Scanned: 2, Expired: 1, Notified: 1}, stats)
		mRepo.AssertExpectations(t)
		mNotify.AssertExpectations(t)
	})

	t.Run("already-notified record is not notified again", func(t *testing.T) {
		closing := verifiedDBS("rec-closing", time.Date(2026, time.December, 10, 0, 0, 0, 0, time.UTC))
		notified := now.AddDate(0, 0, -1)
		closing.ExpiryNotifiedAt = &notified

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{closing}, nil)

		mNotify := new(notifyMocks.MockNotifier)

		s := newSweeper(t, cfg, mRepo, mNotify)
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{Scanned: 1}, stats)
		mNotify.AssertNotCalled(t, "ExpiringSoon", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race means another writer already acted", func(t *testing.T) {
		lapsed := verifiedDBS("rec-lapsed", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{lapsed}, nil)
		mRepo.On("TransitionStatus", ctx, mock.Anything, mock.Anything).
			Return(nil, repository.ErrStaleRecord)

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		// Not expired, not skipped: the record was already handled.
		assert.Equal(t, Stats{Scanned: 1}, stats)
	})

	t.Run("a bad record is skipped, the pass continues", func(t *testing.T) {
		broken := verifiedDBS("rec-broken", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
		broken.ExpiryDate = nil // integrity violation for a type that requires one
		good := verifiedDBS("rec-good", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{broken, good}, nil)
		mRepo.On("TransitionStatus", ctx, mock.MatchedBy(func(ch repository.StatusChange) bool {
			return ch.RecordID == "rec-good"
		}), mock.Anything).
			Return(&model.DocumentRecord{ID: "rec-good", Status: model.StatusExpired}, nil)

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{Scanned: 2, Expired: 1, Skipped: 1}, stats)
	})

	t.Run("transition failure is skipped", func(t *testing.T) {
		lapsed := verifiedDBS("rec-lapsed", time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{lapsed}, nil)
		mRepo.On("TransitionStatus", ctx, mock.Anything, mock.Anything).
			Return(nil, errors.New("db unavailable"))

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{Scanned: 1, Skipped: 1}, stats)
	})

	t.Run("list failure fails the pass", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return(nil, errors.New("db unavailable"))

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		_, err := s.RunOnce(ctx, now)

		assert.Error(t, err)
	})

	t.Run("rerun after a completed pass finds nothing to do", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{}, nil)

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{}, stats)
	})
}

func TestSweeper_ArchiveRejected(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Interval: time.Hour, WarningWindowMonths: 3, RejectedArchiveDays: 30}
	cutoff := time.Date(2027, time.February, 1, 0, 0, 0, 0, time.UTC)
	archiveCutoff := now.AddDate(0, 0, -30)

	t.Run("stale rejected records are archived", func(t *testing.T) {
		rejected := model.DocumentRecord{
			ID: "rec-rejected", OwnerID: "worker-1", DocumentTypeID: "dbs_check",
			Version: 2, Status: model.StatusRejected, IsCurrent: true,
		}

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{}, nil)
		mRepo.On("ListRejectedBefore", ctx, archiveCutoff).
			Return([]model.DocumentRecord{rejected}, nil)
		mRepo.On("ArchiveRecord", ctx, "rec-rejected", 2, mock.MatchedBy(func(e *model.AuditEntry) bool {
			return e.Action == model.ActionArchive && e.ActorID == SweepActor
		})).Return(nil)

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, 1, stats.Archived)
		mRepo.AssertExpectations(t)
	})

	t.Run("resubmission racing the archive is tolerated", func(t *testing.T) {
		rejected := model.DocumentRecord{
			ID: "rec-rejected", Version: 2, Status: model.StatusRejected, DocumentTypeID: "dbs_check",
		}

		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{}, nil)
		mRepo.On("ListRejectedBefore", ctx, archiveCutoff).
			Return([]model.DocumentRecord{rejected}, nil)
		mRepo.On("ArchiveRecord", ctx, "rec-rejected", 2, mock.Anything).
			Return(repository.ErrStaleRecord)

		s := newSweeper(t, cfg, mRepo, new(notifyMocks.MockNotifier))
		stats, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		assert.Equal(t, Stats{}, stats)
	})

	t.Run("archive pass disabled by default", func(t *testing.T) {
		mRepo := new(repoMocks.MockRecordRepository)
		mRepo.On("ListVerifiedExpiringBefore", ctx, cutoff).
			Return([]model.DocumentRecord{}, nil)

		s := newSweeper(t, Config{Interval: time.Hour, WarningWindowMonths: 3}, mRepo, new(notifyMocks.MockNotifier))
		_, err := s.RunOnce(ctx, now)

		assert.NoError(t, err)
		mRepo.AssertNotCalled(t, "ListRejectedBefore", mock.Anything, mock.Anything)
	})
}
