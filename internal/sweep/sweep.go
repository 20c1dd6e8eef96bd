// Package sweep runs the periodic expiry pass: verified records whose expiry
// date has passed are transitioned to expired, records entering the warning
// window trigger one notification each, and (optionally) stale rejected
// records are archived. The sweep is idempotent and safe to re-run; a bad
// record is logged and skipped, never allowed to abort the pass.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"complianceapi/internal/expiry"
	"complianceapi/internal/logging"
	"complianceapi/internal/model"
	"complianceapi/internal/notify"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
	"complianceapi/internal/verification"
)

// SweepActor is the audit actor id recorded for time-driven transitions.
const SweepActor = "system:sweep"

// Stats summarizes one sweep pass.
type Stats struct {
	Scanned  int
	Expired  int
	Notified int
	Archived int
	Skipped  int
}

// Config controls sweep cadence and policy.
type Config struct {
	Interval            time.Duration
	WarningWindowMonths int
	// RejectedArchiveDays archives current rejected records untouched for
	// this many days. Zero disables the pass.
	RejectedArchiveDays int
}

type Sweeper struct {
	cfg      Config
	reg      *registry.Registry
	repo     repository.RecordRepository
	notifier notify.Notifier
	metrics  *Metrics
	log      *logging.Logger
	now      func() time.Time
}

func New(cfg Config, reg *registry.Registry, repo repository.RecordRepository, notifier notify.Notifier, metrics *Metrics) *Sweeper {
	return &Sweeper{
		cfg:      cfg,
		reg:      reg,
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		log:      logging.New("sweep"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pass immediately, then on every interval tick until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.runLogged(ctx)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Sweeper) runLogged(ctx context.Context) {
	start := time.Now()
	stats, err := s.RunOnce(ctx, s.now())
	fields := map[string]any{
		"scanned":     stats.Scanned,
		"expired":     stats.Expired,
		"notified":    stats.Notified,
		"archived":    stats.Archived,
		"skipped":     stats.Skipped,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.log.Error("sweep_failed", err, fields)
		return
	}
	s.log.Info("sweep_complete", fields)
}

// RunOnce scans records against the given reference time. Only the list
// queries can fail the pass as a whole; every per-record failure increments
// Skipped and moves on.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats

	// One query covers both expired records and those inside the warning
	// window; classification decides which bucket each falls into.
	cutoff := expiry.AddMonths(now, s.cfg.WarningWindowMonths)
	records, err := s.repo.ListVerifiedExpiringBefore(ctx, cutoff)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(records)

	for _, rec := range records {
		if err := s.sweepRecord(ctx, rec, now, &stats); err != nil {
			stats.Skipped++
			s.metrics.Skipped.Inc()
			s.log.Error("record_skipped", err, map[string]any{
				"record_id": rec.ID, "owner_id": rec.OwnerID,
			})
		}
	}

	if s.cfg.RejectedArchiveDays > 0 {
		s.archiveRejected(ctx, now, &stats)
	}

	s.metrics.Runs.Inc()
	return stats, nil
}

func (s *Sweeper) sweepRecord(ctx context.Context, rec model.DocumentRecord, now time.Time, stats *Stats) error {
	typ, err := s.reg.Lookup(rec.DocumentTypeID)
	if err != nil {
		return err
	}
	class, err := expiry.ClassifyRecord(&rec, typ, now, s.cfg.WarningWindowMonths)
	if err != nil {
		return err
	}

	switch class {
	case expiry.Expired:
		if err := verification.Expire(&rec, now); err != nil {
			return err
		}
		_, err := s.repo.TransitionStatus(ctx, repository.StatusChange{
			RecordID:   rec.ID,
			FromStatus: model.StatusVerified,
			ToStatus:   model.StatusExpired,
			Version:    rec.Version,
			ReviewerID: rec.ReviewerID,
			Notes:      rec.ReviewerNotes,
		}, &model.AuditEntry{
			ID:        uuid.NewString(),
			RecordID:  rec.ID,
			ActorID:   SweepActor,
			Action:    model.ActionExpire,
			Notes:     "expiry date " + rec.ExpiryDate.Format("2006-01-02") + " passed",
			CreatedAt: now,
		})
		if errors.Is(err, repository.ErrStaleRecord) {
			// Another pass or a resubmission got there first; nothing to do.
			return nil
		}
		if err != nil {
			return err
		}
		stats.Expired++
		s.metrics.Expired.Inc()

	case expiry.ExpiringSoon:
		if rec.ExpiryNotifiedAt != nil {
			return nil
		}
		s.notifier.ExpiringSoon(ctx, rec, typ)
		if err := s.repo.MarkExpiryNotified(ctx, rec.ID, now); err != nil {
			return err
		}
		stats.Notified++
		s.metrics.Notified.Inc()
	}
	return nil
}

func (s *Sweeper) archiveRejected(ctx context.Context, now time.Time, stats *Stats) {
	cutoff := now.AddDate(0, 0, -s.cfg.RejectedArchiveDays)
	records, err := s.repo.ListRejectedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("archive_list_failed", err, nil)
		return
	}
	for _, rec := range records {
		err := s.repo.ArchiveRecord(ctx, rec.ID, rec.Version, &model.AuditEntry{
			ID:        uuid.NewString(),
			RecordID:  rec.ID,
			ActorID:   SweepActor,
			Action:    model.ActionArchive,
			Notes:     "rejected record archived after retention period",
			CreatedAt: now,
		})
		if err != nil {
			if !errors.Is(err, repository.ErrStaleRecord) {
				stats.Skipped++
				s.metrics.Skipped.Inc()
				s.log.Error("archive_failed", err, map[string]any{"record_id": rec.ID})
			}
			continue
		}
		stats.Archived++
		s.metrics.Archived.Inc()
	}
}
