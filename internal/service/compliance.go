package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"complianceapi/internal/expiry"
	"complianceapi/internal/logging"
	"complianceapi/internal/model"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
)

// fleetConcurrency bounds parallel per-owner lookups in SummarizeFleet.
const fleetConcurrency = 8

// ComplianceService answers "is this owner fully compliant" for dashboards.
// Summaries are derived on demand from current records; nothing is cached or
// persisted.
type ComplianceService interface {
	Summarize(ctx context.Context, ownerID string) (*model.ComplianceSummary, error)

	// SummarizeFleet computes one summary per owner. Owners with zero records
	// are reported as fully non-compliant, never omitted.
	SummarizeFleet(ctx context.Context, ownerIDs []string) ([]model.ComplianceSummary, error)
}

type complianceService struct {
	reg                 *registry.Registry
	repo                repository.RecordRepository
	log                 *logging.Logger
	warningWindowMonths int
	now                 func() time.Time
}

func NewComplianceService(reg *registry.Registry, repo repository.RecordRepository, warningWindowMonths int) ComplianceService {
	return &complianceService{
		reg:                 reg,
		repo:                repo,
		log:                 logging.New("compliance"),
		warningWindowMonths: warningWindowMonths,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (s *complianceService) Summarize(ctx context.Context, ownerID string) (*model.ComplianceSummary, error) {
	if ownerID == "" {
		return nil, &MissingFieldError{Field: "owner_id", Rule: "owner id is required"}
	}
	records, err := s.repo.ListCurrentForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.build(ownerID, records), nil
}

func (s *complianceService) build(ownerID string, records []model.DocumentRecord) *model.ComplianceSummary {
	now := s.now()
	mandatory := s.reg.MandatoryTypes()
	sum := &model.ComplianceSummary{
		OwnerID:             ownerID,
		MandatoryTypesTotal: len(mandatory),
		MissingTypes:        []string{},
	}

	satisfied := make(map[string]bool)
	for _, rec := range records {
		typ, err := s.reg.Lookup(rec.DocumentTypeID)
		if err != nil {
			// A record referencing an unregistered type is a configuration
			// fault; it is logged and excluded from counts, never treated as
			// satisfying anything.
			s.log.Error("unknown_document_type", err, map[string]any{
				"record_id": rec.ID, "owner_id": ownerID,
			})
			continue
		}
		class, err := expiry.ClassifyRecord(&rec, typ, now, s.warningWindowMonths)
		if err != nil {
			// Missing expiry on a type requiring one: integrity violation,
			// flagged as expired rather than silently valid.
			s.log.Error("expiry_missing", err, map[string]any{
				"record_id": rec.ID, "owner_id": ownerID,
			})
			sum.ExpiredCount++
			continue
		}

		switch rec.Status {
		case model.StatusPending:
			sum.PendingCount++
			if class == expiry.Expired {
				// The sweep only acts on verified records, so a pending
				// document whose dates have lapsed surfaces here.
				sum.PendingExpiredCount++
			}
		case model.StatusVerified:
			switch class {
			case expiry.Expired:
				// Not yet swept; reported expired, never compliant.
				sum.ExpiredCount++
			case expiry.ExpiringSoon:
				sum.ExpiringSoonCount++
				satisfied[typ.ID] = true
			default:
				satisfied[typ.ID] = true
			}
		case model.StatusExpired:
			sum.ExpiredCount++
		}
	}

	for _, typ := range mandatory {
		if satisfied[typ.ID] {
			sum.MandatoryTypesSatisfied++
		} else {
			sum.MissingTypes = append(sum.MissingTypes, typ.ID)
		}
	}
	sum.Compliant = sum.MandatoryTypesSatisfied == sum.MandatoryTypesTotal
	return sum
}

func (s *complianceService) SummarizeFleet(ctx context.Context, ownerIDs []string) ([]model.ComplianceSummary, error) {
	summaries := make([]model.ComplianceSummary, len(ownerIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fleetConcurrency)
	for i, ownerID := range ownerIDs {
		i, ownerID := i, ownerID
		g.Go(func() error {
			records, err := s.repo.ListCurrentForOwner(gctx, ownerID)
			if err != nil {
				return err
			}
			summaries[i] = *s.build(ownerID, records)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
