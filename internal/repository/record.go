// Package repository contains data access abstractions for the engine.
// Implementations live in subpackages (postgres); no business logic here.
package repository

import (
	"context"
	"errors"
	"time"

	"complianceapi/internal/model"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleRecord is returned when a write lost a concurrent race: either a
	// compare-and-set transition matched zero rows, or a second "current"
	// record insert hit the uniqueness constraint. Callers should re-read and
	// retry.
	ErrStaleRecord = errors.New("record was modified concurrently")
)

// StatusChange describes a compare-and-set status transition for one record
// version. The update only applies while the record still has FromStatus and
// Version; a mismatch yields ErrStaleRecord.
type StatusChange struct {
	RecordID   string
	FromStatus model.Status
	ToStatus   model.Status
	Version    int
	ReviewerID string
	Notes      string
}

// RecordRepository defines persistence for document records. Every write that
// changes lifecycle state accepts the audit entry that must commit atomically
// with it.
type RecordRepository interface {
	// Create inserts the first version of a record for an (owner, type) pair
	// together with its submit audit entry. A concurrent first submission for
	// the same pair surfaces as ErrStaleRecord via the uniqueness constraint
	// on (owner_id, document_type_id, is_current).
	Create(ctx context.Context, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error)

	// Supersede marks the record currentID historical and inserts rec as the
	// new current version, in one transaction with the submit audit entry.
	// ErrStaleRecord if currentID is no longer the current record.
	Supersede(ctx context.Context, currentID string, rec *model.DocumentRecord, entry *model.AuditEntry) (*model.DocumentRecord, error)

	// TransitionStatus applies a guarded status change plus its audit entry
	// atomically and returns the updated record.
	TransitionStatus(ctx context.Context, ch StatusChange, entry *model.AuditEntry) (*model.DocumentRecord, error)

	FindByID(ctx context.Context, id string) (*model.DocumentRecord, error)

	// FindCurrent returns the current record for an (owner, type) pair, or
	// ErrNotFound when the owner has never submitted one.
	FindCurrent(ctx context.Context, ownerID, typeID string) (*model.DocumentRecord, error)

	// ListCurrentForOwner returns all current records for one owner.
	ListCurrentForOwner(ctx context.Context, ownerID string) ([]model.DocumentRecord, error)

	// ListVersions returns every version for an (owner, type) pair, newest
	// first, including superseded ones.
	ListVersions(ctx context.Context, ownerID, typeID string) ([]model.DocumentRecord, error)

	// ListVerifiedExpiringBefore returns current verified records whose expiry
	// date falls on or before cutoff. The sweep classifies each one.
	ListVerifiedExpiringBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error)

	// ListRejectedBefore returns current rejected records last updated on or
	// before cutoff, for the optional archive pass.
	ListRejectedBefore(ctx context.Context, cutoff time.Time) ([]model.DocumentRecord, error)

	// ArchiveRecord retires a rejected record (is_current = false) with its
	// archive audit entry. ErrStaleRecord if the record moved on concurrently.
	ArchiveRecord(ctx context.Context, id string, version int, entry *model.AuditEntry) error

	// MarkExpiryNotified stamps the record so the expiring-soon notification
	// is emitted at most once per version.
	MarkExpiryNotified(ctx context.Context, id string, at time.Time) error
}
