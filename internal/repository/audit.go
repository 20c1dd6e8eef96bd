package repository

import (
	"context"

	"complianceapi/internal/model"
)

// AuditRepository reads the append-only audit trail. Writes happen inside
// RecordRepository transactions so an entry can never exist without its state
// change (and vice versa).
type AuditRepository interface {
	// ListByRecords returns entries for the given record ids, oldest first.
	ListByRecords(ctx context.Context, recordIDs []string) ([]model.AuditEntry, error)
}
