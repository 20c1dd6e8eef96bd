// Package notify defines the outbound notification collaborator. Delivery
// (email, SMS) is external; the engine only emits events.
package notify

import (
	"context"

	"complianceapi/internal/logging"
	"complianceapi/internal/model"
)

// Notifier receives one event per record entering the expiring-soon window.
// Implementations must be safe for concurrent use.
type Notifier interface {
	ExpiringSoon(ctx context.Context, rec model.DocumentRecord, typ model.DocumentType)
}

// LogNotifier is the default collaborator: it records the event as a JSON log
// line. Deployments replace it with a real delivery integration.
type LogNotifier struct {
	log *logging.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.New("notify")}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) ExpiringSoon(ctx context.Context, rec model.DocumentRecord, typ model.DocumentType) {
	fields := map[string]any{
		"record_id":        rec.ID,
		"owner_id":         rec.OwnerID,
		"document_type_id": rec.DocumentTypeID,
		"document_label":   typ.Label,
	}
	if rec.ExpiryDate != nil {
		fields["expiry_date"] = rec.ExpiryDate.Format("2006-01-02")
	}
	n.log.Info("document_expiring_soon", fields)
}
