// Package verification holds the document verification state machine:
// which status transitions are legal and what each one requires. The rules
// are pure; persistence and audit are handled by the caller.
package verification

import (
	"errors"
	"fmt"
	"time"

	"complianceapi/internal/expiry"
	"complianceapi/internal/model"
)

// InvalidTransitionError identifies a disallowed state change attempt.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

var (
	// ErrReviewerRequired is returned when a manual transition carries no
	// reviewer identity.
	ErrReviewerRequired = errors.New("reviewer identity is required")
	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("rejection reason is required")
	// ErrExpiryPassed is returned when an approval is attempted on a record
	// whose expiry date is already in the past.
	ErrExpiryPassed = errors.New("expiry date has passed")
)

// allowed is the full transition table. Resubmission from a terminal state is
// modeled as a new record version at the store layer, not as a transition here.
var allowed = map[model.Status]map[model.Status]bool{
	model.StatusPending:  {model.StatusVerified: true, model.StatusRejected: true},
	model.StatusVerified: {model.StatusExpired: true},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to model.Status) bool {
	return allowed[from][to]
}

// Approve validates a pending -> verified transition. The record must pass
// its type's validity checks: an expiry date present when the type requires
// one, and not already in the past.
func Approve(rec *model.DocumentRecord, typ model.DocumentType, reviewerID string, now time.Time) error {
	if reviewerID == "" {
		return ErrReviewerRequired
	}
	if !CanTransition(rec.Status, model.StatusVerified) {
		return &InvalidTransitionError{From: rec.Status, To: model.StatusVerified}
	}
	if typ.RequiresExpiry && rec.ExpiryDate == nil {
		return expiry.ErrExpiryMissing
	}
	if rec.ExpiryDate != nil && expiry.Classify(*rec.ExpiryDate, now, 0) == expiry.Expired {
		return fmt.Errorf("cannot verify %s: %w (%s)",
			rec.ID, ErrExpiryPassed, rec.ExpiryDate.Format("2006-01-02"))
	}
	return nil
}

// Reject validates a pending -> rejected transition. A reason is mandatory.
func Reject(rec *model.DocumentRecord, reviewerID, reason string) error {
	if reviewerID == "" {
		return ErrReviewerRequired
	}
	if reason == "" {
		return ErrReasonRequired
	}
	if !CanTransition(rec.Status, model.StatusRejected) {
		return &InvalidTransitionError{From: rec.Status, To: model.StatusRejected}
	}
	return nil
}

// Expire validates the time-driven verified -> expired transition. Only the
// sweep triggers this, and only once the expiry date has actually passed.
func Expire(rec *model.DocumentRecord, now time.Time) error {
	if !CanTransition(rec.Status, model.StatusExpired) {
		return &InvalidTransitionError{From: rec.Status, To: model.StatusExpired}
	}
	if rec.ExpiryDate == nil {
		return expiry.ErrExpiryMissing
	}
	if expiry.Classify(*rec.ExpiryDate, now, 0) != expiry.Expired {
		return fmt.Errorf("record %s expiry %s has not passed yet",
			rec.ID, rec.ExpiryDate.Format("2006-01-02"))
	}
	return nil
}
