// Package expiry implements the date arithmetic behind document validity:
// calendar-month expiry derivation and urgency classification. All functions
// are pure; callers supply the reference time.
package expiry

import (
	"errors"
	"time"

	"complianceapi/internal/model"
)

// Classification is the urgency bucket of a record relative to its expiry.
type Classification string

const (
	Valid        Classification = "valid"
	ExpiringSoon Classification = "expiring_soon"
	Expired      Classification = "expired"
	NoExpiry     Classification = "no_expiry"
)

// ErrExpiryMissing flags a record whose type requires an expiry date but which
// has none. This is a data-integrity violation and must never be treated as
// valid.
var ErrExpiryMissing = errors.New("expiry date required but missing")

// DateOnly truncates t to midnight UTC. Validity arithmetic operates at
// day resolution; times of day never influence classification.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to d, clamping the day to the last day of
// the target month: 31 Jan + 1 month is 28 (or 29) Feb, not 2/3 Mar. Fixed
// 30-day windows are never used.
func AddMonths(d time.Time, n int) time.Time {
	d = DateOnly(d)
	y, m, day := d.Date()
	// First of the target month, then clamp.
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// ComputeExpiry derives an expiry date from an issue date and a validity
// period. A zero validity period means the document does not expire and nil
// is returned.
func ComputeExpiry(issue time.Time, validityMonths int) *time.Time {
	if validityMonths <= 0 {
		return nil
	}
	e := AddMonths(issue, validityMonths)
	return &e
}

// Classify buckets an expiry date relative to asOf. The expiry date itself is
// not a valid day: a document expiring exactly on asOf is already Expired,
// matching "must be renewed before this date".
func Classify(expiryDate, asOf time.Time, warningWindowMonths int) Classification {
	exp := DateOnly(expiryDate)
	now := DateOnly(asOf)
	if !exp.After(now) {
		return Expired
	}
	if !exp.After(AddMonths(now, warningWindowMonths)) {
		return ExpiringSoon
	}
	return Valid
}

// ClassifyRecord classifies a record against its type rules. Records of
// non-expiring types with no expiry date are NoExpiry; a missing expiry on a
// type that requires one is reported as ErrExpiryMissing, never as valid.
func ClassifyRecord(rec *model.DocumentRecord, typ model.DocumentType, asOf time.Time, warningWindowMonths int) (Classification, error) {
	if rec.ExpiryDate == nil {
		if typ.RequiresExpiry {
			return "", ErrExpiryMissing
		}
		return NoExpiry, nil
	}
	return Classify(*rec.ExpiryDate, asOf, warningWindowMonths), nil
}
