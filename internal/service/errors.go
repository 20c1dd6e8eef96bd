package service

import "fmt"

// MissingFieldError rejects a submission before anything is persisted. It
// names the offending field and the rule that makes it required, so callers
// can correct their input.
type MissingFieldError struct {
	Field string
	Rule  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q: %s", e.Field, e.Rule)
}
