package model

import "time"

// Action identifies what happened to a record in an audit entry.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionExpire  Action = "expire"
	ActionArchive Action = "archive"
)

// AuditEntry is an append-only trail row. One entry is written atomically with
// every submission and state transition; entries are never updated or deleted.
type AuditEntry struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"record_id"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
