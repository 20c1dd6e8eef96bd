package model

import "time"

// Status is the verification state of a DocumentRecord.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is one of the recognized states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// DocumentRecord is one submitted compliance document for an (owner, type) pair.
// Exactly one record per (OwnerID, DocumentTypeID) has IsCurrent=true; superseded
// versions are retained for audit but excluded from current queries.
type DocumentRecord struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	DocumentTypeID string            `json:"document_type_id"`
	IssueDate      *time.Time        `json:"issue_date,omitempty"`
	ExpiryDate     *time.Time        `json:"expiry_date,omitempty"`
	FileRef        string            `json:"file_ref"`
	Version        int               `json:"version"`
	Status         Status            `json:"status"`
	ReviewerID     string            `json:"reviewer_id,omitempty"`
	ReviewerNotes  string            `json:"reviewer_notes,omitempty"`
	Extensions     map[string]string `json:"extensions,omitempty"`
	IsCurrent      bool              `json:"is_current"`
	// ExpiryNotifiedAt is set once the expiring-soon notification for this
	// version has been emitted, so the sweep never notifies twice.
	ExpiryNotifiedAt *time.Time `json:"expiry_notified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Decided reports whether a reviewer has already acted on the record.
func (r *DocumentRecord) Decided() bool {
	return r.Status == StatusVerified || r.Status == StatusRejected
}
