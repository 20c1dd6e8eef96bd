package model

// ComplianceSummary is the derived per-owner compliance report. It is
// recomputed on demand from current DocumentRecords and never persisted.
//
// PendingExpiredCount counts records still awaiting review whose expiry date
// has already passed; the sweep never touches pending records, so these
// surface here as a distinct alert rather than being folded into ExpiredCount.
type ComplianceSummary struct {
	OwnerID                 string   `json:"owner_id"`
	MandatoryTypesTotal     int      `json:"mandatory_types_total"`
	MandatoryTypesSatisfied int      `json:"mandatory_types_satisfied"`
	MissingTypes            []string `json:"missing_types"`
	ExpiringSoonCount       int      `json:"expiring_soon_count"`
	ExpiredCount            int      `json:"expired_count"`
	PendingCount            int      `json:"pending_count"`
	PendingExpiredCount     int      `json:"pending_expired_count"`
	Compliant               bool     `json:"compliant"`
}
