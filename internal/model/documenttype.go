package model

// Category groups document types for presentation and reporting.
type Category string

const (
	CategoryBackgroundCheck Category = "background_check"
	CategoryRegistration    Category = "registration"
	CategoryInsurance       Category = "insurance"
	CategoryTraining        Category = "training"
	CategoryContract        Category = "contract"
	CategoryIdentity        Category = "identity"
)

// ExtensionRule validates one key of a document type's extension bag.
// Pattern, when set, is an anchored regular expression the value must match.
type ExtensionRule struct {
	Required bool
	Pattern  string
}

// DocumentType is an immutable registry entry describing the rules for one
// kind of regulated document. ValidityMonths is zero for non-expiring types;
// when RequiresExpiry is true and ValidityMonths is zero, the expiry date
// cannot be derived and must be supplied explicitly on submission.
type DocumentType struct {
	ID             string                   `json:"id"`
	Label          string                   `json:"label"`
	Category       Category                 `json:"category"`
	RequiresExpiry bool                     `json:"requires_expiry"`
	ValidityMonths int                      `json:"validity_months"`
	Mandatory      bool                     `json:"mandatory"`
	Extensions     map[string]ExtensionRule `json:"-"`
}
