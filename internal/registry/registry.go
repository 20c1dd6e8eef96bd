package registry

import (
	"fmt"
	"regexp"
	"sort"

	"complianceapi/internal/model"
)

// Registry is the static catalog of recognized document types and their rules.
// It is loaded once at process start and never mutated afterwards, so lookups
// are safe for concurrent use without locking.
type Registry struct {
	types map[string]model.DocumentType
}

// UnknownTypeError is returned when an operation references a document type id
// that is not in the catalog. This is a configuration or programmer error and
// is never silently defaulted.
type UnknownTypeError struct {
	TypeID string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown document type %q", e.TypeID)
}

// ExtensionError reports an extension bag value that fails the per-type schema.
type ExtensionError struct {
	TypeID string
	Key    string
	Rule   string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %q for document type %q: %s", e.Key, e.TypeID, e.Rule)
}

// New builds a registry from the given types. Duplicate ids and invalid
// extension patterns are rejected up front so a misconfigured catalog fails
// at startup rather than during a submission.
func New(types []model.DocumentType) (*Registry, error) {
	m := make(map[string]model.DocumentType, len(types))
	for _, t := range types {
		if t.ID == "" {
			return nil, fmt.Errorf("document type with empty id")
		}
		if _, dup := m[t.ID]; dup {
			return nil, fmt.Errorf("duplicate document type %q", t.ID)
		}
		if t.ValidityMonths < 0 {
			return nil, fmt.Errorf("document type %q: negative validity", t.ID)
		}
		for key, rule := range t.Extensions {
			if rule.Pattern == "" {
				continue
			}
			if _, err := regexp.Compile("^(?:" + rule.Pattern + ")$"); err != nil {
				return nil, fmt.Errorf("document type %q extension %q: bad pattern: %w", t.ID, key, err)
			}
		}
		m[t.ID] = t
	}
	return &Registry{types: m}, nil
}

// Lookup resolves a document type id against the catalog.
func (r *Registry) Lookup(typeID string) (model.DocumentType, error) {
	t, ok := r.types[typeID]
	if !ok {
		return model.DocumentType{}, &UnknownTypeError{TypeID: typeID}
	}
	return t, nil
}

// MandatoryTypes returns the types every owner must satisfy, ordered by id.
func (r *Registry) MandatoryTypes() []model.DocumentType {
	out := make([]model.DocumentType, 0, len(r.types))
	for _, t := range r.types {
		if t.Mandatory {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every registered type, ordered by id.
func (r *Registry) All() []model.DocumentType {
	out := make([]model.DocumentType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateExtensions checks a submission's extension bag against the type's
// schema: required keys must be present, keys not in the schema are rejected,
// and values must match the rule pattern when one is configured.
func (r *Registry) ValidateExtensions(typ model.DocumentType, bag map[string]string) error {
	for key, rule := range typ.Extensions {
		val, ok := bag[key]
		if !ok || val == "" {
			if rule.Required {
				return &ExtensionError{TypeID: typ.ID, Key: key, Rule: "required value is missing"}
			}
			continue
		}
		if rule.Pattern != "" {
			re := regexp.MustCompile("^(?:" + rule.Pattern + ")$")
			if !re.MatchString(val) {
				return &ExtensionError{TypeID: typ.ID, Key: key, Rule: "value does not match " + rule.Pattern}
			}
		}
	}
	for key := range bag {
		if _, known := typ.Extensions[key]; !known {
			return &ExtensionError{TypeID: typ.ID, Key: key, Rule: "not a recognized extension for this type"}
		}
	}
	return nil
}
