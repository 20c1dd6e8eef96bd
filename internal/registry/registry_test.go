package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complianceapi/internal/model"
)

func TestNew(t *testing.T) {
	t.Run("built-in catalog loads", func(t *testing.T) {
		reg, err := New(Catalog())
		require.NoError(t, err)
		assert.NotEmpty(t, reg.All())
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		_, err := New([]model.DocumentType{{ID: "a"}, {ID: "a"}})
		assert.Error(t, err)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		_, err := New([]model.DocumentType{{ID: ""}})
		assert.Error(t, err)
	})

	t.Run("bad extension pattern rejected", func(t *testing.T) {
		_, err := New([]model.DocumentType{{
			ID:         "a",
			Extensions: map[string]model.ExtensionRule{"x": {Pattern: "("}},
		}})
		assert.Error(t, err)
	})
}

func TestLookup(t *testing.T) {
	reg, err := New(Catalog())
	require.NoError(t, err)

	t.Run("known type", func(t *testing.T) {
		typ, err := reg.Lookup("dbs_check")
		require.NoError(t, err)
		assert.Equal(t, 36, typ.ValidityMonths)
		assert.True(t, typ.RequiresExpiry)
		assert.True(t, typ.Mandatory)
	})

	t.Run("unknown type is a typed error, never defaulted", func(t *testing.T) {
		_, err := reg.Lookup("passport_scan")
		var unknownErr *UnknownTypeError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "passport_scan", unknownErr.TypeID)
	})
}

func TestMandatoryTypes(t *testing.T) {
	reg, err := New(Catalog())
	require.NoError(t, err)

	mandatory := reg.MandatoryTypes()
	assert.NotEmpty(t, mandatory)
	for _, typ := range mandatory {
		assert.True(t, typ.Mandatory, typ.ID)
	}
	// Ordered for stable dashboard output.
	for i := 1; i < len(mandatory); i++ {
		assert.Less(t, mandatory[i-1].ID, mandatory[i].ID)
	}
}

func TestValidateExtensions(t *testing.T) {
	reg, err := New(Catalog())
	require.NoError(t, err)
	dbs, err := reg.Lookup("dbs_check")
	require.NoError(t, err)

	tests := []struct {
		name    string
		bag     map[string]string
		wantErr bool
	}{
		{"valid bag", map[string]string{"certificate_number": "123456789012"}, false},
		{"optional key accepted", map[string]string{"certificate_number": "123456789012", "update_service": "true"}, false},
		{"required key missing", map[string]string{}, true},
		{"pattern mismatch", map[string]string{"certificate_number": "not-a-number"}, true},
		{"unrecognized key rejected", map[string]string{"certificate_number": "123456789012", "colour": "blue"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateExtensions(dbs, tt.bag)
			if tt.wantErr {
				var extErr *ExtensionError
				assert.ErrorAs(t, err, &extErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
