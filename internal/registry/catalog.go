package registry

import "complianceapi/internal/model"

// Catalog is the built-in staffing-agency document catalog. Validity periods
// follow agency policy: DBS checks are renewed every three years, professional
// registrations and insurance annually. Right-to-work evidence expires with
// the underlying visa, so its expiry must be supplied explicitly.
func Catalog() []model.DocumentType {
	return []model.DocumentType{
		{
			ID:             "dbs_check",
			Label:          "DBS Check",
			Category:       model.CategoryBackgroundCheck,
			RequiresExpiry: true,
			ValidityMonths: 36,
			Mandatory:      true,
			Extensions: map[string]model.ExtensionRule{
				"certificate_number": {Required: true, Pattern: `\d{12}`},
				"update_service":     {Pattern: `true|false`},
			},
		},
		{
			ID:             "professional_registration",
			Label:          "Professional Registration (NMC/HCPC)",
			Category:       model.CategoryRegistration,
			RequiresExpiry: true,
			ValidityMonths: 12,
			Mandatory:      true,
			Extensions: map[string]model.ExtensionRule{
				"registration_number": {Required: true, Pattern: `[A-Z0-9]{6,10}`},
				"registration_body":   {Pattern: `NMC|HCPC|GMC`},
			},
		},
		{
			ID:             "indemnity_insurance",
			Label:          "Professional Indemnity Insurance",
			Category:       model.CategoryInsurance,
			RequiresExpiry: true,
			ValidityMonths: 12,
			Mandatory:      true,
			Extensions: map[string]model.ExtensionRule{
				"policy_number": {Required: true},
			},
		},
		{
			ID:             "training_certificate",
			Label:          "Mandatory Training Certificate",
			Category:       model.CategoryTraining,
			RequiresExpiry: true,
			ValidityMonths: 12,
			Mandatory:      true,
			Extensions: map[string]model.ExtensionRule{
				"course": {Required: true},
			},
		},
		{
			ID:             "right_to_work",
			Label:          "Right to Work Evidence",
			Category:       model.CategoryIdentity,
			RequiresExpiry: true,
			ValidityMonths: 0, // expiry follows the visa, cannot be derived
			Mandatory:      true,
		},
		{
			ID:             "employment_contract",
			Label:          "Employment Contract",
			Category:       model.CategoryContract,
			RequiresExpiry: false,
			ValidityMonths: 0,
			Mandatory:      true,
		},
		{
			ID:             "immunisation_record",
			Label:          "Immunisation Record",
			Category:       model.CategoryTraining,
			RequiresExpiry: false,
			ValidityMonths: 0,
			Mandatory:      false,
		},
		{
			ID:             "reference_letter",
			Label:          "Reference Letter",
			Category:       model.CategoryIdentity,
			RequiresExpiry: false,
			ValidityMonths: 0,
			Mandatory:      false,
		},
	}
}
