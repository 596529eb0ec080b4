package policy

import "time"

// DataType identifies a governed record collection. The set is closed:
// each value maps to exactly one records.Source wired at construction.
type DataType string

const (
	DataTypeUserProfile    DataType = "user_profile"
	DataTypeCourseProgress DataType = "course_progress"
	DataTypeCertificates   DataType = "certificates"
	DataTypeAuditLogs      DataType = "audit_logs"
	DataTypeCommunications DataType = "communications"
)

// AllDataTypes returns every governed data type in scan order.
func AllDataTypes() []DataType {
	return []DataType{
		DataTypeUserProfile,
		DataTypeCourseProgress,
		DataTypeCertificates,
		DataTypeAuditLogs,
		DataTypeCommunications,
	}
}

type LegalBasis string

const (
	LegalBasisLegalObligation    LegalBasis = "legal_obligation"
	LegalBasisConsent            LegalBasis = "consent"
	LegalBasisContract           LegalBasis = "contract"
	LegalBasisLegitimateInterest LegalBasis = "legitimate_interest"
)

type EraseMethod string

const (
	EraseSimpleDelete       EraseMethod = "simple_delete"
	EraseOverwriteOnce      EraseMethod = "overwrite_once"
	EraseOverwriteMultiple  EraseMethod = "overwrite_multiple"
	EraseCryptographicErase EraseMethod = "cryptographic_erase"
)

// OrDefault resolves an unset erase method to the multi-pass overwrite
// standard. Policies that never specified a method must not fall
// through to the weakest one.
func (m EraseMethod) OrDefault() EraseMethod {
	if m == "" {
		return EraseOverwriteMultiple
	}
	return m
}

// RetentionPolicy governs one data type. RegulatoryRequirement names the
// statute or regulation that motivates the policy; free text, set by
// administrators.
type RetentionPolicy struct {
	ID                    string      `json:"id"`
	OrganisationID        string      `json:"organisationId"`
	DataType              DataType    `json:"dataType"`
	RetentionPeriodDays   int         `json:"retentionPeriodDays"`
	GracePeriodDays       int         `json:"gracePeriodDays"`
	Priority              int         `json:"priority"`
	LegalBasis            LegalBasis  `json:"legalBasis"`
	RegulatoryRequirement string      `json:"regulatoryRequirement,omitempty"`
	AutomaticDeletion     bool        `json:"automaticDeletion"`
	DeletionMethod        string      `json:"deletionMethod"`
	SecureEraseMethod     EraseMethod `json:"secureEraseMethod"`
	Enabled               bool        `json:"enabled"`
	CreatedAt             time.Time   `json:"createdAt"`
}
