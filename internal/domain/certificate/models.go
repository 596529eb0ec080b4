package certificate

import (
	"time"

	"sentra/internal/domain/policy"
)

// SecureDeletionCertificate is the tamper-evident proof that a record was
// securely erased. Certificates are append-only: once issued they are
// never updated or deleted.
type SecureDeletionCertificate struct {
	ID                    string             `json:"id"`
	CertificateNumber     string             `json:"certificateNumber"`
	OrganisationID        string             `json:"organisationId"`
	LifecycleRecordID     string             `json:"lifecycleRecordId"`
	ResourceTable         string             `json:"resourceTable"`
	ResourceID            string             `json:"resourceId"`
	UserID                string             `json:"userId,omitempty"`
	DataType              policy.DataType    `json:"dataType"`
	RecordCount           int                `json:"recordCount"`
	EraseMethod           policy.EraseMethod `json:"eraseMethod"`
	ErasedAt              time.Time          `json:"erasedAt"`
	VerificationHash      string             `json:"verificationHash"`
	VerificationMethod    string             `json:"verificationMethod"`
	LegalBasis            policy.LegalBasis  `json:"legalBasis"`
	RegulatoryRequirement string             `json:"regulatoryRequirement,omitempty"`
	DeletionReason        string             `json:"deletionReason,omitempty"`
	DigitalSignature      string             `json:"digitalSignature"`
	IssuedAt              time.Time          `json:"issuedAt"`
}
