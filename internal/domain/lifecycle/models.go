package lifecycle

import (
	"time"

	"sentra/internal/domain/policy"
)

// Status is the lifecycle stage of a governed record. Transitions only
// move forward (restore during the grace period is the one sanctioned
// step back, and never out of securely_erased).
type Status string

const (
	StatusActive            Status = "active"
	StatusRetentionPending  Status = "retention_pending"
	StatusDeletionScheduled Status = "deletion_scheduled"
	StatusSoftDeleted       Status = "soft_deleted"
	StatusSecurelyErased    Status = "securely_erased"
)

var statusRank = map[Status]int{
	StatusActive:            0,
	StatusRetentionPending:  1,
	StatusDeletionScheduled: 2,
	StatusSoftDeleted:       3,
	StatusSecurelyErased:    4,
}

// CanAdvanceTo reports whether next is a forward transition from s.
func (s Status) CanAdvanceTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// PolicySnapshotVersion tags the snapshot layout so later policy edits
// never retroactively reinterpret historical lifecycle records.
const PolicySnapshotVersion = 1

// PolicySnapshot is the policy as it stood when the record entered
// governance.
type PolicySnapshot struct {
	Version               int                `json:"version"`
	PolicyID              string             `json:"policyId"`
	DataType              policy.DataType    `json:"dataType"`
	RetentionPeriodDays   int                `json:"retentionPeriodDays"`
	GracePeriodDays       int                `json:"gracePeriodDays"`
	Priority              int                `json:"priority"`
	LegalBasis            policy.LegalBasis  `json:"legalBasis"`
	RegulatoryRequirement string             `json:"regulatoryRequirement,omitempty"`
	AutomaticDeletion     bool               `json:"automaticDeletion"`
	SecureEraseMethod     policy.EraseMethod `json:"secureEraseMethod"`
}

// SnapshotPolicy captures the policy for the record. An unset erase
// method is resolved here, so the snapshot always names a real method.
func SnapshotPolicy(p policy.RetentionPolicy) PolicySnapshot {
	return PolicySnapshot{
		Version:               PolicySnapshotVersion,
		PolicyID:              p.ID,
		DataType:              p.DataType,
		RetentionPeriodDays:   p.RetentionPeriodDays,
		GracePeriodDays:       p.GracePeriodDays,
		Priority:              p.Priority,
		LegalBasis:            p.LegalBasis,
		RegulatoryRequirement: p.RegulatoryRequirement,
		AutomaticDeletion:     p.AutomaticDeletion,
		SecureEraseMethod:     p.SecureEraseMethod.OrDefault(),
	}
}

type ProcessingError struct {
	At        time.Time `json:"at"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
}

// DataLifecycleRecord tracks one governed entity through the state
// machine. Uniquely keyed by (resource_table, resource_id); once securely
// erased it is never deleted, it is the permanent proof of deletion.
// DeletionConfirmation carries the verification hash of the erase run;
// EraseMethodUsed records the method that was actually applied,
// including any degradation marker.
type DataLifecycleRecord struct {
	ID                     string            `json:"id"`
	OrganisationID         string            `json:"organisationId"`
	ResourceTable          string            `json:"resourceTable"`
	ResourceID             string            `json:"resourceId"`
	UserID                 string            `json:"userId,omitempty"`
	DataType               policy.DataType   `json:"dataType"`
	PolicyID               string            `json:"policyId"`
	Policy                 PolicySnapshot    `json:"policy"`
	Status                 Status            `json:"status"`
	DataCreatedAt          time.Time         `json:"dataCreatedAt"`
	RetentionEligibleAt    time.Time         `json:"retentionEligibleAt"`
	SoftDeletedAt          *time.Time        `json:"softDeletedAt,omitempty"`
	SecureEraseScheduledAt *time.Time        `json:"secureEraseScheduledAt,omitempty"`
	SecureErasedAt         *time.Time        `json:"secureErasedAt,omitempty"`
	RestoredAt             *time.Time        `json:"restoredAt,omitempty"`
	DeletionReason         string            `json:"deletionReason,omitempty"`
	DeletionConfirmation   string            `json:"deletionConfirmation,omitempty"`
	EraseMethodUsed        string            `json:"eraseMethodUsed,omitempty"`
	CertificateID          string            `json:"certificateId,omitempty"`
	ProcessingErrors       []ProcessingError `json:"processingErrors,omitempty"`
	RetryCount             int               `json:"retryCount"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}
