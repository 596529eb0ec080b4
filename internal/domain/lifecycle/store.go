package lifecycle

import (
	"context"
	"errors"
	"time"

	"sentra/internal/domain/policy"
)

var (
	ErrRecordNotFound = errors.New("lifecycle record not found")
	// ErrInvalidTransition is returned when a mark operation would move a
	// record backwards or skip a stage.
	ErrInvalidTransition = errors.New("invalid lifecycle status transition")
)

// AuditCounts is the per-(organisation, data type) breakdown the
// compliance auditor works from.
type AuditCounts struct {
	Tracked     int
	Overdue     int
	SoftDeleted int
	Erased      int
	Errored     int
}

// Store is the engine's single source of truth for what stage each
// governed record is in.
type Store interface {
	// Ensure creates the record unless one already exists for the same
	// (resource_table, resource_id). Returns whether a record was created
	// and the stored record either way. This is the sole idempotency
	// point: a duplicate scan never creates two records for one entity.
	Ensure(ctx context.Context, rec *DataLifecycleRecord) (bool, *DataLifecycleRecord, error)

	Get(ctx context.Context, id string) (*DataLifecycleRecord, error)
	GetByResource(ctx context.Context, resourceTable, resourceID string) (*DataLifecycleRecord, error)
	ListByStatus(ctx context.Context, organisationID string, status Status, limit int) ([]DataLifecycleRecord, error)
	ListSoftDeleteDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error)
	ListEraseDue(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) ([]DataLifecycleRecord, error)

	MarkSoftDeleted(ctx context.Context, id string, at, eraseScheduledAt time.Time) error
	// MarkErased finalizes the record: confirmation is the verification
	// hash of the erase run, methodUsed the method that was applied.
	MarkErased(ctx context.Context, id string, at time.Time, methodUsed, confirmation string) error
	MarkRestored(ctx context.Context, id string, at time.Time) error
	AttachCertificate(ctx context.Context, id, certificateID string) error

	// RecordFailure appends a processing error and bumps the retry count
	// without touching status, so the next scan retries the operation.
	RecordFailure(ctx context.Context, id string, perr ProcessingError) error

	PendingCounts(ctx context.Context, organisationID string, asOf time.Time) (pending, overdue int, err error)
	AuditCounts(ctx context.Context, organisationID string, dataType policy.DataType, asOf time.Time) (AuditCounts, error)
}
