package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentra/internal/domain/records"
)

var (
	// ErrNotYetEligible guards against soft-deleting before the retention
	// period has run out.
	ErrNotYetEligible = errors.New("record not yet past its retention eligibility date")
	// ErrAutomationDisabled marks records whose policy requires a manual
	// deletion decision.
	ErrAutomationDisabled = errors.New("policy does not mandate automatic deletion")
)

// SoftDeleteExecutor moves due records into the reversible de-identified
// state and schedules secure erasure after the policy's grace period.
type SoftDeleteExecutor struct {
	sources records.Sources
	store   Store
	log     *slog.Logger
	now     func() time.Time
}

func NewSoftDeleteExecutor(sources records.Sources, store Store) *SoftDeleteExecutor {
	return &SoftDeleteExecutor{
		sources: sources,
		store:   store,
		log:     slog.Default().With("component", "lifecycle.softdelete"),
		now:     time.Now,
	}
}

// Execute soft-deletes one record. On failure the record's status is left
// untouched: the error is appended to processing_errors, the retry count
// is bumped, and the next scan retries.
func (x *SoftDeleteExecutor) Execute(ctx context.Context, rec *DataLifecycleRecord) error {
	if !rec.Policy.AutomaticDeletion {
		return ErrAutomationDisabled
	}
	now := x.now()
	if rec.RetentionEligibleAt.After(now) {
		return ErrNotYetEligible
	}

	src, err := x.sources.For(rec.DataType)
	if err != nil {
		return err
	}

	entity := records.Entity{
		ResourceTable:  rec.ResourceTable,
		ResourceID:     rec.ResourceID,
		OrganisationID: rec.OrganisationID,
		UserID:         rec.UserID,
		CreatedAt:      rec.DataCreatedAt,
	}
	if err := src.SoftDelete(ctx, entity); err != nil {
		x.fail(ctx, rec, "soft_delete", err)
		return fmt.Errorf("soft delete %s/%s: %w", rec.ResourceTable, rec.ResourceID, err)
	}

	eraseAt := now.AddDate(0, 0, rec.Policy.GracePeriodDays)
	if err := x.store.MarkSoftDeleted(ctx, rec.ID, now, eraseAt); err != nil {
		x.fail(ctx, rec, "soft_delete_mark", err)
		return fmt.Errorf("mark soft deleted %s: %w", rec.ID, err)
	}

	x.log.Info("record soft deleted",
		"recordId", rec.ID,
		"resource", rec.ResourceTable+"/"+rec.ResourceID,
		"secureEraseScheduledAt", eraseAt,
	)
	return nil
}

func (x *SoftDeleteExecutor) fail(ctx context.Context, rec *DataLifecycleRecord, operation string, cause error) {
	perr := ProcessingError{At: x.now(), Operation: operation, Message: cause.Error()}
	if err := x.store.RecordFailure(ctx, rec.ID, perr); err != nil {
		x.log.Warn("recording processing error failed", "recordId", rec.ID, "err", err)
	}
}

// Restore reverses a soft delete while the grace period is still open.
// Securely erased records can never be restored.
func (x *SoftDeleteExecutor) Restore(ctx context.Context, rec *DataLifecycleRecord) error {
	if rec.Status != StatusSoftDeleted {
		return ErrInvalidTransition
	}

	src, err := x.sources.For(rec.DataType)
	if err != nil {
		return err
	}
	entity := records.Entity{
		ResourceTable:  rec.ResourceTable,
		ResourceID:     rec.ResourceID,
		OrganisationID: rec.OrganisationID,
		UserID:         rec.UserID,
		CreatedAt:      rec.DataCreatedAt,
	}
	if err := src.Restore(ctx, entity); err != nil {
		x.fail(ctx, rec, "restore", err)
		return fmt.Errorf("restore %s/%s: %w", rec.ResourceTable, rec.ResourceID, err)
	}
	if err := x.store.MarkRestored(ctx, rec.ID, x.now()); err != nil {
		x.fail(ctx, rec, "restore_mark", err)
		return err
	}
	x.log.Info("record restored within grace period", "recordId", rec.ID)
	return nil
}
