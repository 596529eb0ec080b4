package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
)

const reasonRetentionExpired = "retention_period_expired"

// Scanner finds entities whose age exceeds the effective policy's
// retention period and brings them under lifecycle tracking. Scanning is
// a pure read against the entity collections; the only write is the
// idempotent lifecycle record creation.
type Scanner struct {
	sources records.Sources
	store   Store
	log     *slog.Logger
	now     func() time.Time
}

func NewScanner(sources records.Sources, store Store) *Scanner {
	return &Scanner{
		sources: sources,
		store:   store,
		log:     slog.Default().With("component", "lifecycle.scanner"),
		now:     time.Now,
	}
}

type ScanStats struct {
	Seen    int
	Created int
}

func (s *Scanner) Scan(ctx context.Context, organisationID string, pol policy.RetentionPolicy) (ScanStats, error) {
	var stats ScanStats

	src, err := s.sources.For(pol.DataType)
	if err != nil {
		return stats, err
	}

	cutoff := s.now().AddDate(0, 0, -pol.RetentionPeriodDays)
	entities, err := src.ListEligible(ctx, organisationID, cutoff)
	if err != nil {
		return stats, fmt.Errorf("list eligible %s: %w", pol.DataType, err)
	}

	for _, e := range entities {
		stats.Seen++
		rec := &DataLifecycleRecord{
			OrganisationID:      organisationID,
			ResourceTable:       e.ResourceTable,
			ResourceID:          e.ResourceID,
			UserID:              e.UserID,
			DataType:            pol.DataType,
			PolicyID:            pol.ID,
			Policy:              SnapshotPolicy(pol),
			Status:              StatusRetentionPending,
			DataCreatedAt:       e.CreatedAt,
			RetentionEligibleAt: e.CreatedAt.AddDate(0, 0, pol.RetentionPeriodDays),
			DeletionReason:      reasonRetentionExpired,
		}
		created, _, err := s.store.Ensure(ctx, rec)
		if err != nil {
			return stats, fmt.Errorf("ensure lifecycle record %s/%s: %w", e.ResourceTable, e.ResourceID, err)
		}
		if created {
			stats.Created++
		}
	}

	if stats.Created > 0 {
		s.log.Info("scan brought entities under governance",
			"organisationId", organisationID,
			"dataType", pol.DataType,
			"created", stats.Created,
			"seen", stats.Seen,
		)
	}
	return stats, nil
}
