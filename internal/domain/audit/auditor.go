package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain/lifecycle"
	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
)

const (
	compliantRateThreshold = 95.0
	auditInterval          = 30 // days
)

// Auditor computes the compliance posture of one data type for one
// organisation. It reads the live collection and the lifecycle ledger;
// it never mutates governed data.
type Auditor struct {
	sources records.Sources
	ledger  lifecycle.Store
	store   Store
	log     *slog.Logger
	now     func() time.Time
}

func NewAuditor(sources records.Sources, ledger lifecycle.Store, store Store) *Auditor {
	return &Auditor{
		sources: sources,
		ledger:  ledger,
		store:   store,
		log:     slog.Default().With("component", "audit.auditor"),
		now:     time.Now,
	}
}

// Audit produces and persists one compliance snapshot. A record counts as
// compliant when it is within its retention period or already securely
// erased; overdue and stuck records drag the rate down.
func (a *Auditor) Audit(ctx context.Context, organisationID string, pol policy.RetentionPolicy) error {
	src, err := a.sources.For(pol.DataType)
	if err != nil {
		return err
	}

	started := a.now()
	live, err := src.Count(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("count %s records: %w", pol.DataType, err)
	}
	counts, err := a.ledger.AuditCounts(ctx, organisationID, pol.DataType, started)
	if err != nil {
		return fmt.Errorf("audit counts for %s: %w", pol.DataType, err)
	}

	total := live + counts.Erased
	compliant := total - counts.Overdue - counts.SoftDeleted
	if compliant < 0 {
		compliant = 0
	}
	rate := 100.0
	if total > 0 {
		rate = 100.0 * float64(compliant) / float64(total)
	}

	snapshot := &RetentionComplianceAudit{
		ID:                 uuid.NewString(),
		OrganisationID:     organisationID,
		DataType:           pol.DataType,
		PolicyID:           pol.ID,
		TotalRecords:       total,
		CompliantRecords:   compliant,
		OverdueRecords:     counts.Overdue,
		SoftDeletedRecords: counts.SoftDeleted,
		ErasedRecords:      counts.Erased,
		ErroredRecords:     counts.Errored,
		ComplianceRate:     rate,
		Compliant:          rate >= compliantRateThreshold,
		RiskLevel:          riskLevel(rate, counts.Overdue),
		Issues:             issues(rate, counts),
		Recommendations:    recommendations(rate, counts),
		AuditDuration:      a.now().Sub(started),
		AuditedAt:          started,
		NextAuditDue:       started.AddDate(0, 0, auditInterval),
	}

	if err := a.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist audit snapshot: %w", err)
	}

	if !snapshot.Compliant {
		a.log.Warn("data type out of compliance",
			"organisationId", organisationID,
			"dataType", pol.DataType,
			"complianceRate", fmt.Sprintf("%.1f", rate),
			"riskLevel", snapshot.RiskLevel,
		)
	}
	return nil
}

func riskLevel(rate float64, overdue int) RiskLevel {
	switch {
	case rate < 70 || overdue > 100:
		return RiskCritical
	case rate < 85 || overdue > 50:
		return RiskHigh
	case rate < 95 || overdue > 10:
		return RiskMedium
	default:
		return RiskLow
	}
}

// issues lists the factual compliance problems found; recommendations
// carry the corresponding operator actions.
func issues(rate float64, counts lifecycle.AuditCounts) []string {
	var out []string
	if counts.Overdue > 0 {
		out = append(out, fmt.Sprintf("%d records past their retention period", counts.Overdue))
	}
	if counts.Errored > 0 {
		out = append(out, fmt.Sprintf("%d records with processing errors", counts.Errored))
	}
	if rate < compliantRateThreshold {
		out = append(out, fmt.Sprintf("compliance rate %.1f%% below the %.0f%% target", rate, compliantRateThreshold))
	}
	return out
}

func recommendations(rate float64, counts lifecycle.AuditCounts) []string {
	var recs []string
	if counts.Overdue > 0 {
		recs = append(recs, fmt.Sprintf("%d records are past their retention period; run a scan or review the policy's automatic_deletion setting", counts.Overdue))
	}
	if counts.SoftDeleted > 0 {
		recs = append(recs, fmt.Sprintf("%d records are awaiting secure erasure after their grace period", counts.SoftDeleted))
	}
	if counts.Errored > 0 {
		recs = append(recs, fmt.Sprintf("%d records have processing errors and need operator review", counts.Errored))
	}
	if rate < compliantRateThreshold {
		recs = append(recs, "compliance rate is below the 95% threshold; prioritise clearing the backlog")
	}
	return recs
}
