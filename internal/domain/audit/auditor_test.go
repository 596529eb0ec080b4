package audit

import (
	"context"
	"testing"
	"time"

	"sentra/internal/domain/lifecycle"
	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
)

func testAuditSources(t *testing.T) (records.Sources, *records.MemorySource) {
	t.Helper()
	comms := records.NewMemorySource(policy.DataTypeCommunications, "communications")
	sources, err := records.NewSources(
		records.NewMemorySource(policy.DataTypeUserProfile, "users"),
		records.NewMemorySource(policy.DataTypeCourseProgress, "course_progress"),
		records.NewMemorySource(policy.DataTypeCertificates, "issued_certificates"),
		records.NewMemorySource(policy.DataTypeAuditLogs, "audit_logs"),
		comms,
	)
	if err != nil {
		t.Fatalf("NewSources: %v", err)
	}
	return sources, comms
}

func ensureRecord(t *testing.T, store lifecycle.Store, id string, eligibleAt time.Time) *lifecycle.DataLifecycleRecord {
	t.Helper()
	_, rec, err := store.Ensure(context.Background(), &lifecycle.DataLifecycleRecord{
		OrganisationID:      "org-1",
		ResourceTable:       "communications",
		ResourceID:          id,
		DataType:            policy.DataTypeCommunications,
		PolicyID:            "pol-comms",
		Status:              lifecycle.StatusRetentionPending,
		DataCreatedAt:       eligibleAt.AddDate(0, 0, -180),
		RetentionEligibleAt: eligibleAt,
	})
	if err != nil {
		t.Fatalf("Ensure %s: %v", id, err)
	}
	return rec
}

func TestAuditComputesRateRiskAndRecommendations(t *testing.T) {
	sources, comms := testAuditSources(t)
	ledger := lifecycle.NewMemoryStore()
	store := NewMemoryStore()
	auditor := NewAuditor(sources, ledger, store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auditor.now = func() time.Time { return now }

	// nine live communications, one already erased elsewhere
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"} {
		comms.AddEntity(id, "org-1", now.AddDate(0, 0, -10))
	}

	past := now.AddDate(0, 0, -5)
	ensureRecord(t, ledger, "c1", past) // overdue
	ensureRecord(t, ledger, "c2", past) // overdue
	soft := ensureRecord(t, ledger, "c3", past)
	if err := ledger.MarkSoftDeleted(context.Background(), soft.ID, now, now.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("MarkSoftDeleted: %v", err)
	}
	erased := ensureRecord(t, ledger, "gone", past)
	if err := ledger.MarkSoftDeleted(context.Background(), erased.ID, now, now); err != nil {
		t.Fatalf("MarkSoftDeleted: %v", err)
	}
	hash := lifecycle.VerificationHash("communications", "gone", now)
	if err := ledger.MarkErased(context.Background(), erased.ID, now, "simple_delete", hash); err != nil {
		t.Fatalf("MarkErased: %v", err)
	}

	pol := policy.RetentionPolicy{ID: "pol-comms", OrganisationID: "org-1", DataType: policy.DataTypeCommunications}
	if err := auditor.Audit(context.Background(), "org-1", pol); err != nil {
		t.Fatalf("Audit: %v", err)
	}

	snapshot, err := store.Latest(context.Background(), "org-1", policy.DataTypeCommunications)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snapshot.TotalRecords != 10 {
		t.Fatalf("totalRecords = %d, want 10 (9 live + 1 erased)", snapshot.TotalRecords)
	}
	if snapshot.OverdueRecords != 2 || snapshot.SoftDeletedRecords != 1 || snapshot.ErasedRecords != 1 {
		t.Fatalf("counts = %+v", snapshot)
	}
	if snapshot.CompliantRecords != 7 || snapshot.ComplianceRate != 70.0 {
		t.Fatalf("compliant = %d rate = %.1f, want 7 and 70.0", snapshot.CompliantRecords, snapshot.ComplianceRate)
	}
	if snapshot.Compliant {
		t.Fatal("70% must be non-compliant")
	}
	if snapshot.RiskLevel != RiskHigh {
		t.Fatalf("riskLevel = %s, want %s", snapshot.RiskLevel, RiskHigh)
	}
	if len(snapshot.Recommendations) != 3 {
		t.Fatalf("recommendations = %v, want overdue + soft-deleted + rate entries", snapshot.Recommendations)
	}
	if len(snapshot.Issues) != 2 {
		t.Fatalf("issues = %v, want overdue + rate entries", snapshot.Issues)
	}
	if want := now.AddDate(0, 0, 30); !snapshot.NextAuditDue.Equal(want) {
		t.Fatalf("nextAuditDue = %v, want %v", snapshot.NextAuditDue, want)
	}
}

func TestAuditCleanDataTypeIsCompliantLowRisk(t *testing.T) {
	sources, comms := testAuditSources(t)
	ledger := lifecycle.NewMemoryStore()
	store := NewMemoryStore()
	auditor := NewAuditor(sources, ledger, store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auditor.now = func() time.Time { return now }
	comms.AddEntity("c1", "org-1", now.AddDate(0, 0, -10))

	pol := policy.RetentionPolicy{ID: "pol-comms", OrganisationID: "org-1", DataType: policy.DataTypeCommunications}
	if err := auditor.Audit(context.Background(), "org-1", pol); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	snapshot, err := store.Latest(context.Background(), "org-1", policy.DataTypeCommunications)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !snapshot.Compliant || snapshot.RiskLevel != RiskLow || snapshot.ComplianceRate != 100.0 {
		t.Fatalf("snapshot = %+v, want fully compliant", snapshot)
	}
	if len(snapshot.Recommendations) != 0 {
		t.Fatalf("recommendations = %v, want none", snapshot.Recommendations)
	}
	if len(snapshot.Issues) != 0 {
		t.Fatalf("issues = %v, want none", snapshot.Issues)
	}
}

func TestAuditMeasuresDuration(t *testing.T) {
	sources, comms := testAuditSources(t)
	ledger := lifecycle.NewMemoryStore()
	store := NewMemoryStore()
	auditor := NewAuditor(sources, ledger, store)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	auditor.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 250 * time.Millisecond)
	}
	comms.AddEntity("c1", "org-1", base.AddDate(0, 0, -10))

	pol := policy.RetentionPolicy{ID: "pol-comms", OrganisationID: "org-1", DataType: policy.DataTypeCommunications}
	if err := auditor.Audit(context.Background(), "org-1", pol); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	snapshot, err := store.Latest(context.Background(), "org-1", policy.DataTypeCommunications)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if snapshot.AuditDuration != 250*time.Millisecond {
		t.Fatalf("auditDuration = %v, want the elapsed time between start and finish", snapshot.AuditDuration)
	}
	if !snapshot.AuditedAt.Equal(base) {
		t.Fatalf("auditedAt = %v, want the audit start time", snapshot.AuditedAt)
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		rate    float64
		overdue int
		want    RiskLevel
	}{
		{100, 0, RiskLow},
		{96, 5, RiskLow},
		{94, 0, RiskMedium},
		{96, 11, RiskMedium},
		{84, 0, RiskHigh},
		{96, 51, RiskHigh},
		{69, 0, RiskCritical},
		{96, 101, RiskCritical},
	}
	for _, tc := range cases {
		if got := riskLevel(tc.rate, tc.overdue); got != tc.want {
			t.Fatalf("riskLevel(%.0f, %d) = %s, want %s", tc.rate, tc.overdue, got, tc.want)
		}
	}
}
