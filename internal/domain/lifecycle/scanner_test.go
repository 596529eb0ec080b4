package lifecycle

import (
	"context"
	"testing"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
)

func testSources(t *testing.T) (records.Sources, map[policy.DataType]*records.MemorySource) {
	t.Helper()
	byType := map[policy.DataType]*records.MemorySource{
		policy.DataTypeUserProfile:    records.NewMemorySource(policy.DataTypeUserProfile, "users"),
		policy.DataTypeCourseProgress: records.NewMemorySource(policy.DataTypeCourseProgress, "course_progress"),
		policy.DataTypeCertificates:   records.NewMemorySource(policy.DataTypeCertificates, "issued_certificates"),
		policy.DataTypeAuditLogs:      records.NewMemorySource(policy.DataTypeAuditLogs, "audit_logs"),
		policy.DataTypeCommunications: records.NewMemorySource(policy.DataTypeCommunications, "communications"),
	}
	sources, err := records.NewSources(
		byType[policy.DataTypeUserProfile],
		byType[policy.DataTypeCourseProgress],
		byType[policy.DataTypeCertificates],
		byType[policy.DataTypeAuditLogs],
		byType[policy.DataTypeCommunications],
	)
	if err != nil {
		t.Fatalf("NewSources: %v", err)
	}
	return sources, byType
}

func commsPolicy(org string) policy.RetentionPolicy {
	return policy.RetentionPolicy{
		ID:                  "pol-comms",
		OrganisationID:      org,
		DataType:            policy.DataTypeCommunications,
		RetentionPeriodDays: 180,
		GracePeriodDays:     30,
		LegalBasis:          policy.LegalBasisLegitimateInterest,
		AutomaticDeletion:   true,
		SecureEraseMethod:   policy.EraseOverwriteMultiple,
		Enabled:             true,
	}
}

func TestScanTracksOnlyExpiredEntities(t *testing.T) {
	sources, byType := testSources(t)
	store := NewMemoryStore()
	scanner := NewScanner(sources, store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return now }

	comms := byType[policy.DataTypeCommunications]
	comms.AddEntity("old", "org-1", now.AddDate(0, 0, -200))
	comms.AddEntity("fresh", "org-1", now.AddDate(0, 0, -10))
	comms.AddEntity("other-org", "org-2", now.AddDate(0, 0, -200))

	stats, err := scanner.Scan(context.Background(), "org-1", commsPolicy("org-1"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Created != 1 || stats.Seen != 1 {
		t.Fatalf("stats = %+v, want 1 seen 1 created", stats)
	}

	rec, err := store.GetByResource(context.Background(), "communications", "old")
	if err != nil {
		t.Fatalf("GetByResource: %v", err)
	}
	if rec.Status != StatusRetentionPending {
		t.Fatalf("status = %s, want %s", rec.Status, StatusRetentionPending)
	}
	wantEligible := now.AddDate(0, 0, -200).AddDate(0, 0, 180)
	if !rec.RetentionEligibleAt.Equal(wantEligible) {
		t.Fatalf("retentionEligibleAt = %v, want %v", rec.RetentionEligibleAt, wantEligible)
	}
	if rec.Policy.Version != PolicySnapshotVersion || rec.Policy.PolicyID != "pol-comms" {
		t.Fatalf("policy snapshot not captured: %+v", rec.Policy)
	}

	if _, err := store.GetByResource(context.Background(), "communications", "fresh"); err == nil {
		t.Fatal("fresh entity must not be tracked")
	}
}

func TestScanIsIdempotentAcrossRuns(t *testing.T) {
	sources, byType := testSources(t)
	store := NewMemoryStore()
	scanner := NewScanner(sources, store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return now }

	byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", now.AddDate(0, 0, -365))

	first, err := scanner.Scan(context.Background(), "org-1", commsPolicy("org-1"))
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := scanner.Scan(context.Background(), "org-1", commsPolicy("org-1"))
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("first scan created = %d, want 1", first.Created)
	}
	if second.Created != 0 || second.Seen != 1 {
		t.Fatalf("second scan = %+v, want 0 created 1 seen", second)
	}
}
