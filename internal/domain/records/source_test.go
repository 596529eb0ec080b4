package records

import (
	"context"
	"testing"
	"time"

	"sentra/internal/domain/policy"
)

func fullSourceSet() []Source {
	return []Source{
		NewMemorySource(policy.DataTypeUserProfile, "users"),
		NewMemorySource(policy.DataTypeCourseProgress, "course_progress"),
		NewMemorySource(policy.DataTypeCertificates, "issued_certificates"),
		NewMemorySource(policy.DataTypeAuditLogs, "audit_logs"),
		NewMemorySource(policy.DataTypeCommunications, "communications"),
	}
}

func TestNewSourcesCoversEveryDataType(t *testing.T) {
	sources, err := NewSources(fullSourceSet()...)
	if err != nil {
		t.Fatalf("NewSources: %v", err)
	}
	for _, dt := range policy.AllDataTypes() {
		src, err := sources.For(dt)
		if err != nil {
			t.Fatalf("For(%s): %v", dt, err)
		}
		if src.DataType() != dt {
			t.Fatalf("For(%s) returned source for %s", dt, src.DataType())
		}
	}
}

func TestNewSourcesRejectsMissingDataType(t *testing.T) {
	all := fullSourceSet()
	if _, err := NewSources(all[:4]...); err == nil {
		t.Fatal("NewSources must reject an incomplete dispatch table")
	}
}

func TestNewSourcesRejectsDuplicates(t *testing.T) {
	all := append(fullSourceSet(), NewMemorySource(policy.DataTypeUserProfile, "users_again"))
	if _, err := NewSources(all...); err == nil {
		t.Fatal("NewSources must reject duplicate registrations")
	}
}

func TestForRejectsUnknownDataType(t *testing.T) {
	sources, err := NewSources(fullSourceSet()...)
	if err != nil {
		t.Fatalf("NewSources: %v", err)
	}
	if _, err := sources.For(policy.DataType("payments")); err == nil {
		t.Fatal("For must reject an unregistered data type")
	}
}

func TestMemorySourceEligibilityWindow(t *testing.T) {
	src := NewMemorySource(policy.DataTypeCommunications, "communications")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src.AddEntity("old", "org-1", now.AddDate(0, 0, -100))
	src.AddEntity("fresh", "org-1", now.AddDate(0, 0, -1))

	eligible, err := src.ListEligible(context.Background(), "org-1", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ResourceID != "old" {
		t.Fatalf("eligible = %+v, want only the old entity", eligible)
	}
}
