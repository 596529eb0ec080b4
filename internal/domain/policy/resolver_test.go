package policy

import (
	"context"
	"errors"
	"testing"
)

func testPolicy(id, org string, dt DataType, priority int, basis LegalBasis, enabled bool) RetentionPolicy {
	return RetentionPolicy{
		ID:                  id,
		OrganisationID:      org,
		DataType:            dt,
		RetentionPeriodDays: 180,
		GracePeriodDays:     30,
		Priority:            priority,
		LegalBasis:          basis,
		SecureEraseMethod:   EraseOverwriteMultiple,
		Enabled:             enabled,
	}
}

func TestEffectiveUngoverned(t *testing.T) {
	resolver := NewResolver(NewMemoryStore())

	_, err := resolver.Effective(context.Background(), "org-1", DataTypeCommunications)
	if !errors.Is(err, ErrUngoverned) {
		t.Fatalf("expected ErrUngoverned, got %v", err)
	}
}

func TestEffectiveDisabledPoliciesDoNotGovern(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p1", "org-1", DataTypeCommunications, 10, LegalBasisConsent, false),
	)
	resolver := NewResolver(store)

	_, err := resolver.Effective(context.Background(), "org-1", DataTypeCommunications)
	if !errors.Is(err, ErrUngoverned) {
		t.Fatalf("expected ErrUngoverned for disabled policy, got %v", err)
	}
}

func TestEffectiveSinglePolicy(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p1", "org-1", DataTypeCommunications, 0, LegalBasisConsent, true),
	)
	resolver := NewResolver(store)

	got, err := resolver.Effective(context.Background(), "org-1", DataTypeCommunications)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p1" {
		t.Fatalf("expected p1, got %s", got.ID)
	}
}

func TestEffectiveLegalObligationBeatsHigherPriority(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p-business", "org-1", DataTypeAuditLogs, 100, LegalBasisLegitimateInterest, true),
		testPolicy("p-legal", "org-1", DataTypeAuditLogs, 1, LegalBasisLegalObligation, true),
	)
	resolver := NewResolver(store)

	got, err := resolver.Effective(context.Background(), "org-1", DataTypeAuditLogs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p-legal" {
		t.Fatalf("legal_obligation must win, got %s", got.ID)
	}
}

func TestEffectiveHighestPriorityWins(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p-low", "org-1", DataTypeCommunications, 1, LegalBasisConsent, true),
		testPolicy("p-high", "org-1", DataTypeCommunications, 5, LegalBasisContract, true),
	)
	resolver := NewResolver(store)

	got, err := resolver.Effective(context.Background(), "org-1", DataTypeCommunications)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p-high" {
		t.Fatalf("expected p-high, got %s", got.ID)
	}
}

func TestEffectiveTieBreaksOnLowestID(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p-b", "org-1", DataTypeCommunications, 5, LegalBasisConsent, true),
		testPolicy("p-a", "org-1", DataTypeCommunications, 5, LegalBasisContract, true),
	)
	resolver := NewResolver(store)

	got, err := resolver.Effective(context.Background(), "org-1", DataTypeCommunications)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p-a" {
		t.Fatalf("tie must break on lowest id, got %s", got.ID)
	}
}

func TestEffectiveMultipleLegalPoliciesStayDeterministic(t *testing.T) {
	store := NewMemoryStore(
		testPolicy("p-2", "org-1", DataTypeAuditLogs, 3, LegalBasisLegalObligation, true),
		testPolicy("p-1", "org-1", DataTypeAuditLogs, 3, LegalBasisLegalObligation, true),
	)
	resolver := NewResolver(store)

	got, err := resolver.Effective(context.Background(), "org-1", DataTypeAuditLogs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "p-1" {
		t.Fatalf("expected p-1, got %s", got.ID)
	}
}
