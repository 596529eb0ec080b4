package lifecycle

import (
	"testing"

	"sentra/internal/domain/policy"
)

func TestStatusAdvancesForwardOnly(t *testing.T) {
	order := []Status{
		StatusActive,
		StatusRetentionPending,
		StatusDeletionScheduled,
		StatusSoftDeleted,
		StatusSecurelyErased,
	}
	for i, from := range order {
		for j, to := range order {
			got := from.CanAdvanceTo(to)
			want := j > i
			if got != want {
				t.Fatalf("CanAdvanceTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatusAdvanceRejectsUnknown(t *testing.T) {
	if Status("bogus").CanAdvanceTo(StatusSoftDeleted) {
		t.Fatal("unknown status must not advance")
	}
	if StatusActive.CanAdvanceTo(Status("bogus")) {
		t.Fatal("advancing to unknown status must be rejected")
	}
}

func TestSnapshotPolicyCarriesVersionAndFields(t *testing.T) {
	p := policy.RetentionPolicy{
		ID:                  "pol-1",
		DataType:            policy.DataTypeCommunications,
		RetentionPeriodDays: 180,
		GracePeriodDays:     30,
		Priority:            5,
		LegalBasis:          policy.LegalBasisLegitimateInterest,
		AutomaticDeletion:   true,
		SecureEraseMethod:   policy.EraseOverwriteMultiple,
	}
	snap := SnapshotPolicy(p)
	if snap.Version != PolicySnapshotVersion {
		t.Fatalf("snapshot version = %d, want %d", snap.Version, PolicySnapshotVersion)
	}
	if snap.PolicyID != "pol-1" || snap.RetentionPeriodDays != 180 || snap.GracePeriodDays != 30 {
		t.Fatalf("snapshot did not carry policy fields: %+v", snap)
	}
	if snap.SecureEraseMethod != policy.EraseOverwriteMultiple || !snap.AutomaticDeletion {
		t.Fatalf("snapshot did not carry erase settings: %+v", snap)
	}
}

func TestSnapshotPolicyDefaultsUnsetEraseMethod(t *testing.T) {
	p := policy.RetentionPolicy{
		ID:                  "pol-1",
		DataType:            policy.DataTypeCommunications,
		RetentionPeriodDays: 180,
	}
	snap := SnapshotPolicy(p)
	if snap.SecureEraseMethod != policy.EraseOverwriteMultiple {
		t.Fatalf("secureEraseMethod = %q, want the multi-pass default", snap.SecureEraseMethod)
	}
}
