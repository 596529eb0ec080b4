package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentra/internal/domain/certificate"
	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
	"sentra/internal/platform/locks"
)

type staticOrgs []string

func (s staticOrgs) ListOrganisationIDs(ctx context.Context) ([]string, error) {
	return s, nil
}

type noopAuditor struct {
	calls int
	err   error
}

func (a *noopAuditor) Audit(ctx context.Context, organisationID string, pol policy.RetentionPolicy) error {
	a.calls++
	return a.err
}

type orchestratorFixture struct {
	orch    *Orchestrator
	store   *MemoryStore
	runs    *MemoryRunStore
	byType  map[policy.DataType]*records.MemorySource
	certs   *certificate.MemoryStore
	auditor *noopAuditor
	locker  *locks.ProcessLocker
	clock   *time.Time
}

func newOrchestratorFixture(t *testing.T, policies ...policy.RetentionPolicy) *orchestratorFixture {
	t.Helper()
	sources, byType := testSources(t)
	store := NewMemoryStore()
	runs := NewMemoryRunStore()
	certStore := certificate.NewMemoryStore()
	auditor := &noopAuditor{}
	locker := locks.NewProcessLocker()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	scanner := NewScanner(sources, store)
	scanner.now = now
	softDel := NewSoftDeleteExecutor(sources, store)
	softDel.now = now
	eraser := NewEraseExecutor(sources, store, &fakeKeys{}, certificate.NewService(certStore), &alertRecorder{}, nil, 0)
	eraser.now = now

	policyStore := policy.NewMemoryStore(policies...)
	orch := NewOrchestrator(OrchestratorDeps{
		Orgs:     staticOrgs{"org-1"},
		Policies: policyStore,
		Resolver: policy.NewResolver(policyStore),
		Scanner:  scanner,
		SoftDel:  softDel,
		Eraser:   eraser,
		Auditor:  auditor,
		Store:    store,
		Runs:     runs,
		Locker:   locker,
		LockTTL:  time.Hour,
	})
	orch.now = now

	return &orchestratorFixture{
		orch: orch, store: store, runs: runs, byType: byType,
		certs: certStore, auditor: auditor, locker: locker, clock: &clock,
	}
}

func (f *orchestratorFixture) advanceDays(d int) {
	*f.clock = f.clock.AddDate(0, 0, d)
}

// An expired communication moves retention_pending -> soft_deleted ->
// securely_erased across three scans, with the grace period honoured in
// between.
func TestScanLifecycleAcrossThreeRuns(t *testing.T) {
	pol := commsPolicy("org-1")
	f := newOrchestratorFixture(t, pol)
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))

	// first scan: track and soft delete in the same pass
	result, err := f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if result.Processed != 1 || result.SoftDeleted != 1 || result.SecurelyErased != 0 {
		t.Fatalf("first scan = %+v", result)
	}
	rec, err := f.store.GetByResource(context.Background(), "communications", "c1")
	if err != nil {
		t.Fatalf("GetByResource: %v", err)
	}
	if rec.Status != StatusSoftDeleted {
		t.Fatalf("status after first scan = %s", rec.Status)
	}

	// second scan, inside the grace period: nothing to do
	f.advanceDays(10)
	result, err = f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if result.SoftDeleted != 0 || result.SecurelyErased != 0 {
		t.Fatalf("second scan = %+v, grace period must hold", result)
	}

	// third scan, past the grace period: erase and certify
	f.advanceDays(25)
	result, err = f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if result.SecurelyErased != 1 || len(result.Errors) != 0 {
		t.Fatalf("third scan = %+v", result)
	}
	// the record no longer appears at the source, yet this run worked on it
	if result.Processed != 1 {
		t.Fatalf("third scan processed = %d, erase-due records must count", result.Processed)
	}
	rec, _ = f.store.GetByResource(context.Background(), "communications", "c1")
	if rec.Status != StatusSecurelyErased {
		t.Fatalf("status after third scan = %s", rec.Status)
	}
	certs, _ := f.certs.List(context.Background(), "org-1", 0)
	if len(certs) != 1 {
		t.Fatalf("certificates = %d, want 1", len(certs))
	}
	if f.auditor.calls != 3 {
		t.Fatalf("auditor calls = %d, want one per scan", f.auditor.calls)
	}
	runs, _ := f.runs.List(context.Background(), "org-1", 0)
	if len(runs) != 3 {
		t.Fatalf("persisted runs = %d, want 3", len(runs))
	}
}

func TestScanIsolatesPerDataTypeFailures(t *testing.T) {
	commsPol := commsPolicy("org-1")
	progressPol := policy.RetentionPolicy{
		ID:                  "pol-progress",
		OrganisationID:      "org-1",
		DataType:            policy.DataTypeCourseProgress,
		RetentionPeriodDays: 90,
		GracePeriodDays:     15,
		LegalBasis:          policy.LegalBasisContract,
		AutomaticDeletion:   true,
		SecureEraseMethod:   policy.EraseSimpleDelete,
		Enabled:             true,
	}
	f := newOrchestratorFixture(t, commsPol, progressPol)

	f.byType[policy.DataTypeCourseProgress].AddEntity("p1", "org-1", f.clock.AddDate(0, 0, -100))
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))
	f.byType[policy.DataTypeCommunications].FailSoftDelete = errors.New("comms store offline")

	result, err := f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", result.Errors)
	}
	if result.Errors[0].DataType != policy.DataTypeCommunications || result.Errors[0].Operation != "soft_delete" {
		t.Fatalf("error = %+v", result.Errors[0])
	}
	// the failing data type must not block the healthy one
	if result.SoftDeleted != 1 {
		t.Fatalf("softDeleted = %d, course progress should still process", result.SoftDeleted)
	}
	rec, _ := f.store.GetByResource(context.Background(), "course_progress", "p1")
	if rec.Status != StatusSoftDeleted {
		t.Fatalf("course progress status = %s", rec.Status)
	}
}

func TestScanRejectedWhileLockHeld(t *testing.T) {
	f := newOrchestratorFixture(t, commsPolicy("org-1"))

	lock, err := f.locker.Obtain(context.Background(), scanLockKey, time.Hour)
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	defer lock.Release(context.Background())

	if _, err := f.orch.RunScan(context.Background(), "org-1"); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("err = %v, want ErrScanInProgress", err)
	}
	if _, err := f.orch.RunScanAll(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("RunScanAll err = %v, want ErrScanInProgress", err)
	}
}

func TestScanSkipsUngovernedDataTypes(t *testing.T) {
	// no policies at all: every data type resolves to ErrUngoverned
	f := newOrchestratorFixture(t)
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))

	result, err := f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	if result.Processed != 0 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v, ungoverned types must be skipped silently", result)
	}
}

func TestCertificateFailureCountsAsErasedWithError(t *testing.T) {
	f := newOrchestratorFixture(t, commsPolicy("org-1"))
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))

	if _, err := f.orch.RunScan(context.Background(), "org-1"); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	f.advanceDays(31)
	f.orch.eraser.certs = failingIssuer{err: errors.New("issuer down")}

	result, err := f.orch.RunScan(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if result.SecurelyErased != 1 {
		t.Fatalf("securelyErased = %d, data destruction did succeed", result.SecurelyErased)
	}
	if len(result.Errors) != 1 || result.Errors[0].Operation != "certificate" {
		t.Fatalf("errors = %+v, want one certificate error", result.Errors)
	}
}

func TestRestoreEndToEndViaOrchestrator(t *testing.T) {
	f := newOrchestratorFixture(t, commsPolicy("org-1"))
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))

	if _, err := f.orch.RunScan(context.Background(), "org-1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	rec, _ := f.store.GetByResource(context.Background(), "communications", "c1")

	restored, err := f.orch.Restore(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status != StatusRetentionPending {
		t.Fatalf("status = %s, want %s", restored.Status, StatusRetentionPending)
	}

	// once erased, restore is impossible
	if _, err := f.orch.RunScan(context.Background(), "org-1"); err != nil {
		t.Fatalf("re-scan: %v", err)
	}
	f.advanceDays(31)
	if _, err := f.orch.RunScan(context.Background(), "org-1"); err != nil {
		t.Fatalf("erase scan: %v", err)
	}
	rec, _ = f.store.Get(context.Background(), rec.ID)
	if rec.Status != StatusSecurelyErased {
		t.Fatalf("status = %s, want %s", rec.Status, StatusSecurelyErased)
	}
	if _, err := f.orch.Restore(context.Background(), rec.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("restore after erasure: err = %v, want ErrInvalidTransition", err)
	}
}

func TestStatusProjectionReflectsCounts(t *testing.T) {
	f := newOrchestratorFixture(t, commsPolicy("org-1"))
	f.byType[policy.DataTypeCommunications].AddEntity("c1", "org-1", f.clock.AddDate(0, 0, -200))

	if _, err := f.orch.RunScan(context.Background(), "org-1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	status, err := f.orch.Status(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.ScanInProgress {
		t.Fatal("no scan should be in flight")
	}
	if status.LastScan == nil || status.LastScan.OrganisationID != "org-1" {
		t.Fatalf("lastScan = %+v", status.LastScan)
	}
	if status.PendingRecords != 1 {
		t.Fatalf("pendingRecords = %d, want 1 (soft deleted, not yet erased)", status.PendingRecords)
	}
}
