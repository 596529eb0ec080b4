package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/locks"
	"sentra/internal/platform/metrics"
)

const scanLockKey = "sentra:lifecycle:scan"

// ErrScanInProgress is returned when a scan is requested while another is
// running, in this process or on another instance holding the lock.
var ErrScanInProgress = errors.New("a lifecycle scan is already in progress")

// OrgLister enumerates the tenants a full scan covers.
type OrgLister interface {
	ListOrganisationIDs(ctx context.Context) ([]string, error)
}

// Auditor computes compliance posture after each scan touches a data type.
type Auditor interface {
	Audit(ctx context.Context, organisationID string, pol policy.RetentionPolicy) error
}

// ScanError records one failure inside a scan run. Failures are isolated:
// one bad record or data type never aborts the rest of the scan.
type ScanError struct {
	DataType  policy.DataType `json:"dataType,omitempty"`
	Operation string          `json:"operation"`
	RecordID  string          `json:"recordId,omitempty"`
	Message   string          `json:"message"`
}

func (e ScanError) Error() string {
	return fmt.Sprintf("%s %s %s: %s", e.DataType, e.Operation, e.RecordID, e.Message)
}

// ScanResult summarizes one scan run over one organisation. Processed
// counts every record the run worked on: entities the scanner saw at the
// sources plus ledger records due for erasure, which no longer appear at
// a source.
type ScanResult struct {
	OrganisationID string      `json:"organisationId"`
	StartedAt      time.Time   `json:"startedAt"`
	CompletedAt    time.Time   `json:"completedAt"`
	Processed      int         `json:"recordsProcessed"`
	SoftDeleted    int         `json:"recordsSoftDeleted"`
	SecurelyErased int         `json:"recordsSecurelyErased"`
	Errors         []ScanError `json:"errors,omitempty"`
}

// Orchestrator drives the full lifecycle pass: discover due records,
// soft-delete, securely erase, audit. Exactly one scan runs at a time,
// guarded by the injected locker.
type Orchestrator struct {
	orgs     OrgLister
	policies policy.Store
	resolver *policy.Resolver
	scanner  *Scanner
	softDel  *SoftDeleteExecutor
	eraser   *EraseExecutor
	auditor  Auditor
	store    Store
	runs     RunStore
	locker   locks.Locker
	lockTTL  time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time

	inFlight atomic.Bool
	mu       sync.Mutex
	lastScan *ScanResult
}

type OrchestratorDeps struct {
	Orgs     OrgLister
	Policies policy.Store
	Resolver *policy.Resolver
	Scanner  *Scanner
	SoftDel  *SoftDeleteExecutor
	Eraser   *EraseExecutor
	Auditor  Auditor
	Store    Store
	Runs     RunStore
	Locker   locks.Locker
	LockTTL  time.Duration
	Metrics  *metrics.Metrics
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		orgs:     deps.Orgs,
		policies: deps.Policies,
		resolver: deps.Resolver,
		scanner:  deps.Scanner,
		softDel:  deps.SoftDel,
		eraser:   deps.Eraser,
		auditor:  deps.Auditor,
		store:    deps.Store,
		runs:     deps.Runs,
		locker:   deps.Locker,
		lockTTL:  deps.LockTTL,
		metrics:  deps.Metrics,
		log:      slog.Default().With("component", "lifecycle.orchestrator"),
		now:      time.Now,
	}
}

// RunScanAll scans every organisation under one lock acquisition.
func (o *Orchestrator) RunScanAll(ctx context.Context) ([]ScanResult, error) {
	lock, err := o.locker.Obtain(ctx, scanLockKey, o.lockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrNotObtained) {
			return nil, ErrScanInProgress
		}
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	orgIDs, err := o.orgs.ListOrganisationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}

	results := make([]ScanResult, 0, len(orgIDs))
	for _, orgID := range orgIDs {
		result := o.scanOrganisation(ctx, orgID)
		results = append(results, result)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

// RunScan scans a single organisation on demand.
func (o *Orchestrator) RunScan(ctx context.Context, organisationID string) (*ScanResult, error) {
	lock, err := o.locker.Obtain(ctx, scanLockKey, o.lockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrNotObtained) {
			return nil, ErrScanInProgress
		}
		return nil, err
	}
	defer func() { _ = lock.Release(ctx) }()

	result := o.scanOrganisation(ctx, organisationID)
	return &result, nil
}

func (o *Orchestrator) scanOrganisation(ctx context.Context, organisationID string) ScanResult {
	o.inFlight.Store(true)
	defer o.inFlight.Store(false)

	result := ScanResult{
		OrganisationID: organisationID,
		StartedAt:      o.now(),
	}
	appendErr := func(dt policy.DataType, op, recordID string, err error) {
		result.Errors = append(result.Errors, ScanError{
			DataType: dt, Operation: op, RecordID: recordID, Message: err.Error(),
		})
		o.metrics.IncScanError()
	}

	for _, dt := range policy.AllDataTypes() {
		pol, err := o.resolver.Effective(ctx, organisationID, dt)
		if errors.Is(err, policy.ErrUngoverned) {
			continue
		}
		if err != nil {
			appendErr(dt, "resolve_policy", "", err)
			continue
		}

		stats, err := o.scanner.Scan(ctx, organisationID, *pol)
		result.Processed += stats.Seen
		o.metrics.AddStage("tracked", stats.Created)
		if err != nil {
			appendErr(dt, "scan", "", err)
			continue
		}

		o.softDeletePass(ctx, organisationID, dt, &result, appendErr)
		o.erasePass(ctx, organisationID, dt, &result, appendErr)

		if err := o.auditor.Audit(ctx, organisationID, *pol); err != nil {
			appendErr(dt, "audit", "", err)
		}
	}

	result.CompletedAt = o.now()
	o.finish(ctx, &result)
	return result
}

func (o *Orchestrator) softDeletePass(ctx context.Context, organisationID string, dt policy.DataType, result *ScanResult, appendErr func(policy.DataType, string, string, error)) {
	due, err := o.store.ListSoftDeleteDue(ctx, organisationID, dt, o.now())
	if err != nil {
		appendErr(dt, "list_soft_delete_due", "", err)
		return
	}
	for i := range due {
		rec := &due[i]
		err := o.softDel.Execute(ctx, rec)
		switch {
		case errors.Is(err, ErrAutomationDisabled), errors.Is(err, ErrNotYetEligible):
			// requires a manual decision or is not due yet; the next scan
			// picks it up when circumstances change
		case err != nil:
			appendErr(dt, "soft_delete", rec.ID, err)
		default:
			result.SoftDeleted++
			o.metrics.AddStage("soft_deleted", 1)
		}
	}
}

func (o *Orchestrator) erasePass(ctx context.Context, organisationID string, dt policy.DataType, result *ScanResult, appendErr func(policy.DataType, string, string, error)) {
	due, err := o.store.ListEraseDue(ctx, organisationID, dt, o.now())
	if err != nil {
		appendErr(dt, "list_erase_due", "", err)
		return
	}
	result.Processed += len(due)
	for i := range due {
		rec := &due[i]
		err := o.eraser.Execute(ctx, rec)
		var certErr *CertificateError
		switch {
		case errors.Is(err, ErrGracePeriodActive):
		case errors.As(err, &certErr):
			// the data is gone; only the proof failed
			result.SecurelyErased++
			o.metrics.AddStage("securely_erased", 1)
			appendErr(dt, "certificate", rec.ID, err)
		case err != nil:
			appendErr(dt, "secure_erase", rec.ID, err)
		default:
			result.SecurelyErased++
			o.metrics.AddStage("securely_erased", 1)
		}
	}
}

func (o *Orchestrator) finish(ctx context.Context, result *ScanResult) {
	status := "ok"
	if len(result.Errors) > 0 {
		status = "with_errors"
	}
	o.metrics.ObserveScan(status, result.CompletedAt.Sub(result.StartedAt))

	run := &ScanRun{
		ID:             uuid.NewString(),
		OrganisationID: result.OrganisationID,
		StartedAt:      result.StartedAt,
		CompletedAt:    result.CompletedAt,
		Processed:      result.Processed,
		SoftDeleted:    result.SoftDeleted,
		SecurelyErased: result.SecurelyErased,
		Errors:         result.Errors,
	}
	if err := o.runs.Save(ctx, run); err != nil {
		o.log.Warn("persisting scan run failed", "organisationId", result.OrganisationID, "err", err)
	}

	o.mu.Lock()
	o.lastScan = result
	o.mu.Unlock()

	o.log.Info("lifecycle scan completed",
		"organisationId", result.OrganisationID,
		"processed", result.Processed,
		"softDeleted", result.SoftDeleted,
		"securelyErased", result.SecurelyErased,
		"errors", len(result.Errors),
		"duration", result.CompletedAt.Sub(result.StartedAt),
	)
}

// Restore reverses a soft delete by lifecycle record ID.
func (o *Orchestrator) Restore(ctx context.Context, recordID string) (*DataLifecycleRecord, error) {
	rec, err := o.store.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := o.softDel.Restore(ctx, rec); err != nil {
		return nil, err
	}
	return o.store.Get(ctx, recordID)
}

// ScanInProgress reports whether a scan is running in this process.
func (o *Orchestrator) ScanInProgress() bool {
	return o.inFlight.Load()
}

// LastScan returns the most recent scan result in this process, or nil.
func (o *Orchestrator) LastScan() *ScanResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastScan
}
