package lifecycle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentra/internal/domain/certificate"
	"sentra/internal/domain/policy"
	"sentra/internal/domain/records"
	"sentra/internal/platform/metrics"
)

const overwritePasses = 3

// ErrGracePeriodActive is returned when an erase is attempted before the
// record's scheduled erasure time.
var ErrGracePeriodActive = errors.New("grace period has not elapsed")

// CertificateError wraps a certificate generation failure that happened
// AFTER the data was destroyed. The erasure itself stands; only the proof
// is missing, which is a compliance incident in its own right.
type CertificateError struct {
	RecordID string
	Err      error
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("erasure of record %s completed but certificate generation failed: %v", e.RecordID, e.Err)
}

func (e *CertificateError) Unwrap() error { return e.Err }

// KeyEraser destroys the data key for a resource. The bool result reports
// whether a key existed; without one, cryptographic erasure has nothing
// to destroy and the executor degrades to an overwrite pass.
type KeyEraser interface {
	DestroyKey(ctx context.Context, resourceTable, resourceID string) (bool, error)
}

// Alerter notifies operators of compliance incidents.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// CertificateIssuer mints the proof of deletion once erasure completes.
type CertificateIssuer interface {
	Issue(ctx context.Context, req certificate.IssueRequest) (*certificate.SecureDeletionCertificate, error)
}

type eraseFunc func(ctx context.Context, src records.Source, e records.Entity) (confirmation string, err error)

// EraseExecutor performs irreversible destruction using the method the
// policy snapshot prescribes. The method table is closed at construction:
// an unknown method is an error, never a silent fallback.
type EraseExecutor struct {
	sources records.Sources
	store   Store
	keys    KeyEraser
	certs   CertificateIssuer
	alerts  Alerter
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
	pause   time.Duration

	methods map[policy.EraseMethod]eraseFunc
}

func NewEraseExecutor(sources records.Sources, store Store, keys KeyEraser, certs CertificateIssuer, alerts Alerter, m *metrics.Metrics, overwritePause time.Duration) *EraseExecutor {
	x := &EraseExecutor{
		sources: sources,
		store:   store,
		keys:    keys,
		certs:   certs,
		alerts:  alerts,
		metrics: m,
		log:     slog.Default().With("component", "lifecycle.erase"),
		now:     time.Now,
		pause:   overwritePause,
	}
	x.methods = map[policy.EraseMethod]eraseFunc{
		policy.EraseSimpleDelete:       x.simpleDelete,
		policy.EraseOverwriteOnce:      x.overwriteOnce,
		policy.EraseOverwriteMultiple:  x.overwriteMultiple,
		policy.EraseCryptographicErase: x.cryptographicErase,
	}
	return x
}

// Execute destroys one record's data and issues the certificate. Data
// destruction and certificate issuance are separate failure domains: a
// certificate failure after successful erasure returns *CertificateError
// and the record stays securely erased.
func (x *EraseExecutor) Execute(ctx context.Context, rec *DataLifecycleRecord) error {
	if rec.SecureEraseScheduledAt == nil || rec.SecureEraseScheduledAt.After(x.now()) {
		return ErrGracePeriodActive
	}

	method := rec.Policy.SecureEraseMethod.OrDefault()
	erase, ok := x.methods[method]
	if !ok {
		return fmt.Errorf("unknown secure erase method %q", method)
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

	started := x.now()
	methodUsed, err := erase(ctx, src, entity)
	if err != nil {
		x.fail(ctx, rec, "secure_erase", err)
		return fmt.Errorf("erase %s/%s with %s: %w", rec.ResourceTable, rec.ResourceID, method, err)
	}

	// The hash is the deletion confirmation. It is stored on the record
	// before certificate issuance so the proof survives a certificate
	// failure.
	hash := VerificationHash(rec.ResourceTable, rec.ResourceID, started)
	if err := x.store.MarkErased(ctx, rec.ID, started, methodUsed, hash); err != nil {
		x.fail(ctx, rec, "secure_erase_mark", err)
		return fmt.Errorf("mark erased %s: %w", rec.ID, err)
	}

	x.log.Info("record securely erased",
		"recordId", rec.ID,
		"resource", rec.ResourceTable+"/"+rec.ResourceID,
		"method", methodUsed,
	)

	cert, err := x.certs.Issue(ctx, certificate.IssueRequest{
		OrganisationID:        rec.OrganisationID,
		LifecycleRecordID:     rec.ID,
		ResourceTable:         rec.ResourceTable,
		ResourceID:            rec.ResourceID,
		UserID:                rec.UserID,
		DataType:              rec.DataType,
		RecordCount:           1,
		EraseMethod:           method,
		ErasedAt:              started,
		VerificationHash:      hash,
		VerificationMethod:    VerificationMethodSHA256,
		LegalBasis:            rec.Policy.LegalBasis,
		RegulatoryRequirement: rec.Policy.RegulatoryRequirement,
		DeletionReason:        rec.DeletionReason,
	})
	if err != nil {
		x.certFailure(ctx, rec, err)
		return &CertificateError{RecordID: rec.ID, Err: err}
	}

	if err := x.store.AttachCertificate(ctx, rec.ID, cert.ID); err != nil {
		x.certFailure(ctx, rec, err)
		return &CertificateError{RecordID: rec.ID, Err: err}
	}
	return nil
}

func (x *EraseExecutor) simpleDelete(ctx context.Context, src records.Source, e records.Entity) (string, error) {
	if err := src.Delete(ctx, e); err != nil {
		return "", err
	}
	return string(policy.EraseSimpleDelete), nil
}

func (x *EraseExecutor) overwriteOnce(ctx context.Context, src records.Source, e records.Entity) (string, error) {
	if err := x.overwrite(ctx, src, e, 1); err != nil {
		return "", err
	}
	return string(policy.EraseOverwriteOnce), nil
}

func (x *EraseExecutor) overwriteMultiple(ctx context.Context, src records.Source, e records.Entity) (string, error) {
	if err := x.overwrite(ctx, src, e, overwritePasses); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", policy.EraseOverwriteMultiple, overwritePasses), nil
}

// cryptographicErase destroys the per-resource data key, making every
// ciphertext written under it unrecoverable. Resources that were never
// key-encrypted degrade to a single overwrite pass.
func (x *EraseExecutor) cryptographicErase(ctx context.Context, src records.Source, e records.Entity) (string, error) {
	destroyed, err := x.keys.DestroyKey(ctx, e.ResourceTable, e.ResourceID)
	if err != nil {
		return "", err
	}
	if !destroyed {
		x.log.Warn("no data key to destroy, degrading to overwrite",
			"resource", e.ResourceTable+"/"+e.ResourceID)
		if err := x.overwrite(ctx, src, e, 1); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:degraded_to_%s", policy.EraseCryptographicErase, policy.EraseOverwriteOnce), nil
	}
	return string(policy.EraseCryptographicErase), nil
}

func (x *EraseExecutor) overwrite(ctx context.Context, src records.Source, e records.Entity, passes int) error {
	for pass := 1; pass <= passes; pass++ {
		if err := src.Overwrite(ctx, e, pass); err != nil {
			return fmt.Errorf("overwrite pass %d/%d: %w", pass, passes, err)
		}
		if pass < passes && x.pause > 0 {
			select {
			case <-time.After(x.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (x *EraseExecutor) fail(ctx context.Context, rec *DataLifecycleRecord, operation string, cause error) {
	perr := ProcessingError{At: x.now(), Operation: operation, Message: cause.Error()}
	if err := x.store.RecordFailure(ctx, rec.ID, perr); err != nil {
		x.log.Warn("recording processing error failed", "recordId", rec.ID, "err", err)
	}
}

func (x *EraseExecutor) certFailure(ctx context.Context, rec *DataLifecycleRecord, cause error) {
	x.metrics.IncCertFailure()
	x.fail(ctx, rec, "certificate", cause)
	x.log.Error("certificate generation failed after erasure",
		"recordId", rec.ID,
		"resource", rec.ResourceTable+"/"+rec.ResourceID,
		"err", cause,
	)
	if x.alerts == nil {
		return
	}
	subject := "Secure deletion certificate failure"
	body := fmt.Sprintf(
		"Record %s (%s/%s) was securely erased at %s but certificate generation failed: %v\n\nThe erasure is final. A certificate must be issued manually.",
		rec.ID, rec.ResourceTable, rec.ResourceID, x.now().UTC().Format(time.RFC3339), cause,
	)
	if err := x.alerts.Alert(ctx, subject, body); err != nil {
		x.log.Warn("alert delivery failed", "recordId", rec.ID, "err", err)
	}
}

// VerificationMethodSHA256 names the hash scheme on certificates, so a
// verifier knows how to recompute the verification hash.
const VerificationMethodSHA256 = "sha256(resource_table+resource_id+erase_started_at)"

// VerificationHash fingerprints a single erase run. It covers the resource
// identity and the erase start time so the hash cannot be reused across
// records or runs.
func VerificationHash(resourceTable, resourceID string, started time.Time) string {
	sum := sha256.Sum256([]byte(resourceTable + resourceID + started.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
