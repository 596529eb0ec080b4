package certificate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sentra/internal/domain/policy"
)

// IssueRequest carries everything the certificate must attest to. The
// verification hash binds the certificate to the specific erase run it
// documents.
type IssueRequest struct {
	OrganisationID        string
	LifecycleRecordID     string
	ResourceTable         string
	ResourceID            string
	UserID                string
	DataType              policy.DataType
	RecordCount           int
	EraseMethod           policy.EraseMethod
	ErasedAt              time.Time
	VerificationHash      string
	VerificationMethod    string
	LegalBasis            policy.LegalBasis
	RegulatoryRequirement string
	DeletionReason        string
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		log:   slog.Default().With("component", "certificate.service"),
		now:   time.Now,
	}
}

// Issue mints a certificate for one completed erasure. The certificate
// number is globally unique; the signature covers the number and the
// verification hash so neither can be swapped without detection.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*SecureDeletionCertificate, error) {
	if req.VerificationHash == "" {
		return nil, fmt.Errorf("issue certificate for lifecycle record %s: verification hash is empty", req.LifecycleRecordID)
	}

	recordCount := req.RecordCount
	if recordCount < 1 {
		recordCount = 1
	}

	issuedAt := s.now()
	number := certificateNumber(issuedAt)
	cert := &SecureDeletionCertificate{
		ID:                    uuid.NewString(),
		CertificateNumber:     number,
		OrganisationID:        req.OrganisationID,
		LifecycleRecordID:     req.LifecycleRecordID,
		ResourceTable:         req.ResourceTable,
		ResourceID:            req.ResourceID,
		UserID:                req.UserID,
		DataType:              req.DataType,
		RecordCount:           recordCount,
		EraseMethod:           req.EraseMethod,
		ErasedAt:              req.ErasedAt,
		VerificationHash:      req.VerificationHash,
		VerificationMethod:    req.VerificationMethod,
		LegalBasis:            req.LegalBasis,
		RegulatoryRequirement: req.RegulatoryRequirement,
		DeletionReason:        req.DeletionReason,
		DigitalSignature:      Sign(number, req.VerificationHash),
		IssuedAt:              issuedAt,
	}

	if err := s.store.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("persist certificate %s: %w", number, err)
	}

	s.log.Info("secure deletion certificate issued",
		"certificateNumber", number,
		"lifecycleRecordId", req.LifecycleRecordID,
		"eraseMethod", req.EraseMethod,
	)
	return cert, nil
}

func (s *Service) Get(ctx context.Context, organisationID, id string) (*SecureDeletionCertificate, error) {
	return s.store.Get(ctx, organisationID, id)
}

func (s *Service) List(ctx context.Context, organisationID string, limit int) ([]SecureDeletionCertificate, error) {
	return s.store.List(ctx, organisationID, limit)
}

// Verify recomputes the signature from the stored fields.
func Verify(cert *SecureDeletionCertificate) bool {
	return cert.DigitalSignature == Sign(cert.CertificateNumber, cert.VerificationHash)
}

func Sign(certificateNumber, verificationHash string) string {
	sum := sha256.Sum256([]byte(certificateNumber + verificationHash))
	return hex.EncodeToString(sum[:])
}

func certificateNumber(issuedAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("SDC-%d-%s", issuedAt.UTC().Year(), suffix)
}
