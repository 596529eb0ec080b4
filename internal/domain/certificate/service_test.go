package certificate

import (
	"context"
	"strings"
	"testing"
	"time"

	"sentra/internal/domain/policy"
)

func testRequest() IssueRequest {
	return IssueRequest{
		OrganisationID:        "org-1",
		LifecycleRecordID:     "rec-1",
		ResourceTable:         "communications",
		ResourceID:            "c1",
		UserID:                "user-1",
		DataType:              policy.DataTypeCommunications,
		RecordCount:           1,
		EraseMethod:           policy.EraseOverwriteMultiple,
		ErasedAt:              time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		VerificationHash:      strings.Repeat("ab", 32),
		VerificationMethod:    "sha256(resource_table+resource_id+erase_started_at)",
		LegalBasis:            policy.LegalBasisLegitimateInterest,
		RegulatoryRequirement: "statutory audit trail retention",
		DeletionReason:        "retention_period_expired",
	}
}

func TestIssueMintsVerifiableCertificate(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)

	cert, err := svc.Issue(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !strings.HasPrefix(cert.CertificateNumber, "SDC-") {
		t.Fatalf("certificate number = %q, want SDC prefix", cert.CertificateNumber)
	}
	if !Verify(cert) {
		t.Fatal("freshly issued certificate must verify")
	}
	if cert.RecordCount != 1 || cert.UserID != "user-1" {
		t.Fatalf("cert = %+v, recordCount and userId must be carried", cert)
	}
	if cert.LegalBasis != policy.LegalBasisLegitimateInterest ||
		cert.RegulatoryRequirement != "statutory audit trail retention" ||
		cert.DeletionReason != "retention_period_expired" ||
		cert.VerificationMethod == "" {
		t.Fatalf("cert = %+v, attestation fields must be carried", cert)
	}

	stored, err := store.Get(context.Background(), "org-1", cert.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.DigitalSignature != cert.DigitalSignature {
		t.Fatal("stored certificate differs from issued one")
	}
}

func TestIssueDefaultsRecordCountToOne(t *testing.T) {
	svc := NewService(NewMemoryStore())
	req := testRequest()
	req.RecordCount = 0
	cert, err := svc.Issue(context.Background(), req)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if cert.RecordCount != 1 {
		t.Fatalf("recordCount = %d, want 1", cert.RecordCount)
	}
}

func TestIssueRejectsEmptyVerificationHash(t *testing.T) {
	svc := NewService(NewMemoryStore())
	req := testRequest()
	req.VerificationHash = ""
	if _, err := svc.Issue(context.Background(), req); err == nil {
		t.Fatal("Issue must reject an empty verification hash")
	}
}

func TestCertificateNumbersAreUnique(t *testing.T) {
	svc := NewService(NewMemoryStore())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		cert, err := svc.Issue(context.Background(), testRequest())
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if seen[cert.CertificateNumber] {
			t.Fatalf("duplicate certificate number %q", cert.CertificateNumber)
		}
		seen[cert.CertificateNumber] = true
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	svc := NewService(NewMemoryStore())
	cert, err := svc.Issue(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := *cert
	tampered.VerificationHash = strings.Repeat("cd", 32)
	if Verify(&tampered) {
		t.Fatal("tampered verification hash must fail verification")
	}
	tampered = *cert
	tampered.CertificateNumber = "SDC-2026-FORGEDFORGED"
	if Verify(&tampered) {
		t.Fatal("swapped certificate number must fail verification")
	}
}

func TestMemoryStoreScopesByOrganisation(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	cert, err := svc.Issue(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := store.Get(context.Background(), "org-2", cert.ID); err == nil {
		t.Fatal("certificate must not be visible to another organisation")
	}
}

func TestRenderPDFProducesDocument(t *testing.T) {
	svc := NewService(NewMemoryStore())
	cert, err := svc.Issue(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	pdf, err := RenderPDF(cert)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if len(pdf) == 0 || !strings.HasPrefix(string(pdf[:5]), "%PDF-") {
		t.Fatalf("output does not look like a PDF (%d bytes)", len(pdf))
	}
}
