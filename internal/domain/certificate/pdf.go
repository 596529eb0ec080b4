package certificate

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF produces the downloadable certificate document.
func RenderPDF(cert *SecureDeletionCertificate) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Certificate of Secure Deletion")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Certificate number: %s", cert.CertificateNumber))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Resource: %s/%s", cert.ResourceTable, cert.ResourceID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Data type: %s", cert.DataType))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Records covered: %d", cert.RecordCount))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Erase method: %s", cert.EraseMethod))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Legal basis: %s", cert.LegalBasis))
	pdf.Ln(7)
	if cert.RegulatoryRequirement != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Regulatory requirement: %s", cert.RegulatoryRequirement))
		pdf.Ln(7)
	}
	if cert.DeletionReason != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Deletion reason: %s", cert.DeletionReason))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Erased at: %s", cert.ErasedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Issued at: %s", cert.IssuedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Verification")
	pdf.Ln(8)
	pdf.SetFont("Courier", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Method:    %s", cert.VerificationMethod))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Hash:      %s", cert.VerificationHash))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Signature: %s", cert.DigitalSignature))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
