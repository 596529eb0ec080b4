package certificate

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"sentra/internal/platform/querier"
)

type PostgresStore struct {
	DB querier.Querier
}

func NewPostgresStore(db querier.Querier) *PostgresStore {
	return &PostgresStore{DB: db}
}

const certColumns = `
  id, certificate_number, organisation_id, lifecycle_record_id,
  resource_table, resource_id, COALESCE(user_id, ''), data_type, record_count,
  erase_method, erased_at, verification_hash, verification_method,
  legal_basis, COALESCE(regulatory_requirement, ''), COALESCE(deletion_reason, ''),
  digital_signature, issued_at`

func (s *PostgresStore) Create(ctx context.Context, cert *SecureDeletionCertificate) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO secure_deletion_certificates
      (id, certificate_number, organisation_id, lifecycle_record_id,
       resource_table, resource_id, user_id, data_type, record_count,
       erase_method, erased_at, verification_hash, verification_method,
       legal_basis, regulatory_requirement, deletion_reason,
       digital_signature, issued_at)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11,$12,$13,$14,NULLIF($15,''),NULLIF($16,''),$17,$18)
  `, cert.ID, cert.CertificateNumber, cert.OrganisationID, cert.LifecycleRecordID,
		cert.ResourceTable, cert.ResourceID, cert.UserID, string(cert.DataType), cert.RecordCount,
		string(cert.EraseMethod), cert.ErasedAt, cert.VerificationHash, cert.VerificationMethod,
		string(cert.LegalBasis), cert.RegulatoryRequirement, cert.DeletionReason,
		cert.DigitalSignature, cert.IssuedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, organisationID, id string) (*SecureDeletionCertificate, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+certColumns+`
    FROM secure_deletion_certificates
    WHERE organisation_id = $1 AND id = $2
  `, organisationID, id)
	return scanCert(row)
}

func (s *PostgresStore) GetByNumber(ctx context.Context, certificateNumber string) (*SecureDeletionCertificate, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+certColumns+`
    FROM secure_deletion_certificates
    WHERE certificate_number = $1
  `, certificateNumber)
	return scanCert(row)
}

func (s *PostgresStore) List(ctx context.Context, organisationID string, limit int) ([]SecureDeletionCertificate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+certColumns+`
    FROM secure_deletion_certificates
    WHERE organisation_id = $1
    ORDER BY issued_at DESC
    LIMIT $2
  `, organisationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SecureDeletionCertificate
	for rows.Next() {
		cert, err := scanCert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cert)
	}
	return out, rows.Err()
}

func scanCert(row pgx.Row) (*SecureDeletionCertificate, error) {
	var cert SecureDeletionCertificate
	err := row.Scan(
		&cert.ID, &cert.CertificateNumber, &cert.OrganisationID, &cert.LifecycleRecordID,
		&cert.ResourceTable, &cert.ResourceID, &cert.UserID, &cert.DataType, &cert.RecordCount,
		&cert.EraseMethod, &cert.ErasedAt, &cert.VerificationHash, &cert.VerificationMethod,
		&cert.LegalBasis, &cert.RegulatoryRequirement, &cert.DeletionReason,
		&cert.DigitalSignature, &cert.IssuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
