package records

import (
	"context"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

// certificatesSource governs issued training certificates. Only expired
// certificates are eligible; the retention clock runs from issuance.
type certificatesSource struct {
	db querier.Querier
}

func (s *certificatesSource) DataType() policy.DataType { return policy.DataTypeCertificates }
func (s *certificatesSource) ResourceTable() string     { return "issued_certificates" }

func (s *certificatesSource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, organisation_id, user_id, issued_at
    FROM issued_certificates
    WHERE organisation_id = $1
      AND expires_at IS NOT NULL
      AND expires_at < now()
      AND issued_at < $2
      AND retention_flagged_at IS NULL
  `, organisationID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e := Entity{ResourceTable: s.ResourceTable()}
		if err := rows.Scan(&e.ResourceID, &e.OrganisationID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *certificatesSource) Count(ctx context.Context, organisationID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(1) FROM issued_certificates WHERE organisation_id = $1
  `, organisationID).Scan(&count)
	return count, err
}

func (s *certificatesSource) SoftDelete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE issued_certificates
    SET retention_flagged_at = now()
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *certificatesSource) Restore(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE issued_certificates
    SET retention_flagged_at = NULL
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *certificatesSource) Overwrite(ctx context.Context, e Entity, pass int) error {
	_, err := s.db.Exec(ctx, `
    UPDATE issued_certificates
    SET recipient_name = $1, verification_code = $2
    WHERE organisation_id = $3 AND id = $4
  `, randomHex(16), randomHex(16), e.OrganisationID, e.ResourceID)
	return err
}

func (s *certificatesSource) Delete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM issued_certificates WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}
