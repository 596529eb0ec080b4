package records

import (
	"context"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

// auditLogsSource governs platform audit events. Audit data is flagged
// rather than rewritten on soft delete; erasure typically runs under a
// legal_obligation policy without automatic deletion.
type auditLogsSource struct {
	db querier.Querier
}

func (s *auditLogsSource) DataType() policy.DataType { return policy.DataTypeAuditLogs }
func (s *auditLogsSource) ResourceTable() string     { return "audit_logs" }

func (s *auditLogsSource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, organisation_id, COALESCE(actor_user_id::text, ''), created_at
    FROM audit_logs
    WHERE organisation_id = $1
      AND created_at < $2
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

func (s *auditLogsSource) Count(ctx context.Context, organisationID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(1) FROM audit_logs WHERE organisation_id = $1
  `, organisationID).Scan(&count)
	return count, err
}

func (s *auditLogsSource) SoftDelete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE audit_logs
    SET retention_flagged_at = now()
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *auditLogsSource) Restore(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE audit_logs
    SET retention_flagged_at = NULL
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *auditLogsSource) Overwrite(ctx context.Context, e Entity, pass int) error {
	_, err := s.db.Exec(ctx, `
    UPDATE audit_logs
    SET actor_user_id = NULL, ip = $1, detail_json = NULL
    WHERE organisation_id = $2 AND id = $3
  `, randomHex(8), e.OrganisationID, e.ResourceID)
	return err
}

func (s *auditLogsSource) Delete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM audit_logs WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}
