package records

import (
	"context"
	"fmt"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

// communicationsSource governs sent emails and in-app messages. The
// retention clock runs from send time. Bodies are stored encrypted under
// per-record data keys, so cryptographic erasure works at the key level.
type communicationsSource struct {
	db        querier.Querier
	snapshots snapshotStore
}

func (s *communicationsSource) DataType() policy.DataType { return policy.DataTypeCommunications }
func (s *communicationsSource) ResourceTable() string     { return "communications" }

func (s *communicationsSource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, organisation_id, COALESCE(user_id::text, ''), sent_at
    FROM communications
    WHERE organisation_id = $1
      AND sent_at < $2
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

func (s *communicationsSource) Count(ctx context.Context, organisationID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(1) FROM communications WHERE organisation_id = $1
  `, organisationID).Scan(&count)
	return count, err
}

func (s *communicationsSource) SoftDelete(ctx context.Context, e Entity) error {
	var recipient, subject string
	if err := s.db.QueryRow(ctx, `
    SELECT recipient, subject
    FROM communications
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID).Scan(&recipient, &subject); err != nil {
		return err
	}
	if err := s.snapshots.save(ctx, s.ResourceTable(), e.ResourceID, map[string]any{
		"recipient": recipient, "subject": subject,
	}); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
    UPDATE communications
    SET recipient = $1,
        subject = 'Redacted communication',
        retention_flagged_at = now()
    WHERE organisation_id = $2 AND id = $3
  `, fmt.Sprintf("redacted+%s@redacted.local", e.ResourceID), e.OrganisationID, e.ResourceID)
	return err
}

func (s *communicationsSource) Restore(ctx context.Context, e Entity) error {
	fields, err := s.snapshots.load(ctx, s.ResourceTable(), e.ResourceID)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `
    UPDATE communications
    SET recipient = $1,
        subject = $2,
        retention_flagged_at = NULL
    WHERE organisation_id = $3 AND id = $4
  `, stringField(fields, "recipient"), stringField(fields, "subject"),
		e.OrganisationID, e.ResourceID); err != nil {
		return err
	}
	return s.snapshots.delete(ctx, s.ResourceTable(), e.ResourceID)
}

func (s *communicationsSource) Overwrite(ctx context.Context, e Entity, pass int) error {
	_, err := s.db.Exec(ctx, `
    UPDATE communications
    SET recipient = $1, subject = $2, body_enc = $3
    WHERE organisation_id = $4 AND id = $5
  `, randomHex(16), randomHex(16), []byte(randomHex(64)), e.OrganisationID, e.ResourceID)
	return err
}

func (s *communicationsSource) Delete(ctx context.Context, e Entity) error {
	if _, err := s.db.Exec(ctx, `
    DELETE FROM communications WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID); err != nil {
		return err
	}
	return s.snapshots.delete(ctx, s.ResourceTable(), e.ResourceID)
}
