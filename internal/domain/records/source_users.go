package records

import (
	"context"
	"fmt"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

// userProfileSource governs user accounts. Only inactive users are
// eligible; the retention clock runs from last activity.
type userProfileSource struct {
	db        querier.Querier
	snapshots snapshotStore
}

func (s *userProfileSource) DataType() policy.DataType { return policy.DataTypeUserProfile }
func (s *userProfileSource) ResourceTable() string     { return "users" }

func (s *userProfileSource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, organisation_id, COALESCE(last_active_at, created_at)
    FROM users
    WHERE organisation_id = $1
      AND status = 'inactive'
      AND soft_deleted_at IS NULL
      AND COALESCE(last_active_at, created_at) < $2
  `, organisationID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e := Entity{ResourceTable: s.ResourceTable()}
		if err := rows.Scan(&e.ResourceID, &e.OrganisationID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = e.ResourceID
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *userProfileSource) Count(ctx context.Context, organisationID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE organisation_id = $1
  `, organisationID).Scan(&count)
	return count, err
}

func (s *userProfileSource) SoftDelete(ctx context.Context, e Entity) error {
	var email, fullName, phone string
	if err := s.db.QueryRow(ctx, `
    SELECT email, full_name, COALESCE(phone, '')
    FROM users
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID).Scan(&email, &fullName, &phone); err != nil {
		return err
	}
	if err := s.snapshots.save(ctx, s.ResourceTable(), e.ResourceID, map[string]any{
		"email": email, "fullName": fullName, "phone": phone,
	}); err != nil {
		return err
	}

	placeholder := fmt.Sprintf("redacted+%s@redacted.local", e.ResourceID)
	_, err := s.db.Exec(ctx, `
    UPDATE users
    SET email = $1,
        full_name = 'Redacted User',
        phone = NULL,
        status = 'inactive',
        soft_deleted_at = now(),
        updated_at = now()
    WHERE organisation_id = $2 AND id = $3
  `, placeholder, e.OrganisationID, e.ResourceID)
	return err
}

func (s *userProfileSource) Restore(ctx context.Context, e Entity) error {
	fields, err := s.snapshots.load(ctx, s.ResourceTable(), e.ResourceID)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `
    UPDATE users
    SET email = $1,
        full_name = $2,
        phone = NULLIF($3, ''),
        soft_deleted_at = NULL,
        updated_at = now()
    WHERE organisation_id = $4 AND id = $5
  `, stringField(fields, "email"), stringField(fields, "fullName"), stringField(fields, "phone"),
		e.OrganisationID, e.ResourceID); err != nil {
		return err
	}
	return s.snapshots.delete(ctx, s.ResourceTable(), e.ResourceID)
}

func (s *userProfileSource) Overwrite(ctx context.Context, e Entity, pass int) error {
	_, err := s.db.Exec(ctx, `
    UPDATE users
    SET email = $1,
        full_name = $2,
        phone = $3,
        password_hash = $4,
        updated_at = now()
    WHERE organisation_id = $5 AND id = $6
  `, randomHex(16)+"@erased.invalid", randomHex(16), randomHex(8), randomHex(32),
		e.OrganisationID, e.ResourceID)
	return err
}

func (s *userProfileSource) Delete(ctx context.Context, e Entity) error {
	if _, err := s.db.Exec(ctx, `
    DELETE FROM users WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID); err != nil {
		return err
	}
	return s.snapshots.delete(ctx, s.ResourceTable(), e.ResourceID)
}
