package records

import (
	"context"
	"time"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

// courseProgressSource governs completed course progress rows. The
// retention clock runs from completion. Progress is structural data, so
// soft deletion flags rather than rewrites it.
type courseProgressSource struct {
	db querier.Querier
}

func (s *courseProgressSource) DataType() policy.DataType { return policy.DataTypeCourseProgress }
func (s *courseProgressSource) ResourceTable() string     { return "course_progress" }

func (s *courseProgressSource) ListEligible(ctx context.Context, organisationID string, cutoff time.Time) ([]Entity, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, organisation_id, user_id, completed_at
    FROM course_progress
    WHERE organisation_id = $1
      AND completed_at IS NOT NULL
      AND completed_at < $2
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

func (s *courseProgressSource) Count(ctx context.Context, organisationID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(1) FROM course_progress WHERE organisation_id = $1
  `, organisationID).Scan(&count)
	return count, err
}

func (s *courseProgressSource) SoftDelete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE course_progress
    SET retention_flagged_at = now()
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *courseProgressSource) Restore(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    UPDATE course_progress
    SET retention_flagged_at = NULL
    WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}

func (s *courseProgressSource) Overwrite(ctx context.Context, e Entity, pass int) error {
	_, err := s.db.Exec(ctx, `
    UPDATE course_progress
    SET notes = $1, score = NULL
    WHERE organisation_id = $2 AND id = $3
  `, randomHex(32), e.OrganisationID, e.ResourceID)
	return err
}

func (s *courseProgressSource) Delete(ctx context.Context, e Entity) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM course_progress WHERE organisation_id = $1 AND id = $2
  `, e.OrganisationID, e.ResourceID)
	return err
}
