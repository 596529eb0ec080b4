package policy

import (
	"context"

	"sentra/internal/platform/querier"
)

type PostgresStore struct {
	DB querier.Querier
}

func NewPostgresStore(db querier.Querier) *PostgresStore {
	return &PostgresStore{DB: db}
}

const policyColumns = `
  id, organisation_id, data_type, retention_period_days, grace_period_days,
  priority, legal_basis, COALESCE(regulatory_requirement, ''), automatic_deletion,
  deletion_method, secure_erase_method, enabled, created_at`

func (s *PostgresStore) ListActive(ctx context.Context, organisationID string) ([]RetentionPolicy, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+policyColumns+`
    FROM retention_policies
    WHERE organisation_id = $1 AND enabled = true
    ORDER BY data_type, priority DESC, id
  `, organisationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (s *PostgresStore) ListByDataType(ctx context.Context, organisationID string, dataType DataType) ([]RetentionPolicy, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+policyColumns+`
    FROM retention_policies
    WHERE organisation_id = $1 AND data_type = $2
    ORDER BY priority DESC, id
  `, organisationID, string(dataType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPolicies(rows rowScanner) ([]RetentionPolicy, error) {
	var policies []RetentionPolicy
	for rows.Next() {
		var p RetentionPolicy
		if err := rows.Scan(
			&p.ID, &p.OrganisationID, &p.DataType, &p.RetentionPeriodDays, &p.GracePeriodDays,
			&p.Priority, &p.LegalBasis, &p.RegulatoryRequirement, &p.AutomaticDeletion,
			&p.DeletionMethod, &p.SecureEraseMethod, &p.Enabled, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}
