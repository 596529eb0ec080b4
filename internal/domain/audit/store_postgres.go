package audit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"sentra/internal/domain/policy"
	"sentra/internal/platform/querier"
)

var ErrAuditNotFound = errors.New("audit snapshot not found")

type PostgresStore struct {
	DB querier.Querier
}

func NewPostgresStore(db querier.Querier) *PostgresStore {
	return &PostgresStore{DB: db}
}

const auditColumns = `
  id, organisation_id, data_type, policy_id,
  total_records, compliant_records, overdue_records, soft_deleted_records,
  erased_records, errored_records, compliance_rate, compliant,
  risk_level, issues, recommendations, audit_duration_ms, audited_at, next_audit_due`

func (s *PostgresStore) Save(ctx context.Context, snapshot *RetentionComplianceAudit) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO retention_compliance_audits
      (id, organisation_id, data_type, policy_id,
       total_records, compliant_records, overdue_records, soft_deleted_records,
       erased_records, errored_records, compliance_rate, compliant,
       risk_level, issues, recommendations, audit_duration_ms, audited_at, next_audit_due)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `, snapshot.ID, snapshot.OrganisationID, string(snapshot.DataType), snapshot.PolicyID,
		snapshot.TotalRecords, snapshot.CompliantRecords, snapshot.OverdueRecords, snapshot.SoftDeletedRecords,
		snapshot.ErasedRecords, snapshot.ErroredRecords, snapshot.ComplianceRate, snapshot.Compliant,
		string(snapshot.RiskLevel), snapshot.Issues, snapshot.Recommendations,
		snapshot.AuditDuration.Milliseconds(), snapshot.AuditedAt, snapshot.NextAuditDue)
	return err
}

func (s *PostgresStore) List(ctx context.Context, organisationID string, limit int) ([]RetentionComplianceAudit, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+auditColumns+`
    FROM retention_compliance_audits
    WHERE organisation_id = $1
    ORDER BY audited_at DESC
    LIMIT $2
  `, organisationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RetentionComplianceAudit
	for rows.Next() {
		snapshot, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snapshot)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, organisationID string, dataType policy.DataType) (*RetentionComplianceAudit, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+auditColumns+`
    FROM retention_compliance_audits
    WHERE organisation_id = $1 AND data_type = $2
    ORDER BY audited_at DESC
    LIMIT 1
  `, organisationID, string(dataType))
	return scanAudit(row)
}

func scanAudit(row pgx.Row) (*RetentionComplianceAudit, error) {
	var snapshot RetentionComplianceAudit
	var durationMs int64
	err := row.Scan(
		&snapshot.ID, &snapshot.OrganisationID, &snapshot.DataType, &snapshot.PolicyID,
		&snapshot.TotalRecords, &snapshot.CompliantRecords, &snapshot.OverdueRecords, &snapshot.SoftDeletedRecords,
		&snapshot.ErasedRecords, &snapshot.ErroredRecords, &snapshot.ComplianceRate, &snapshot.Compliant,
		&snapshot.RiskLevel, &snapshot.Issues, &snapshot.Recommendations,
		&durationMs, &snapshot.AuditedAt, &snapshot.NextAuditDue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, err
	}
	snapshot.AuditDuration = time.Duration(durationMs) * time.Millisecond
	return &snapshot, nil
}
