package audit

import (
	"context"

	"sentra/internal/domain/policy"
)

type Store interface {
	Save(ctx context.Context, snapshot *RetentionComplianceAudit) error
	List(ctx context.Context, organisationID string, limit int) ([]RetentionComplianceAudit, error)
	Latest(ctx context.Context, organisationID string, dataType policy.DataType) (*RetentionComplianceAudit, error)
}
