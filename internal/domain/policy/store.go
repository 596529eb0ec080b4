package policy

import "context"

// Store is the engine's read-only view of the policy table. Policies are
// created and edited by administrators outside the engine.
type Store interface {
	ListActive(ctx context.Context, organisationID string) ([]RetentionPolicy, error)
	ListByDataType(ctx context.Context, organisationID string, dataType DataType) ([]RetentionPolicy, error)
}
