package policy

import (
	"context"
	"errors"
)

// ErrUngoverned signals that no enabled policy governs the data type.
// Callers skip the data type; this is not a failure.
var ErrUngoverned = errors.New("no enabled retention policy for data type")

// Resolver picks the single effective policy for (organisation, data type).
//
// Selection order:
//  1. any policy with legal_obligation basis beats every non-legal policy
//     regardless of priority, since statutory retention duties cannot be
//     shortened by a business policy;
//  2. otherwise the highest priority integer wins;
//  3. ties break on the lowest policy ID, so resolution is deterministic
//     across storage engines.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Effective(ctx context.Context, organisationID string, dataType DataType) (*RetentionPolicy, error) {
	policies, err := r.store.ListByDataType(ctx, organisationID, dataType)
	if err != nil {
		return nil, err
	}

	var enabled []RetentionPolicy
	for _, p := range policies {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrUngoverned
	}
	if len(enabled) == 1 {
		return &enabled[0], nil
	}

	var legal []RetentionPolicy
	for _, p := range enabled {
		if p.LegalBasis == LegalBasisLegalObligation {
			legal = append(legal, p)
		}
	}
	if len(legal) > 0 {
		enabled = legal
	}

	best := enabled[0]
	for _, p := range enabled[1:] {
		if p.Priority > best.Priority {
			best = p
			continue
		}
		if p.Priority == best.Priority && p.ID < best.ID {
			best = p
		}
	}
	return &best, nil
}
