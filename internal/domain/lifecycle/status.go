package lifecycle

import (
	"context"
	"time"
)

// EngineStatus is the monitoring projection the status endpoint serves.
type EngineStatus struct {
	ScanInProgress bool        `json:"scanInProgress"`
	LastScan       *ScanResult `json:"lastScan,omitempty"`
	PendingRecords int         `json:"pendingRecords"`
	OverdueRecords int         `json:"overdueRecords"`
	GeneratedAt    time.Time   `json:"generatedAt"`
	OrganisationID string      `json:"organisationId"`
}

func (o *Orchestrator) Status(ctx context.Context, organisationID string) (*EngineStatus, error) {
	now := o.now()
	pending, overdue, err := o.store.PendingCounts(ctx, organisationID, now)
	if err != nil {
		return nil, err
	}
	return &EngineStatus{
		ScanInProgress: o.ScanInProgress(),
		LastScan:       o.LastScan(),
		PendingRecords: pending,
		OverdueRecords: overdue,
		GeneratedAt:    now,
		OrganisationID: organisationID,
	}, nil
}
