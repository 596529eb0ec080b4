package records

import (
	cryptoutil "sentra/internal/platform/crypto"
	"sentra/internal/platform/querier"
)

// PostgresSources wires the full dispatch table against Postgres.
func PostgresSources(db querier.Querier, crypto *cryptoutil.Service) (Sources, error) {
	snapshots := snapshotStore{db: db, crypto: crypto}
	return NewSources(
		&userProfileSource{db: db, snapshots: snapshots},
		&courseProgressSource{db: db},
		&certificatesSource{db: db},
		&auditLogsSource{db: db},
		&communicationsSource{db: db, snapshots: snapshots},
	)
}
