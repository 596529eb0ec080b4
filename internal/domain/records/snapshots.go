package records

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	cryptoutil "sentra/internal/platform/crypto"
	"sentra/internal/platform/querier"
)

var errNoSnapshot = errors.New("no soft-delete snapshot for resource")

// snapshotStore keeps the pre-soft-delete field values, encrypted under the
// platform master key, so a soft delete stays reversible during the grace
// period. Erasure removes the snapshot together with the entity.
type snapshotStore struct {
	db     querier.Querier
	crypto *cryptoutil.Service
}

func (s snapshotStore) save(ctx context.Context, resourceTable, resourceID string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	enc, err := s.crypto.Encrypt(payload)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
    INSERT INTO softdelete_snapshots (resource_table, resource_id, snapshot_enc)
    VALUES ($1, $2, $3)
    ON CONFLICT (resource_table, resource_id) DO UPDATE SET snapshot_enc = EXCLUDED.snapshot_enc
  `, resourceTable, resourceID, enc)
	return err
}

func (s snapshotStore) load(ctx context.Context, resourceTable, resourceID string) (map[string]any, error) {
	var enc []byte
	err := s.db.QueryRow(ctx, `
    SELECT snapshot_enc FROM softdelete_snapshots
    WHERE resource_table = $1 AND resource_id = $2
  `, resourceTable, resourceID).Scan(&enc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	payload, err := s.crypto.Decrypt(enc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (s snapshotStore) delete(ctx context.Context, resourceTable, resourceID string) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM softdelete_snapshots
    WHERE resource_table = $1 AND resource_id = $2
  `, resourceTable, resourceID)
	return err
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
