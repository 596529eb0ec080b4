package crypto

import (
	"context"
	"crypto/rand"
	"errors"
	"io"

	"github.com/jackc/pgx/v5"

	"sentra/internal/platform/querier"
)

var ErrNoKey = errors.New("no data key for resource")

// KeyStore manages per-resource data keys wrapped under the master key.
// Destroying a key renders the resource's encrypted content unrecoverable,
// which is what cryptographic erasure relies on.
type KeyStore struct {
	DB     querier.Querier
	Master *Service
}

func NewKeyStore(db querier.Querier, master *Service) *KeyStore {
	return &KeyStore{DB: db, Master: master}
}

func (k *KeyStore) CreateKey(ctx context.Context, resourceTable, resourceID string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	wrapped, err := k.Master.Encrypt(key)
	if err != nil {
		return nil, err
	}
	if _, err := k.DB.Exec(ctx, `
    INSERT INTO entity_keys (resource_table, resource_id, key_enc)
    VALUES ($1, $2, $3)
    ON CONFLICT (resource_table, resource_id) DO NOTHING
  `, resourceTable, resourceID, wrapped); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *KeyStore) Key(ctx context.Context, resourceTable, resourceID string) ([]byte, error) {
	var wrapped []byte
	err := k.DB.QueryRow(ctx, `
    SELECT key_enc FROM entity_keys
    WHERE resource_table = $1 AND resource_id = $2
  `, resourceTable, resourceID).Scan(&wrapped)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return k.Master.Decrypt(wrapped)
}

// DestroyKey deletes the wrapped data key. Returns false when no key
// exists, in which case the caller must fall back to overwriting.
func (k *KeyStore) DestroyKey(ctx context.Context, resourceTable, resourceID string) (bool, error) {
	tag, err := k.DB.Exec(ctx, `
    DELETE FROM entity_keys
    WHERE resource_table = $1 AND resource_id = $2
  `, resourceTable, resourceID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
