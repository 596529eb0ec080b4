package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"sentra/internal/platform/querier"
)

var ErrUserNotFound = errors.New("user not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListOrganisationIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM organisations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT id, organisation_id, email, password_hash, role, created_at
    FROM users
    WHERE email = $1 AND soft_deleted_at IS NULL
  `, email).Scan(&u.ID, &u.OrganisationID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
