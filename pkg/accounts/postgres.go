// pkg/accounts/postgres.go
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resdex/pkg/problems"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) *PostgresStore {
	return &PostgresStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accounts (
  id text PRIMARY KEY,
  salt bytea NOT NULL,
  endpoint text NOT NULL DEFAULT '',
  storage_url text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  created_by uuid,
  deleted_at timestamptz,
  deleted_by uuid
);
CREATE TABLE IF NOT EXISTS account_access (
  user_id uuid NOT NULL,
  account_id text NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  granted_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (user_id, account_id)
);
`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	row := s.dbPool.QueryRow(ctx, `
SELECT id, salt, endpoint, storage_url, created_at, created_by, deleted_at, deleted_by
FROM accounts WHERE id = $1`, id)

	var (
		a          Account
		storageURL *string
		createdBy  *uuid.UUID
	)
	err := row.Scan(&a.id, &a.salt, &a.endpoint, &storageURL, &a.createdAt, &createdBy, &a.deletedAt, &a.deletedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("accounts: get %q: %w", id, problems.ErrUnavailable)
	}
	if storageURL != nil {
		a.storageURL = *storageURL
	}
	if createdBy != nil {
		a.createdBy = *createdBy
	}
	return a, nil
}

func (s *PostgresStore) Create(ctx context.Context, a Account, by uuid.UUID) error {
	tag, err := s.dbPool.Exec(ctx, `
INSERT INTO accounts (id, salt, endpoint, storage_url, created_by)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
ON CONFLICT (id) DO NOTHING`, a.id, a.salt, a.endpoint, a.storageURL, by)
	if err != nil {
		return fmt.Errorf("accounts: create %q: %w", a.id, problems.ErrUnavailable)
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	rows, err := s.dbPool.Query(ctx, `
SELECT a.id, a.salt, a.endpoint, a.storage_url, a.created_at, a.created_by, a.deleted_at, a.deleted_by
FROM accounts a
JOIN account_access g ON g.account_id = a.id
WHERE g.user_id = $1 AND a.deleted_at IS NULL
ORDER BY a.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", problems.ErrUnavailable)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var (
			a          Account
			storageURL *string
			createdBy  *uuid.UUID
		)
		if err := rows.Scan(&a.id, &a.salt, &a.endpoint, &storageURL, &a.createdAt, &createdBy, &a.deletedAt, &a.deletedBy); err != nil {
			return nil, fmt.Errorf("accounts: list scan: %w", problems.ErrUnavailable)
		}
		if storageURL != nil {
			a.storageURL = *storageURL
		}
		if createdBy != nil {
			a.createdBy = *createdBy
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accounts: list rows: %w", problems.ErrUnavailable)
	}
	return out, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id string, by uuid.UUID) error {
	tag, err := s.dbPool.Exec(ctx, `
UPDATE accounts SET deleted_at = NOW(), deleted_by = $2
WHERE id = $1 AND deleted_at IS NULL`, id, by)
	if err != nil {
		return fmt.Errorf("accounts: delete %q: %w", id, problems.ErrUnavailable)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GrantAccess(ctx context.Context, userID uuid.UUID, accountID string) error {
	_, err := s.dbPool.Exec(ctx, `
INSERT INTO account_access (user_id, account_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, userID, accountID)
	if err != nil {
		return fmt.Errorf("accounts: grant: %w", problems.ErrUnavailable)
	}
	return nil
}

func (s *PostgresStore) HasAccess(ctx context.Context, userID uuid.UUID, accountID string) (bool, error) {
	var one int
	err := s.dbPool.QueryRow(ctx, `
SELECT 1 FROM account_access WHERE user_id = $1 AND account_id = $2`, userID, accountID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("accounts: access check: %w", problems.ErrUnavailable)
	}
	return true, nil
}
