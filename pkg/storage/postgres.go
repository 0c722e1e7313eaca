// pkg/storage/postgres.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureDocumentSchema creates the per-tenant document table. Run once per
// pool, right after the pool is opened.
func ensureDocumentSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  account_id text NOT NULL,
  collection text NOT NULL,
  id text NOT NULL,
  doc jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (account_id, collection, id)
);
`)
	return err
}

// pgConn scopes every statement to one account id. The pool behind it is
// shared with every other request hitting the same endpoint.
type pgConn struct {
	pool      *pgxpool.Pool
	accountID string
}

func (c *pgConn) AccountID() string { return c.accountID }

func (c *pgConn) Put(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: marshal %s/%s: %w", collection, id, err)
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO documents (account_id, collection, id, doc)
VALUES ($1, $2, $3, $4)
ON CONFLICT (account_id, collection, id) DO UPDATE SET doc = $4, updated_at = NOW()`,
		c.accountID, collection, id, raw)
	if err != nil {
		return fmt.Errorf("storage: put %s/%s: %w", collection, id, ErrUnreachable)
	}
	return nil
}

func (c *pgConn) Get(ctx context.Context, collection, id string, dest any) error {
	var raw []byte
	err := c.pool.QueryRow(ctx, `
SELECT doc FROM documents WHERE account_id = $1 AND collection = $2 AND id = $3`,
		c.accountID, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoDocument
	}
	if err != nil {
		return fmt.Errorf("storage: get %s/%s: %w", collection, id, ErrUnreachable)
	}
	return json.Unmarshal(raw, dest)
}

func (c *pgConn) List(ctx context.Context, collection string, dest any) error {
	rows, err := c.pool.Query(ctx, `
SELECT doc FROM documents WHERE account_id = $1 AND collection = $2 ORDER BY id`,
		c.accountID, collection)
	if err != nil {
		return fmt.Errorf("storage: list %s: %w", collection, ErrUnreachable)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("storage: list %s: %w", collection, ErrUnreachable)
		}
		docs = append(docs, raw)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("storage: list %s: %w", collection, ErrUnreachable)
	}
	return unmarshalDocs(docs, dest)
}

func (c *pgConn) Delete(ctx context.Context, collection, id string) error {
	tag, err := c.pool.Exec(ctx, `
DELETE FROM documents WHERE account_id = $1 AND collection = $2 AND id = $3`,
		c.accountID, collection, id)
	if err != nil {
		return fmt.Errorf("storage: delete %s/%s: %w", collection, id, ErrUnreachable)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoDocument
	}
	return nil
}

func (c *pgConn) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return ErrUnreachable
	}
	return nil
}

// unmarshalDocs decodes a set of raw documents into dest, which must be a
// pointer to a slice.
func unmarshalDocs(docs []json.RawMessage, dest any) error {
	arr, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(arr, dest)
}
