package sqlite

import (
	"context"
	"database/sql"
)

// KVRepo is a durable key/value store for JSON blobs (quota snapshots,
// engine settings).
type KVRepo struct{ *Repo }

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{NewRepo(db)} }

// Get returns "" without error when the key has never been written.
func (r *KVRepo) Get(ctx context.Context, key string) (string, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}
