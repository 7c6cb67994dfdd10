package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/crackr/internal/errors"
)

// Entry describes a stored key without its value.
type Entry struct {
	Key       string `json:"key"`
	Size      int    `json:"size"`
	UpdatedAt int64  `json:"updated_at"`
}

// GetValue returns the blob stored at key. ok is false if the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return value, true, nil
}

// PutValue inserts or replaces the blob at key.
func PutValue(ctx context.Context, db *sql.DB, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteValue removes key. Returns NOT_FOUND if it did not exist.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("key", key)
	}
	return nil
}

// ListEntries returns every stored key ordered by name.
func ListEntries(ctx context.Context, db *sql.DB) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, length(value), updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Size, &e.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// KV adapts a database handle to the kv.Store contract.
type KV struct {
	db *sql.DB
}

// NewKV wraps db as a key-value store.
func NewKV(db *sql.DB) *KV {
	return &KV{db: db}
}

// Load implements kv.Store.
func (s *KV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return GetValue(ctx, s.db, key)
}

// Save implements kv.Store.
func (s *KV) Save(ctx context.Context, key string, blob []byte) error {
	return PutValue(ctx, s.db, key, blob)
}
