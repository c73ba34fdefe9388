package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/dbx"
)

const saltName = "kdf_salt"

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*Item, error) {
	item := &Item{Key: key}
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT ciphertext, nonce, updated_at FROM secrets WHERE key = ?`, key,
	).Scan(&item.Ciphertext, &item.Nonce, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret[%s]: %w", key, err)
	}
	item.UpdatedAt = time.Unix(0, updated).UTC()
	return item, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, item *Item) error {
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secrets (key, ciphertext, nonce, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = excluded.updated_at
	`, item.Key, item.Ciphertext, item.Nonce, item.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set secret[%s]: %w", item.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete secret[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM secrets ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan secret key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate secrets: %w", err)
	}
	return keys, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM secrets`); err != nil {
		return fmt.Errorf("failed to clear secrets: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSalt(ctx context.Context) ([]byte, error) {
	var salt []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE name = ?`, saltName).Scan(&salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}
	return salt, nil
}

func (r *SQLiteRepository) SetSalt(ctx context.Context, salt []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_meta (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, saltName, salt)
	if err != nil {
		return fmt.Errorf("failed to set salt: %w", err)
	}
	return nil
}
