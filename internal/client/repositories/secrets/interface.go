// Package secrets persists sealed secure-store items in SQLite. Values are
// opaque ciphertext to this layer; sealing happens in securestore.
package secrets

import (
	"context"
	"time"
)

// Item is one sealed secret.
type Item struct {
	Key        string
	Ciphertext []byte
	Nonce      []byte
	UpdatedAt  time.Time
}

// Repository stores sealed items by key. Get returns common.ErrNotFound for
// an absent key.
type Repository interface {
	Get(ctx context.Context, key string) (*Item, error)
	Set(ctx context.Context, item *Item) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error

	// GetSalt and SetSalt hold the per-database key-derivation salt.
	GetSalt(ctx context.Context) ([]byte, error)
	SetSalt(ctx context.Context, salt []byte) error
}
