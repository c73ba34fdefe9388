// Package securestore is the secure credential store: an opaque get/set of
// named secrets (tokens, remembered email, biometric password).
//
// SQLiteStore seals every value with AES-GCM under a key derived from a
// device secret; MemoryStore keeps plaintext in memory and is meant for
// tests and throwaway sessions.
package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/authflow/internal/client/migrations"
	"github.com/dmitrijs2005/authflow/internal/client/repositories/secrets"
	"github.com/dmitrijs2005/authflow/internal/common"
	"github.com/dmitrijs2005/authflow/internal/cryptox"
	"github.com/dmitrijs2005/authflow/internal/dbx"
)

// Store is the credential store capability. Get returns common.ErrNotFound
// when key is absent. SetMany writes all pairs or none.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

const saltSize = 16

// InitDatabase opens the SQLite database at dsn and applies migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type SQLiteStore struct {
	db  *sql.DB
	key []byte
}

// NewSQLiteStore derives the store key from deviceSecret and the database's
// salt, creating the salt on first use.
func NewSQLiteStore(ctx context.Context, db *sql.DB, deviceSecret []byte) (*SQLiteStore, error) {
	if len(deviceSecret) == 0 {
		return nil, errors.New("device secret is empty")
	}

	repo := secrets.NewSQLiteRepository(db)
	salt, err := repo.GetSalt(ctx)
	if errors.Is(err, common.ErrNotFound) {
		salt = common.GenerateRandByteArray(saltSize)
		err = repo.SetSalt(ctx, salt)
	}
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, key: cryptox.DeriveStoreKey(deviceSecret, salt)}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	item, err := secrets.NewSQLiteRepository(s.db).Get(ctx, key)
	if err != nil {
		return "", err
	}

	plain, err := cryptox.Open(s.key, item.Ciphertext, item.Nonce, []byte(key))
	if err != nil {
		return "", fmt.Errorf("failed to open secret[%s]: %w", key, err)
	}
	return string(plain), nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return s.put(ctx, secrets.NewSQLiteRepository(s.db), key, value)
}

func (s *SQLiteStore) SetMany(ctx context.Context, values map[string]string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := secrets.NewSQLiteRepository(tx)
		for _, k := range sortedKeys(values) {
			if err := s.put(ctx, repo, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := secrets.NewSQLiteRepository(tx)
		for _, k := range keys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) put(ctx context.Context, repo secrets.Repository, key, value string) error {
	ct, nonce, err := cryptox.Seal(s.key, []byte(value), []byte(key))
	if err != nil {
		return fmt.Errorf("failed to seal secret[%s]: %w", key, err)
	}
	return repo.Set(ctx, &secrets.Item{Key: key, Ciphertext: ct, Nonce: nonce})
}

// MemoryStore is an in-memory Store, safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
