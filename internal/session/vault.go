package session

import (
	"context"
	"errors"
	"sync"

	"github.com/nhle/bod-watchlist/internal/credential"
	"github.com/nhle/bod-watchlist/internal/store"
)

// ErrMissing is returned by a Vault when no value is stored under a key.
var ErrMissing = errors.New("no value stored")

// Vault persists session values across restarts.
type Vault interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KeyringVault keeps session values in the OS keyring.
type KeyringVault struct {
	Ring *credential.Keyring
}

func (v KeyringVault) Get(_ context.Context, key string) (string, error) {
	value, err := v.Ring.Get(key)
	if errors.Is(err, credential.ErrNotFound) {
		return "", ErrMissing
	}
	return value, err
}

func (v KeyringVault) Set(_ context.Context, key, value string) error {
	return v.Ring.Set(key, value)
}

func (v KeyringVault) Delete(_ context.Context, key string) error {
	return v.Ring.Delete(key)
}

// StoreVault keeps session values in the local SQLite key-value table.
type StoreVault struct {
	KV store.KVStore
}

func (v StoreVault) Get(ctx context.Context, key string) (string, error) {
	value, err := v.KV.GetValue(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrMissing
	}
	return value, err
}

func (v StoreVault) Set(ctx context.Context, key, value string) error {
	return v.KV.SetValue(ctx, key, value)
}

func (v StoreVault) Delete(ctx context.Context, key string) error {
	return v.KV.DeleteValue(ctx, key)
}

// MemoryVault keeps values in process memory only.
type MemoryVault struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryVault returns an empty MemoryVault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{values: make(map[string]string)}
}

func (v *MemoryVault) Get(_ context.Context, key string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	value, ok := v.values[key]
	if !ok {
		return "", ErrMissing
	}
	return value, nil
}

func (v *MemoryVault) Set(_ context.Context, key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[key] = value
	return nil
}

func (v *MemoryVault) Delete(_ context.Context, key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, key)
	return nil
}
