// Package credential stores secrets in the operating system keyring,
// falling back to an encrypted file when no system keyring is present.
package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "bodwatch"

// ErrNotFound is returned when no secret is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Well-known keys.
const (
	KeyAIAPIKey = "ai-api-key"
)

// Keyring is a key-value view over a keyring backend.
type Keyring struct {
	ring keyring.Keyring
}

// Open returns a Keyring backed by the system keyring. dir is used by the
// file backend; it defaults to ~/.config/bodwatch/credentials.
func Open(dir string) (*Keyring, error) {
	if dir == "" {
		dir = filepath.Join("~", ".config", serviceName, "credentials")
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// New wraps an existing keyring backend.
func New(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Get retrieves a credential value by key.
func (k *Keyring) Get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (k *Keyring) Set(key string, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. A missing key is not an error.
func (k *Keyring) Delete(key string) error {
	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
