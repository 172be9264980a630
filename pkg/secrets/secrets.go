// Package secrets keeps the Postgres connection string used by the import
// command out of config files. Stores are tried in order: the system
// keyring, an encrypted file, then the environment.
package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultName is the secret used when no profile is given
const DefaultName = "default"

// Secret is a named connection string
type Secret struct {
	Name         string    `json:"name"`
	Value        string    `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

// Store is one backend for secrets
type Store interface {
	Set(s *Secret) error
	Get(name string) (*Secret, error)
	Delete(name string) error
	// Kind names the backend in user-facing output
	Kind() string
}

// Errors
var (
	ErrNotFound         = errors.New("secret not found")
	ErrInvalidSecret    = errors.New("invalid secret")
	ErrStoreUnavailable = errors.New("secret store unavailable")
)

// Manager reads from and writes to a chain of stores
type Manager struct {
	stores []Store
}

// NewManager builds the default chain: keyring (when usable), an encrypted
// file under dir, and the environment.
func NewManager(dir string) (*Manager, error) {
	var stores []Store

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	fs, err := NewEncryptedFileStore(filepath.Join(dir, "secrets.enc"), filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fs, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores uses the given chain as is
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Set saves value under name in the first store that accepts it and
// reports which store that was.
func (m *Manager) Set(name, value string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	if value == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidSecret)
	}
	s := &Secret{Name: name, Value: value, LastModified: time.Now()}

	var lastErr error
	for _, store := range m.stores {
		err := store.Set(s)
		if err == nil {
			return store.Kind(), nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("failed to store secret: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Get returns the secret from the first store holding it
func (m *Manager) Get(name string) (*Secret, string, error) {
	if name == "" {
		name = DefaultName
	}
	for _, store := range m.stores {
		if s, err := store.Get(name); err == nil && s != nil {
			return s, store.Kind(), nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Delete removes name from every writable store
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// ResolveDSN prefers an explicitly configured URL over stored secrets
func (m *Manager) ResolveDSN(configured, name string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	s, _, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// Mask hides the password of a connection URL
func Mask(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return maskString(dsn)
	}
	return u.Redacted()
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// ConfigDir returns the per-user directory for paperharvest state
func ConfigDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "paperharvest")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "paperharvest")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "paperharvest")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "paperharvest")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
