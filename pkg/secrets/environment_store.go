package secrets

import (
	"os"
	"time"
)

// EnvironmentStore reads PAPERHARVEST_DATABASE_URL, falling back to
// DATABASE_URL. It is read-only and only knows the default secret.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Kind() string { return "environment" }

func (e *EnvironmentStore) Set(*Secret) error { return ErrStoreUnavailable }

func (e *EnvironmentStore) Delete(string) error { return ErrStoreUnavailable }

func (e *EnvironmentStore) Get(name string) (*Secret, error) {
	if name != DefaultName {
		return nil, ErrNotFound
	}
	value := os.Getenv("PAPERHARVEST_DATABASE_URL")
	if value == "" {
		value = os.Getenv("DATABASE_URL")
	}
	if value == "" {
		return nil, ErrNotFound
	}
	return &Secret{Name: name, Value: value, LastModified: time.Now()}, nil
}
