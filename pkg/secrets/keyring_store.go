package secrets

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "paperharvest"
	keyringPrefix  = "dsn_"
)

// KeyringStore keeps secrets in the system keychain
type KeyringStore struct{}

// NewKeyringStore probes the keychain and fails if it cannot be written
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "availability_probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Kind() string { return "keyring" }

func (k *KeyringStore) Set(s *Secret) error {
	if s == nil || s.Name == "" {
		return ErrInvalidSecret
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal secret: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+s.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Get(name string) (*Secret, error) {
	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	var s Secret
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to decode keyring entry: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Delete(name string) error {
	err := keyring.Delete(keyringService, keyringPrefix+name)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
