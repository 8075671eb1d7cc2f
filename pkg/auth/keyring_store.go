package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "gymreserve"
	keyringPrefix  = "account_"
)

// KeyringStore implements CredentialStore using the system keychain.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based credential store. It probes the
// keychain once; headless hosts without one fall through to the next store.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves an account to the system keychain.
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+account.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve gets an account from the system keychain.
func (k *KeyringStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// Delete removes an account from the system keychain.
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks whether an account is stored.
func (k *KeyringStore) Exists(name string) bool {
	_, err := k.Retrieve(name)
	return err == nil
}
