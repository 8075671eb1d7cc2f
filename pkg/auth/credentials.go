package auth

import (
	"errors"
	"os"
)

// Account is a remote reservation account identity. The openid is what the
// saveYuyue endpoint uses to attribute a booking.
type Account struct {
	Name   string `json:"name"`
	OpenID string `json:"open_id"`
}

// CredentialStore stores and retrieves remote account identities.
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrCredentialsNotFound = errors.New("credentials not found")
)

// Manager resolves credentials through a chain of stores: system keychain
// first, environment as last resort.
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available backends.
func NewManager() *Manager {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}
}

// Store saves an account using the first store that accepts it.
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Name == "" || account.OpenID == "" {
		return ErrInvalidCredentials
	}

	var lastErr error
	for _, s := range m.stores {
		if err := s.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// Retrieve returns the first account found across the stores.
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, s := range m.stores {
		if account, err := s.Retrieve(name); err == nil {
			return account, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Delete removes the account from every store that has it.
func (m *Manager) Delete(name string) error {
	deleted := false
	for _, s := range m.stores {
		if s.Exists(name) {
			if err := s.Delete(name); err != nil {
				return err
			}
			deleted = true
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// DefaultOpenID resolves the default booking account id: stored credential
// first, then the configured fallback.
func (m *Manager) DefaultOpenID(configured string) string {
	if account, err := m.Retrieve(defaultAccountName); err == nil && account.OpenID != "" {
		return account.OpenID
	}
	return configured
}

const defaultAccountName = "default"

// EnvironmentStore reads the default account from the environment. It cannot
// persist anything; CI and containers use it.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Account) error {
	return errors.New("environment store is read-only")
}

func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != defaultAccountName {
		return nil, ErrCredentialsNotFound
	}
	openID := os.Getenv("GYMRESERVE_DEFAULT_OPENID")
	if openID == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Account{Name: name, OpenID: openID}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return errors.New("environment store is read-only")
}

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
