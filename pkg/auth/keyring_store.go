package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "tcphotos"

// KeyringStore keeps passwords in the system keychain, keyed by email
type KeyringStore struct{}

// NewKeyringStore returns a keyring store if the system keyring is reachable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Name() string { return "system keyring" }

// Store saves the password to the system keychain
func (k *KeyringStore) Store(email, password string) error {
	if email == "" {
		return ErrInvalidCredentials
	}
	if err := keyring.Set(keyringService, email, password); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve reads the password from the system keychain
func (k *KeyringStore) Retrieve(email string) (string, error) {
	password, err := keyring.Get(keyringService, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrCredentialsNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return password, nil
}

// Delete removes the password from the system keychain
func (k *KeyringStore) Delete(email string) error {
	err := keyring.Delete(keyringService, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	return err
}
