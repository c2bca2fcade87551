package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// PasswordStore persists the portal password for a login email
type PasswordStore interface {
	// Name identifies the backend in status output
	Name() string
	Store(email, password string) error
	Retrieve(email string) (string, error)
	Delete(email string) error
}

// Manager tries each store in order: the system keyring first, then an
// encrypted file.
type Manager struct {
	stores []PasswordStore
}

// NewManager creates a manager with whichever backends are available
func NewManager() (*Manager, error) {
	var stores []PasswordStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	fileStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fileStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores
func NewManagerWithStores(stores ...PasswordStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the password in the first store that accepts it and returns
// that store's name.
func (m *Manager) Store(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(email, password); err != nil {
			lastErr = err
			continue
		}
		return store.Name(), nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return "", ErrStoreUnavailable
}

// Retrieve returns the password from the first store that has it
func (m *Manager) Retrieve(email string) (string, string, error) {
	for _, store := range m.stores {
		if password, err := store.Retrieve(email); err == nil && password != "" {
			return password, store.Name(), nil
		}
	}
	return "", "", fmt.Errorf("%w for %s", ErrCredentialsNotFound, email)
}

// Delete removes the password from every store
func (m *Manager) Delete(email string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(email); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w for %s", ErrCredentialsNotFound, email)
	}
	return nil
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "tcphotos")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "tcphotos")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "tcphotos")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "tcphotos")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// MaskEmail hides most of the local part of an email address
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	switch {
	case at < 0:
		return "***"
	case at == 0:
		return "***" + email
	default:
		return email[:1] + "***" + email[at:]
	}
}
