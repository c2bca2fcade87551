package auth

import "sync"

// MemoryStore is an in-process PasswordStore for tests
type MemoryStore struct {
	mu        sync.Mutex
	passwords map[string]string
	// FailStore makes Store return ErrStoreUnavailable
	FailStore bool
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{passwords: make(map[string]string)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Store(email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailStore {
		return ErrStoreUnavailable
	}
	m.passwords[email] = password
	return nil
}

func (m *MemoryStore) Retrieve(email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passwords[email]
	if !ok {
		return "", ErrCredentialsNotFound
	}
	return p, nil
}

func (m *MemoryStore) Delete(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.passwords[email]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.passwords, email)
	return nil
}
