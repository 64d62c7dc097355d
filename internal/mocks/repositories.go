package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/playbook-access-api/internal/models"
	"github.com/playbook-access-api/internal/repository"
)

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	mu    sync.Mutex
	Users map[string]*models.User

	CreateFunc          func(ctx context.Context, user *models.User) error
	UpdatePromocodeFunc func(ctx context.Context, id, promocode string) error
}

// Verify interface compliance
var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.Users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *MockUserRepository) UpdatePromocode(ctx context.Context, id, promocode string) error {
	if m.UpdatePromocodeFunc != nil {
		return m.UpdatePromocodeFunc(ctx, id, promocode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Promocode = promocode
	return nil
}

// MockContentRepository is an in-memory implementation of
// ContentRepository keyed by user id and key
type MockContentRepository struct {
	mu      sync.Mutex
	Entries map[string]map[string]string

	SetFunc func(ctx context.Context, userID, key, value string) error
}

// Verify interface compliance
var _ repository.ContentRepository = (*MockContentRepository)(nil)

func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{
		Entries: make(map[string]map[string]string),
	}
}

func (m *MockContentRepository) Get(ctx context.Context, userID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.Entries[userID][key]
	return value, ok, nil
}

func (m *MockContentRepository) Set(ctx context.Context, userID, key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, userID, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Entries[userID] == nil {
		m.Entries[userID] = make(map[string]string)
	}
	m.Entries[userID][key] = value
	return nil
}

func (m *MockContentRepository) CountLike(ctx context.Context, userID, pattern string) (int, error) {
	keys, err := m.ListKeys(ctx, userID, pattern)
	return len(keys), err
}

func (m *MockContentRepository) ListKeys(ctx context.Context, userID, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for key := range m.Entries[userID] {
		if matchLike(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// matchLike supports the single-wildcard LIKE patterns the content
// service uses (prefix%suffix).
func matchLike(pattern, key string) bool {
	parts := strings.SplitN(pattern, "%", 2)
	if len(parts) == 1 {
		return pattern == key
	}
	return strings.HasPrefix(key, parts[0]) &&
		strings.HasSuffix(key, parts[1]) &&
		len(key) >= len(parts[0])+len(parts[1])
}
