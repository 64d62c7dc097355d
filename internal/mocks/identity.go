package mocks

import (
	"context"
	"sync"

	"github.com/playbook-access-api/internal/identity"
	"github.com/playbook-access-api/internal/models"
)

// MockIdentityProvider is a scriptable identity.Provider. Sessions map
// token strings directly to users.
type MockIdentityProvider struct {
	mu        sync.Mutex
	Sessions  map[string]*models.User
	listeners map[int]identity.ListenerFunc
	nextID    int

	UpdateUserFunc func(ctx context.Context, userID, promocode string) (*models.User, error)
	SignUpFunc     func(ctx context.Context, email, password, promocode string) (*models.Session, error)
	SignInFunc     func(ctx context.Context, email, password string) (*models.Session, error)
}

// Verify interface compliance
var _ identity.Provider = (*MockIdentityProvider)(nil)

func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		Sessions:  make(map[string]*models.User),
		listeners: make(map[int]identity.ListenerFunc),
	}
}

// AddSession registers a token-to-user mapping.
func (m *MockIdentityProvider) AddSession(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions[token] = user
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password, promocode string) (*models.Session, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password, promocode)
	}
	user := &models.User{ID: "mock-" + email, Email: email, Promocode: promocode}
	m.AddSession("token-"+email, user)
	m.Emit(identity.EventSignedIn, user)
	return &models.Session{Token: "token-" + email, User: user}, nil
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	m.mu.Lock()
	var found *models.User
	for _, user := range m.Sessions {
		if user != nil && user.Email == email {
			found = user
			break
		}
	}
	m.mu.Unlock()
	if found == nil {
		return nil, identity.ErrInvalidCredentials
	}
	m.Emit(identity.EventSignedIn, found)
	return &models.Session{Token: "token-" + email, User: found}, nil
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.Sessions, token)
	m.mu.Unlock()
	m.Emit(identity.EventSignedOut, nil)
	return nil
}

func (m *MockIdentityProvider) GetSession(ctx context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.Sessions[token]
	if user == nil {
		return &models.Session{}, nil
	}
	copied := *user
	return &models.Session{Token: token, User: &copied}, nil
}

func (m *MockIdentityProvider) UpdateUser(ctx context.Context, userID, promocode string) (*models.User, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, userID, promocode)
	}
	m.mu.Lock()
	var updated *models.User
	for _, user := range m.Sessions {
		if user != nil && user.ID == userID {
			user.Promocode = promocode
			copied := *user
			updated = &copied
		}
	}
	m.mu.Unlock()
	if updated == nil {
		return nil, identity.ErrInvalidCredentials
	}
	m.Emit(identity.EventUserUpdated, updated)
	return updated, nil
}

func (m *MockIdentityProvider) OnAuthStateChange(fn identity.ListenerFunc) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Emit fans an event out to registered listeners.
func (m *MockIdentityProvider) Emit(event identity.Event, user *models.User) {
	m.mu.Lock()
	fns := make([]identity.ListenerFunc, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(event, user)
	}
}
