package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/config"
	"github.com/playbook-access-api/internal/models"
	"github.com/playbook-access-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Service is the Postgres-backed Provider implementation.
type Service struct {
	users repository.UserRepository
	cfg   config.AuthConfig
	log   zerolog.Logger

	mu        sync.Mutex
	listeners map[int]ListenerFunc
	nextID    int
}

// Verify interface compliance
var _ Provider = (*Service)(nil)

// NewService creates the identity service.
func NewService(users repository.UserRepository, cfg config.AuthConfig, log zerolog.Logger) *Service {
	return &Service{
		users:     users,
		cfg:       cfg,
		log:       log.With().Str("component", "identity").Logger(),
		listeners: make(map[int]ListenerFunc),
	}
}

// SignUp registers a new account. The optional promocode is stored
// normalized as user metadata; it is not validated here, entitlement
// derivation fails open on unknown codes.
func (s *Service) SignUp(ctx context.Context, email, password, promocode string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Promocode:    catalog.Normalize(promocode),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := generateToken(user.ID, []byte(s.cfg.JWTSecret), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("User registered")
	s.notify(EventSignedIn, user)

	return &models.Session{Token: token, User: user}, nil
}

// SignInWithPassword verifies credentials and mints a session token.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := generateToken(user.ID, []byte(s.cfg.JWTSecret), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("User signed in")
	s.notify(EventSignedIn, user)

	return &models.Session{Token: token, User: user}, nil
}

// SignOut ends the session. Tokens are stateless, so this only notifies
// subscribers; the client discards the token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	s.notify(EventSignedOut, nil)
	return nil
}

// GetSession resolves a token to the current user. Invalid tokens are
// not errors: the caller sees an anonymous session.
func (s *Service) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return &models.Session{}, nil
	}

	userID, err := userIDFromToken(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return &models.Session{}, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &models.Session{Token: token, User: user}, nil
}

// UpdateUser replaces the user's promocode metadata and notifies
// subscribers of the updated user.
func (s *Service) UpdateUser(ctx context.Context, userID, promocode string) (*models.User, error) {
	normalized := catalog.Normalize(promocode)
	if err := s.users.UpdatePromocode(ctx, userID, normalized); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated user: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("User promocode updated")
	s.notify(EventUserUpdated, user)

	return user, nil
}

// OnAuthStateChange registers a listener; the returned function removes
// it again.
func (s *Service) OnAuthStateChange(fn ListenerFunc) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify fans an event out to all registered listeners. Listeners run
// synchronously; handlers are expected to be quick recomputes.
func (s *Service) notify(event Event, user *models.User) {
	s.mu.Lock()
	fns := make([]ListenerFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event, user)
	}
}
