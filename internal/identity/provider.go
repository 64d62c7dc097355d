// Package identity implements the identity provider the access layer
// depends on: account creation, password sign-in, session resolution,
// and promocode metadata updates, with auth-state-change notifications
// fanned out to subscribers.
package identity

import (
	"context"
	"errors"

	"github.com/playbook-access-api/internal/models"
)

var (
	// ErrEmailTaken is returned by SignUp for an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned by SignInWithPassword when email
	// or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Event describes an auth-state transition.
type Event string

const (
	EventSignedIn    Event = "signed_in"
	EventSignedOut   Event = "signed_out"
	EventUserUpdated Event = "user_updated"
)

// ListenerFunc receives auth-state-change notifications. User is nil for
// EventSignedOut.
type ListenerFunc func(event Event, user *models.User)

// Provider is the identity collaborator. The access layer only ever
// reads the user's promocode metadata and writes it back via UpdateUser.
type Provider interface {
	SignUp(ctx context.Context, email, password, promocode string) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	// GetSession resolves a token to the current user. A missing or
	// invalid token yields a session with a nil user, not an error.
	GetSession(ctx context.Context, token string) (*models.Session, error)
	UpdateUser(ctx context.Context, userID, promocode string) (*models.User, error)
	// OnAuthStateChange registers a listener and returns its
	// unsubscribe function.
	OnAuthStateChange(fn ListenerFunc) func()
}
