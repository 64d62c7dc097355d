package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/playbook-access-api/internal/config"
	"github.com/playbook-access-api/internal/identity"
	"github.com/playbook-access-api/internal/mocks"
	"github.com/playbook-access-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService() (*identity.Service, *mocks.MockUserRepository) {
	repo := mocks.NewMockUserRepository()
	cfg := config.AuthConfig{
		JWTSecret:  "test-secret",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	return identity.NewService(repo, cfg, zerolog.Nop()), repo
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "  Founder@Example.com ", "hunter2", " all2024 ")
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "founder@example.com", session.User.Email)
	// Promocode metadata is stored normalized.
	assert.Equal(t, "ALL2024", session.User.Promocode)
	assert.Len(t, repo.Users, 1)

	// Duplicate email is rejected.
	_, err = svc.SignUp(ctx, "founder@example.com", "other", "")
	assert.ErrorIs(t, err, identity.ErrEmailTaken)

	// Correct password signs in.
	signin, err := svc.SignInWithPassword(ctx, "founder@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, signin.User.ID)

	// Wrong password and unknown email both yield the same error.
	_, err = svc.SignInWithPassword(ctx, "founder@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = svc.SignInWithPassword(ctx, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestSignUp_RequiresCredentials(t *testing.T) {
	svc, _ := newService()

	_, err := svc.SignUp(context.Background(), "", "pw", "")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.SignUp(context.Background(), "a@b.c", "", "")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestGetSession(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	signup, err := svc.SignUp(ctx, "reader@example.com", "pw", "")
	require.NoError(t, err)

	// A minted token resolves back to its user.
	session, err := svc.GetSession(ctx, signup.Token)
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, signup.User.ID, session.User.ID)

	// Missing and garbage tokens resolve anonymously, never as errors.
	session, err = svc.GetSession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, session.User)

	session, err = svc.GetSession(ctx, "not.a.token")
	require.NoError(t, err)
	assert.Nil(t, session.User)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	signup, err := svc.SignUp(ctx, "reader@example.com", "pw", "")
	require.NoError(t, err)

	user, err := svc.UpdateUser(ctx, signup.User.ID, " canvas5 ")
	require.NoError(t, err)
	assert.Equal(t, "CANVAS5", user.Promocode)

	_, err = svc.UpdateUser(ctx, "missing-user", "X")
	assert.Error(t, err)
}

func TestOnAuthStateChange(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	var events []identity.Event
	var lastUser *models.User
	unsubscribe := svc.OnAuthStateChange(func(event identity.Event, user *models.User) {
		events = append(events, event)
		lastUser = user
	})

	session, err := svc.SignUp(ctx, "reader@example.com", "pw", "")
	require.NoError(t, err)
	require.Equal(t, []identity.Event{identity.EventSignedIn}, events)

	_, err = svc.UpdateUser(ctx, session.User.ID, "ALL2024")
	require.NoError(t, err)
	require.Equal(t, identity.EventUserUpdated, events[len(events)-1])
	require.NotNil(t, lastUser)
	assert.Equal(t, "ALL2024", lastUser.Promocode)

	require.NoError(t, svc.SignOut(ctx, session.Token))
	require.Equal(t, identity.EventSignedOut, events[len(events)-1])
	assert.Nil(t, lastUser)

	// After unsubscribe no further events arrive.
	unsubscribe()
	count := len(events)
	_, err = svc.SignInWithPassword(ctx, "reader@example.com", "pw")
	require.NoError(t, err)
	assert.Len(t, events, count)
}
