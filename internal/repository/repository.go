package repository

import (
	"context"
	"errors"

	"github.com/playbook-access-api/internal/database"
	"github.com/playbook-access-api/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePromocode(ctx context.Context, id, promocode string) error
}

// ContentRepository defines the interface for per-user content entries
type ContentRepository interface {
	Get(ctx context.Context, userID, key string) (string, bool, error)
	Set(ctx context.Context, userID, key, value string) error
	CountLike(ctx context.Context, userID, pattern string) (int, error)
	ListKeys(ctx context.Context, userID, pattern string) ([]string, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Content ContentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Content: NewContentRepo(db),
	}
}
