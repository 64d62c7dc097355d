package models

import (
	"time"
)

// User represents an account managed by the identity provider.
// Promocode is the single active code attached to the account; applying a
// new code replaces it, unlocks never accumulate.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Promocode    string    `json:"promocode,omitempty" db:"promocode"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Session is a resolved authentication session. User is nil when the
// token was missing or invalid.
type Session struct {
	Token string `json:"-"`
	User  *User  `json:"user,omitempty"`
}
