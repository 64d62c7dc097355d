package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// claims carries the standard registered claims plus the user id.
type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// generateToken mints an HS256 session token for the user.
func generateToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(secret)
}

// userIDFromToken validates a session token and extracts the user id.
func userIDFromToken(tokenString string, secret []byte) (string, error) {
	parsed := &claims{}

	token, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errInvalidToken
	}

	return parsed.UserID, nil
}
