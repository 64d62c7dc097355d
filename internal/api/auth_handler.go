package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/access"
	"github.com/playbook-access-api/internal/identity"
	"github.com/rs/zerolog"
)

// AuthHandler handles the identity endpoints
type AuthHandler struct {
	identity identity.Provider
	access   *access.Service
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(provider identity.Provider, accessSvc *access.Service, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identity: provider,
		access:   accessSvc,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

type signUpRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Promocode string `json:"promocode"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp handles POST /v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.identity.SignUp(c.Request.Context(), req.Email, req.Password, req.Promocode)
	if errors.Is(err, identity.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if errors.Is(err, identity.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Sign-up failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": session.Token,
		"user":  session.User,
	})
}

// SignIn handles POST /v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.identity.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Sign-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": session.Token,
		"user":  session.User,
	})
}

// SignOut handles POST /v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.identity.SignOut(c.Request.Context(), tokenFrom(c)); err != nil {
		h.log.Error().Err(err).Msg("Sign-out failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// Session handles GET /v1/auth/session. Anonymous sessions are a valid
// answer, not an error.
func (h *AuthHandler) Session(c *gin.Context) {
	snapshot := snapshotFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"user":                snapshot.User,
		"accessible_chapters": snapshot.Chapters.Sorted(),
		"has_extended_access": snapshot.HasExtendedAccess,
	})
}
