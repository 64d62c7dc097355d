package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/access"
	"github.com/rs/zerolog"
)

// AccessHandler handles entitlement endpoints
type AccessHandler struct {
	access *access.Service
	log    zerolog.Logger
}

// NewAccessHandler creates a new AccessHandler
func NewAccessHandler(svc *access.Service, log zerolog.Logger) *AccessHandler {
	return &AccessHandler{
		access: svc,
		log:    log.With().Str("handler", "access").Logger(),
	}
}

type unlockRequest struct {
	Code string `json:"code"`
}

// Get handles GET /v1/access: the entitlement snapshot for the session.
func (h *AccessHandler) Get(c *gin.Context) {
	snapshot := snapshotFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"accessible_chapters": snapshot.Chapters.Sorted(),
		"has_extended_access": snapshot.HasExtendedAccess,
	})
}

// Unlock handles POST /v1/access/unlock. Failures are structured result
// values; the status code mirrors the failure class.
func (h *AccessHandler) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": access.MsgInvalidCode,
		})
		return
	}

	result := h.access.UnlockChapter(c.Request.Context(), tokenFrom(c), req.Code)

	status := http.StatusOK
	if !result.Success {
		switch result.Message {
		case access.MsgSignInRequired:
			status = http.StatusUnauthorized
		case access.MsgAlreadyUsed:
			status = http.StatusConflict
		default:
			status = http.StatusBadRequest
		}
	}

	c.JSON(status, result)
}
