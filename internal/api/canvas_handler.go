package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/models"
	"github.com/rs/zerolog"
)

// CanvasHandler handles the Business Model Canvas and reader-state
// endpoints
type CanvasHandler struct {
	content *content.Service
	log     zerolog.Logger
}

// NewCanvasHandler creates a new CanvasHandler
func NewCanvasHandler(contentSvc *content.Service, log zerolog.Logger) *CanvasHandler {
	return &CanvasHandler{
		content: contentSvc,
		log:     log.With().Str("handler", "canvas").Logger(),
	}
}

type setFieldRequest struct {
	Value string `json:"value"`
}

type highlightRequest struct {
	Text string `json:"text" binding:"required"`
}

// GetAll handles GET /v1/chapters/:id/canvas: all nine sections at once.
// Absent sections come back as empty strings; the client renders
// placeholders for both.
func (h *CanvasHandler) GetAll(c *gin.Context) {
	chapterID := chapterIDFrom(c)
	userID := snapshotFrom(c).User.ID
	ctx := c.Request.Context()

	fields := make(map[string]string, len(models.CanvasFields))
	for _, field := range models.CanvasFields {
		value, _, err := h.content.GetCanvasField(ctx, userID, chapterID, field)
		if err != nil {
			h.log.Error().Err(err).Str("field", field).Msg("Failed to read canvas field")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load canvas"})
			return
		}
		fields[field] = value
	}

	c.JSON(http.StatusOK, gin.H{
		"chapter_id": chapterID,
		"fields":     fields,
	})
}

// GetField handles GET /v1/chapters/:id/canvas/:field
func (h *CanvasHandler) GetField(c *gin.Context) {
	chapterID := chapterIDFrom(c)
	userID := snapshotFrom(c).User.ID

	value, exists, err := h.content.GetCanvasField(c.Request.Context(), userID, chapterID, c.Param("field"))
	if h.fieldError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"field":  c.Param("field"),
		"value":  value,
		"exists": exists,
	})
}

// SetField handles PUT /v1/chapters/:id/canvas/:field. Overwrites
// unconditionally, last write wins.
func (h *CanvasHandler) SetField(c *gin.Context) {
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	chapterID := chapterIDFrom(c)
	userID := snapshotFrom(c).User.ID

	err := h.content.SetCanvasField(c.Request.Context(), userID, chapterID, c.Param("field"), req.Value)
	if h.fieldError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// AppendHighlight handles POST /v1/chapters/:id/canvas/:field/highlight:
// the text-selection-to-canvas feature, appended as a bullet line.
func (h *CanvasHandler) AppendHighlight(c *gin.Context) {
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	chapterID := chapterIDFrom(c)
	userID := snapshotFrom(c).User.ID

	err := h.content.AppendHighlight(c.Request.Context(), userID, chapterID, c.Param("field"), req.Text)
	if h.fieldError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// TutorialStatus handles GET /v1/tutorial
func (h *CanvasHandler) TutorialStatus(c *gin.Context) {
	completed, err := h.content.TutorialCompleted(c.Request.Context(), snapshotFrom(c).User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read tutorial flag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tutorial state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": completed})
}

// CompleteTutorial handles POST /v1/tutorial/complete
func (h *CanvasHandler) CompleteTutorial(c *gin.Context) {
	if err := h.content.CompleteTutorial(c.Request.Context(), snapshotFrom(c).User.ID); err != nil {
		h.log.Error().Err(err).Msg("Failed to set tutorial flag")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save tutorial state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true})
}

// Recommendations handles GET /v1/recommendations
func (h *CanvasHandler) Recommendations(c *gin.Context) {
	refs, err := h.content.Recommendations(c.Request.Context(), snapshotFrom(c).User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}
	if refs == nil {
		refs = []models.ChapterRef{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": refs})
}

// SetRecommendations handles PUT /v1/recommendations
func (h *CanvasHandler) SetRecommendations(c *gin.Context) {
	var refs []models.ChapterRef
	if err := c.ShouldBindJSON(&refs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a JSON array of chapters is required"})
		return
	}

	if err := h.content.SetRecommendations(c.Request.Context(), snapshotFrom(c).User.ID, refs); err != nil {
		h.log.Error().Err(err).Msg("Failed to save recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recommendations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// fieldError maps content-store validation errors to responses; returns
// true when the request was answered.
func (h *CanvasHandler) fieldError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, content.ErrInvalidField) || errors.Is(err, content.ErrInvalidChapter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return true
	}
	h.log.Error().Err(err).Msg("Content store operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "content store failure"})
	return true
}
