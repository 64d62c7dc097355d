package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/models"
	"github.com/rs/zerolog"
)

// ChapterHandler handles the chapter gallery and reader endpoints
type ChapterHandler struct {
	catalog *catalog.Catalog
	content *content.Service
	log     zerolog.Logger
}

// NewChapterHandler creates a new ChapterHandler
func NewChapterHandler(cat *catalog.Catalog, contentSvc *content.Service, log zerolog.Logger) *ChapterHandler {
	return &ChapterHandler{
		catalog: cat,
		content: contentSvc,
		log:     log.With().Str("handler", "chapter").Logger(),
	}
}

// chapterCard is the gallery view of a chapter: the catalog entry plus
// the lock state for the current session.
type chapterCard struct {
	models.Chapter
	Locked bool `json:"locked"`
}

// List handles GET /v1/chapters. Open to anonymous sessions; lock icons
// come from the session's entitlement.
func (h *ChapterHandler) List(c *gin.Context) {
	snapshot := snapshotFrom(c)

	cards := make([]chapterCard, 0, h.catalog.TotalChapters())
	for _, ch := range h.catalog.Chapters() {
		cards = append(cards, chapterCard{
			Chapter: ch,
			Locked:  !snapshot.Chapters.Contains(ch.ID),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"chapters":            cards,
		"has_extended_access": snapshot.HasExtendedAccess,
	})
}

// Get handles GET /v1/chapters/:id. Reaching here means the entitlement
// guard passed; opening a chapter records the visit and last-opened
// markers.
func (h *ChapterHandler) Get(c *gin.Context) {
	chapterID := chapterIDFrom(c)

	chapter, ok := h.catalog.ChapterByID(chapterID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chapter not found"})
		return
	}

	userID := snapshotFrom(c).User.ID
	ctx := c.Request.Context()

	// Best-effort markers; a failed write must not block reading.
	if err := h.content.MarkVisited(ctx, userID, chapterID); err != nil {
		h.log.Warn().Err(err).Int("chapter_id", chapterID).Msg("Failed to mark chapter visited")
	}
	if err := h.content.SetLastOpened(ctx, userID, chapterID); err != nil {
		h.log.Warn().Err(err).Int("chapter_id", chapterID).Msg("Failed to record last opened chapter")
	}

	c.JSON(http.StatusOK, chapter)
}

// Progress handles GET /v1/progress: visited count and last opened
// chapter for progress indicators.
func (h *ChapterHandler) Progress(c *gin.Context) {
	userID := snapshotFrom(c).User.ID
	ctx := c.Request.Context()

	visited, err := h.content.VisitedCount(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count visited chapters")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load progress"})
		return
	}

	lastOpened, err := h.content.LastOpened(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load last opened chapter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visited_count":  visited,
		"total_chapters": h.catalog.TotalChapters(),
		"last_opened":    lastOpened,
	})
}
