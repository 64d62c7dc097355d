package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playbook-access-api/internal/access"
	"github.com/playbook-access-api/internal/promo"
)

// Context keys for values set by the session middleware.
const (
	ctxSnapshot = "access_snapshot"
	ctxToken    = "session_token"
)

// sessionMiddleware resolves the bearer token to an access snapshot and
// stores it on the request context. While the access service is still
// loading, access is unknown (not denied): the request is answered with
// 503 and no redirect hint, mirroring the guard's "block, don't
// redirect" rule for the loading state.
func sessionMiddleware(svc *access.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc.State() != access.StateResolved {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "access state is loading"})
			c.Abort()
			return
		}

		token := bearerToken(c)
		snapshot, err := svc.Resolve(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			c.Abort()
			return
		}

		c.Set(ctxToken, token)
		c.Set(ctxSnapshot, snapshot)
		c.Next()
	}
}

// requireUser rejects anonymous requests with a sign-in redirect hint.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := snapshotFrom(c)
		if snapshot.User == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "authentication required",
				"redirect": "signin",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireChapterAccess guards chapter routes: a signed-in user without
// extended access is redirected to the free chapter (or the gallery when
// the id does not parse) with a promocode-required notice. Re-evaluated
// on every request, never cached per client.
func requireChapterAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		chapterID, err := strconv.Atoi(c.Param("id"))
		if err != nil || chapterID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "invalid chapter id",
				"redirect": "gallery",
			})
			c.Abort()
			return
		}

		snapshot := snapshotFrom(c)
		if !snapshot.Chapters.Contains(chapterID) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":            "A promocode is required to access this chapter.",
				"redirect_chapter": promo.FreeChapterID,
			})
			c.Abort()
			return
		}

		c.Set("chapter_id", chapterID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func snapshotFrom(c *gin.Context) access.Snapshot {
	if v, ok := c.Get(ctxSnapshot); ok {
		if s, ok := v.(access.Snapshot); ok {
			return s
		}
	}
	return access.Snapshot{Chapters: promo.NewChapterSet(promo.FreeChapterID)}
}

func tokenFrom(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func chapterIDFrom(c *gin.Context) int {
	return c.GetInt("chapter_id")
}
