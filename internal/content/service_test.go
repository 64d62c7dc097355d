package content_test

import (
	"context"
	"testing"

	"github.com/playbook-access-api/internal/content"
	"github.com/playbook-access-api/internal/mocks"
	"github.com/playbook-access-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = "user-1"

func newService() (*content.Service, *mocks.MockContentRepository) {
	repo := mocks.NewMockContentRepository()
	return content.NewService(repo, zerolog.Nop()), repo
}

func TestCanvasField_RoundTrip(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	// Absent key returns the no-content sentinel.
	value, exists, err := svc.GetCanvasField(ctx, userID, 3, "partners")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "", value)

	require.NoError(t, svc.SetCanvasField(ctx, userID, 3, "partners", "hello"))

	value, exists, err = svc.GetCanvasField(ctx, userID, 3, "partners")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "hello", value)

	// The stored key follows the canvas-<chapterId>-<fieldKey> grammar.
	_, ok := repo.Entries[userID]["canvas-3-partners"]
	assert.True(t, ok)

	// Overwrite, never merge.
	require.NoError(t, svc.SetCanvasField(ctx, userID, 3, "partners", "replaced"))
	value, _, err = svc.GetCanvasField(ctx, userID, 3, "partners")
	require.NoError(t, err)
	assert.Equal(t, "replaced", value)

	// Empty-string content is distinguishable from absence.
	require.NoError(t, svc.SetCanvasField(ctx, userID, 3, "partners", ""))
	value, exists, err = svc.GetCanvasField(ctx, userID, 3, "partners")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "", value)
}

func TestCanvasField_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	err := svc.SetCanvasField(ctx, userID, 3, "budget", "x")
	assert.ErrorIs(t, err, content.ErrInvalidField)

	err = svc.SetCanvasField(ctx, userID, 0, "partners", "x")
	assert.ErrorIs(t, err, content.ErrInvalidChapter)

	_, _, err = svc.GetCanvasField(ctx, userID, -1, "partners")
	assert.ErrorIs(t, err, content.ErrInvalidChapter)
}

func TestAppendHighlight(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	require.NoError(t, svc.AppendHighlight(ctx, userID, 5, "segments", "first insight"))
	value, _, err := svc.GetCanvasField(ctx, userID, 5, "segments")
	require.NoError(t, err)
	assert.Equal(t, "• first insight", value)

	require.NoError(t, svc.AppendHighlight(ctx, userID, 5, "segments", "second insight"))
	value, _, err = svc.GetCanvasField(ctx, userID, 5, "segments")
	require.NoError(t, err)
	assert.Equal(t, "• first insight\n• second insight", value)

	// Blank selections are ignored.
	require.NoError(t, svc.AppendHighlight(ctx, userID, 5, "segments", "   "))
	value, _, _ = svc.GetCanvasField(ctx, userID, 5, "segments")
	assert.Equal(t, "• first insight\n• second insight", value)
}

func TestVisitedMarkers(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	visited, err := svc.Visited(ctx, userID, 2)
	require.NoError(t, err)
	assert.False(t, visited)

	require.NoError(t, svc.MarkVisited(ctx, userID, 2))
	require.NoError(t, svc.MarkVisited(ctx, userID, 4))
	// Marking twice is idempotent.
	require.NoError(t, svc.MarkVisited(ctx, userID, 4))

	visited, err = svc.Visited(ctx, userID, 2)
	require.NoError(t, err)
	assert.True(t, visited)

	count, err := svc.VisitedCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Marker keys follow chapter-<chapterId>-visited.
	assert.Equal(t, "true", repo.Entries[userID]["chapter-2-visited"])

	// Canvas entries must not leak into the visited count.
	require.NoError(t, svc.SetCanvasField(ctx, userID, 2, "channels", "x"))
	count, err = svc.VisitedCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLastOpened(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	id, err := svc.LastOpened(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	require.NoError(t, svc.SetLastOpened(ctx, userID, 6))
	id, err = svc.LastOpened(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 6, id)

	// Stored as a string under the fixed key.
	assert.Equal(t, "6", repo.Entries[userID]["lastOpenedChapter"])

	// Corrupt stored values are ignored, not surfaced.
	repo.Entries[userID]["lastOpenedChapter"] = "six"
	id, err = svc.LastOpened(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestTutorialFlag(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	done, err := svc.TutorialCompleted(ctx, userID)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, svc.CompleteTutorial(ctx, userID))

	done, err = svc.TutorialCompleted(ctx, userID)
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, "true", repo.Entries[userID]["canvas_tutorial_completed"])
}

func TestRecommendations(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	refs, err := svc.Recommendations(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, refs)

	want := []models.ChapterRef{{ID: 3, Title: "Pitching Investors"}, {ID: 5, Title: "Business Model Canvas"}}
	require.NoError(t, svc.SetRecommendations(ctx, userID, want))

	refs, err = svc.Recommendations(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, want, refs)

	// A corrupt stored payload degrades to empty instead of failing.
	repo.Entries[userID]["chapterRecommendations"] = "{not json"
	refs, err = svc.Recommendations(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, refs)
}
