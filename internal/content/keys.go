package content

import (
	"fmt"
)

// Stored key grammar. These strings are a compatibility contract with
// the existing browser client and must stay bit-exact.
const (
	keyLastOpened        = "lastOpenedChapter"
	keyTutorialCompleted = "canvas_tutorial_completed"
	keyRecommendations   = "chapterRecommendations"

	visitedPattern = "chapter-%-visited"
)

// canvasKey builds the key for one canvas field of a chapter:
// canvas-<chapterId>-<fieldKey>.
func canvasKey(chapterID int, field string) string {
	return fmt.Sprintf("canvas-%d-%s", chapterID, field)
}

// visitedKey builds the presence-marker key for a chapter:
// chapter-<chapterId>-visited.
func visitedKey(chapterID int) string {
	return fmt.Sprintf("chapter-%d-visited", chapterID)
}
