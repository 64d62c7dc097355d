// Package content is the per-user content store: canvas fields, visited
// markers, and reader state, persisted under the deterministic keys the
// browser client has always used. Writes are last-write-wins; there is
// no merge layer.
package content

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/playbook-access-api/internal/models"
	"github.com/playbook-access-api/internal/repository"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrInvalidField is returned for a canvas field outside the nine
	// fixed sections.
	ErrInvalidField = errors.New("invalid canvas field")
	// ErrInvalidChapter is returned for non-positive chapter ids.
	ErrInvalidChapter = errors.New("invalid chapter id")
)

// Service exposes the content store operations.
type Service struct {
	repo repository.ContentRepository
	log  zerolog.Logger
}

// NewService creates the content service.
func NewService(repo repository.ContentRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "content").Logger(),
	}
}

func validateField(chapterID int, field string) error {
	if chapterID <= 0 {
		return ErrInvalidChapter
	}
	if !models.ValidCanvasFields[field] {
		return fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	return nil
}

// GetCanvasField reads one canvas section. The boolean distinguishes an
// absent key from empty content; callers render a placeholder for both.
func (s *Service) GetCanvasField(ctx context.Context, userID string, chapterID int, field string) (string, bool, error) {
	if err := validateField(chapterID, field); err != nil {
		return "", false, err
	}
	return s.repo.Get(ctx, userID, canvasKey(chapterID, field))
}

// SetCanvasField overwrites one canvas section.
func (s *Service) SetCanvasField(ctx context.Context, userID string, chapterID int, field, value string) error {
	if err := validateField(chapterID, field); err != nil {
		return err
	}
	return s.repo.Set(ctx, userID, canvasKey(chapterID, field), value)
}

// AppendHighlight appends selected text to a canvas section as a bullet
// line. Append semantics live here, above the overwrite-only store.
func (s *Service) AppendHighlight(ctx context.Context, userID string, chapterID int, field, text string) error {
	if err := validateField(chapterID, field); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	key := canvasKey(chapterID, field)
	existing, ok, err := s.repo.Get(ctx, userID, key)
	if err != nil {
		return err
	}

	bullet := "• " + text
	value := bullet
	if ok && existing != "" {
		value = existing + "\n" + bullet
	}
	return s.repo.Set(ctx, userID, key, value)
}

// MarkVisited records the chapter presence marker.
func (s *Service) MarkVisited(ctx context.Context, userID string, chapterID int) error {
	if chapterID <= 0 {
		return ErrInvalidChapter
	}
	return s.repo.Set(ctx, userID, visitedKey(chapterID), "true")
}

// Visited reports whether a chapter carries the presence marker.
func (s *Service) Visited(ctx context.Context, userID string, chapterID int) (bool, error) {
	if chapterID <= 0 {
		return false, ErrInvalidChapter
	}
	_, ok, err := s.repo.Get(ctx, userID, visitedKey(chapterID))
	return ok, err
}

// VisitedCount counts visited chapters through an indexed query, never
// by scanning all stored keys.
func (s *Service) VisitedCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountLike(ctx, userID, visitedPattern)
}

// SetLastOpened records the last chapter the user opened.
func (s *Service) SetLastOpened(ctx context.Context, userID string, chapterID int) error {
	if chapterID <= 0 {
		return ErrInvalidChapter
	}
	return s.repo.Set(ctx, userID, keyLastOpened, strconv.Itoa(chapterID))
}

// LastOpened returns the last opened chapter id, or 0 when none was
// recorded or the stored value does not parse.
func (s *Service) LastOpened(ctx context.Context, userID string) (int, error) {
	value, ok, err := s.repo.Get(ctx, userID, keyLastOpened)
	if err != nil || !ok {
		return 0, err
	}
	id, convErr := strconv.Atoi(value)
	if convErr != nil {
		s.log.Warn().Str("value", value).Msg("Unparseable lastOpenedChapter, ignoring")
		return 0, nil
	}
	return id, nil
}

// CompleteTutorial marks the canvas tutorial as dismissed.
func (s *Service) CompleteTutorial(ctx context.Context, userID string) error {
	return s.repo.Set(ctx, userID, keyTutorialCompleted, "true")
}

// TutorialCompleted reports whether the canvas tutorial was dismissed.
func (s *Service) TutorialCompleted(ctx context.Context, userID string) (bool, error) {
	value, ok, err := s.repo.Get(ctx, userID, keyTutorialCompleted)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// SetRecommendations stores the recommended chapter list as a JSON array.
func (s *Service) SetRecommendations(ctx context.Context, userID string, refs []models.ChapterRef) error {
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	return s.repo.Set(ctx, userID, keyRecommendations, string(data))
}

// Recommendations returns the stored recommended chapters. A corrupt
// stored value is logged and treated as empty rather than surfaced.
func (s *Service) Recommendations(ctx context.Context, userID string) ([]models.ChapterRef, error) {
	value, ok, err := s.repo.Get(ctx, userID, keyRecommendations)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		return nil, nil
	}

	var refs []models.ChapterRef
	if err := json.Unmarshal([]byte(value), &refs); err != nil {
		s.log.Warn().Err(err).Msg("Unparseable chapterRecommendations, ignoring")
		return nil, nil
	}
	return refs, nil
}
