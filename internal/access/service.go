// Package access bridges the identity provider's session lifecycle to
// the entitlement calculator. It owns the process-wide access state,
// recomputing the accessible-chapter set whole on every auth transition,
// and implements the unlock-chapter contract.
package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/identity"
	"github.com/playbook-access-api/internal/models"
	"github.com/playbook-access-api/internal/promo"
	"github.com/rs/zerolog"
)

// User-facing messages of the unlock flow.
const (
	MsgInvalidCode     = "Invalid promocode. Please check the code and try again."
	MsgSignInRequired  = "Please sign in to apply a promocode."
	MsgAlreadyUsed     = "You have already used this promocode."
	MsgApplyFailed     = "Failed to apply promocode. Please try again."
	MsgChapterNotFound = "Chapter not found"
	MsgAllUnlocked     = "All chapters unlocked."
)

// State of the access service.
type State string

const (
	// StateUninitialized: Start has not been called.
	StateUninitialized State = "uninitialized"
	// StateLoading: the initial session resolve is outstanding. Access
	// is unknown, not denied; consumers must not redirect.
	StateLoading State = "loading"
	// StateResolved: the snapshot below is authoritative until the next
	// auth transition.
	StateResolved State = "resolved"
)

// Snapshot is the derived access state for one user (or anonymous).
type Snapshot struct {
	User              *models.User
	Chapters          promo.ChapterSet
	HasExtendedAccess bool
}

// Service combines catalog, validator, and identity provider into the
// process-wide access state. Construct with New, then Start to
// subscribe; Stop unsubscribes. Instances are independent, there is no
// package-level singleton.
type Service struct {
	cat      *catalog.Catalog
	provider identity.Provider
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	current     Snapshot
	unsubscribe func()
}

// New creates an access service in the uninitialized state.
func New(cat *catalog.Catalog, provider identity.Provider, log zerolog.Logger) *Service {
	return &Service{
		cat:      cat,
		provider: provider,
		log:      log.With().Str("component", "access").Logger(),
		state:    StateUninitialized,
	}
}

// Start subscribes to auth-state changes and performs the initial
// session resolve. Until it returns, consumers observe StateLoading.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	s.unsubscribe = s.provider.OnAuthStateChange(func(event identity.Event, user *models.User) {
		switch event {
		case identity.EventSignedOut:
			s.setUser(nil)
		default:
			s.setUser(user)
		}
	})

	// Initial resolve: the server boots with no ambient session, so the
	// baseline is the anonymous free tier.
	session, err := s.provider.GetSession(ctx, "")
	if err != nil {
		return fmt.Errorf("initial session resolve failed: %w", err)
	}
	s.setUser(session.User)

	return nil
}

// Stop unsubscribes from auth-state changes.
func (s *Service) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// setUser runs a full recompute for the given user. Every transition
// rebuilds the chapter set from scratch; nothing is patched.
func (s *Service) setUser(user *models.User) {
	chapters := s.chaptersFor(user)

	s.mu.Lock()
	s.state = StateResolved
	s.current = Snapshot{
		User:              user,
		Chapters:          chapters,
		HasExtendedAccess: chapters.HasExtendedAccess(),
	}
	s.mu.Unlock()

	s.log.Debug().
		Int("accessible", chapters.Len()).
		Bool("extended", chapters.HasExtendedAccess()).
		Msg("Access state recomputed")
}

func (s *Service) chaptersFor(user *models.User) promo.ChapterSet {
	if user == nil {
		return promo.NewChapterSet(promo.FreeChapterID)
	}
	return promo.AccessibleChapters(user.Promocode, s.cat)
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the process-wide snapshot and whether it is resolved.
func (s *Service) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state == StateResolved
}

// Refresh recomputes the snapshot for the cached user. Best effort,
// used by focus/storage-change style triggers; a stale result simply
// lasts until the next auth transition.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	user := s.current.User
	s.mu.Unlock()
	s.setUser(user)
}

// Resolve derives the access snapshot for one request's session token.
// Anonymous and invalid tokens resolve to the free tier with a nil user.
func (s *Service) Resolve(ctx context.Context, token string) (Snapshot, error) {
	session, err := s.provider.GetSession(ctx, token)
	if err != nil {
		return Snapshot{}, fmt.Errorf("session resolve failed: %w", err)
	}

	chapters := s.chaptersFor(session.User)
	return Snapshot{
		User:              session.User,
		Chapters:          chapters,
		HasExtendedAccess: chapters.HasExtendedAccess(),
	}, nil
}

// UnlockChapter applies a promocode to the session's user:
//  1. classify the code; invalid input is rejected with no state change
//  2. require an authenticated user
//  3. reject resubmission of the code already stored (compared after
//     normalization, the same policy validation uses)
//  4. persist via the identity provider; on failure prior state stands
//  5. recompute the snapshot synchronously from the new code
//  6. report what was unlocked
func (s *Service) UnlockChapter(ctx context.Context, token, code string) models.UnlockResult {
	result := promo.Validate(code, s.cat)
	if !result.Valid {
		return models.UnlockResult{Success: false, Message: MsgInvalidCode}
	}

	session, err := s.provider.GetSession(ctx, token)
	if err != nil {
		s.log.Error().Err(err).Msg("Session resolve failed during unlock")
		return models.UnlockResult{Success: false, Message: MsgApplyFailed}
	}
	if session.User == nil {
		return models.UnlockResult{Success: false, Message: MsgSignInRequired}
	}

	normalized := catalog.Normalize(code)
	if session.User.Promocode == normalized {
		return models.UnlockResult{Success: false, Message: MsgAlreadyUsed}
	}

	user, err := s.provider.UpdateUser(ctx, session.User.ID, normalized)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", session.User.ID).Msg("Failed to persist promocode")
		return models.UnlockResult{Success: false, Message: MsgApplyFailed}
	}

	// Recompute immediately so the caller sees the new entitlement
	// without waiting for the provider's own notification.
	s.setUser(user)

	if result.Kind == models.CodeKindMaster {
		return models.UnlockResult{Success: true, Message: MsgAllUnlocked}
	}

	chapter, ok := s.cat.ChapterByID(result.ChapterID)
	if !ok {
		// Unreachable when catalogs are consistent; the loader rejects
		// codes referencing unknown chapters. Kept as a data-integrity
		// guard.
		s.log.Error().Int("chapter_id", result.ChapterID).Msg("Valid code references missing chapter")
		return models.UnlockResult{Success: false, Message: MsgChapterNotFound}
	}

	return models.UnlockResult{
		Success:   true,
		ChapterID: chapter.ID,
		Title:     chapter.Title,
		Message:   fmt.Sprintf("Chapter %d unlocked: %s", chapter.ID, chapter.Title),
	}
}
