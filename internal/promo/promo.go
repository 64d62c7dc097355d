// Package promo holds the pure access-calculation logic: classifying a
// promocode against the catalog and deriving the set of accessible
// chapters from it. No I/O, no state.
package promo

import (
	"sort"

	"github.com/playbook-access-api/internal/catalog"
	"github.com/playbook-access-api/internal/models"
)

// FreeChapterID is the unconditionally accessible chapter.
const FreeChapterID = 1

// Validate classifies an input string against the catalog. Input is
// normalized (trimmed, uppercased) before lookup; whitespace-only input
// is invalid. Master codes win over chapter codes, though the catalog
// guarantees no code lives in both.
func Validate(code string, cat *catalog.Catalog) models.ValidationResult {
	normalized := catalog.Normalize(code)
	if normalized == "" {
		return models.ValidationResult{Valid: false, Kind: models.CodeKindNone}
	}

	if cat.IsMasterCode(normalized) {
		return models.ValidationResult{Valid: true, Kind: models.CodeKindMaster}
	}

	if chapterID, ok := cat.ChapterForCode(normalized); ok {
		return models.ValidationResult{
			Valid:     true,
			Kind:      models.CodeKindChapter,
			ChapterID: chapterID,
		}
	}

	return models.ValidationResult{Valid: false, Kind: models.CodeKindNone}
}

// AccessibleChapters derives the entitlement for a stored promocode.
// A missing or invalid code fails open to the free tier {1}; a master
// code grants the contiguous range 1..TotalChapters; a chapter code
// grants {1, chapter}. The result is always rebuilt whole.
func AccessibleChapters(promocode string, cat *catalog.Catalog) ChapterSet {
	set := NewChapterSet(FreeChapterID)

	result := Validate(promocode, cat)
	if !result.Valid {
		return set
	}

	switch result.Kind {
	case models.CodeKindMaster:
		for id := 1; id <= cat.TotalChapters(); id++ {
			set.Add(id)
		}
	case models.CodeKindChapter:
		set.Add(result.ChapterID)
	}

	return set
}

// ChapterSet is a set of accessible chapter ids.
type ChapterSet map[int]struct{}

// NewChapterSet builds a set from the given ids.
func NewChapterSet(ids ...int) ChapterSet {
	s := make(ChapterSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an id.
func (s ChapterSet) Add(id int) {
	s[id] = struct{}{}
}

// Contains reports membership.
func (s ChapterSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Len is the number of accessible chapters.
func (s ChapterSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order, for API responses.
func (s ChapterSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasExtendedAccess reports whether the set grants anything beyond the
// free chapter.
func (s ChapterSet) HasExtendedAccess() bool {
	return len(s) > 1
}
