package models

// CodeKind classifies a promocode against the catalog.
type CodeKind string

const (
	CodeKindNone    CodeKind = "none"
	CodeKindMaster  CodeKind = "master"
	CodeKindChapter CodeKind = "chapter"
)

// ValidationResult is the outcome of classifying an input string against
// the promocode catalog. ChapterID is set only for CodeKindChapter.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Kind      CodeKind `json:"kind"`
	ChapterID int      `json:"chapter_id,omitempty"`
}

// UnlockResult is returned by the unlock-chapter operation. Failures are
// values, never errors: the message is meant for the end user.
type UnlockResult struct {
	Success   bool   `json:"success"`
	ChapterID int    `json:"chapter_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message"`
}
