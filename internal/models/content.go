package models

import "time"

// CanvasFields are the nine fixed sections of the Business Model Canvas.
// The order matters only for presentation; keys are part of the stored
// key grammar and must never change.
var CanvasFields = []string{
	"partners",
	"activities",
	"resources",
	"propositions",
	"relationships",
	"channels",
	"segments",
	"costs",
	"revenue",
}

// ValidCanvasFields indexes CanvasFields for lookup.
var ValidCanvasFields = func() map[string]bool {
	m := make(map[string]bool, len(CanvasFields))
	for _, f := range CanvasFields {
		m[f] = true
	}
	return m
}()

// ContentEntry is one persisted key/value pair of a user's content store.
// Value is opaque user text (may carry HTML).
type ContentEntry struct {
	UserID    string    `json:"-" db:"user_id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
