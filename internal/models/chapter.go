package models

// Chapter is one entry of the static chapter catalog.
type Chapter struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags,omitempty"`
	Preview string   `json:"preview,omitempty"`
}

// ChapterRef is the trimmed-down chapter shape stored in the
// recommendations payload.
type ChapterRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
