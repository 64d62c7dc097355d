// Package catalog loads the static promocode and chapter catalogs the
// access subsystem is driven by. Catalogs are immutable once loaded;
// every inconsistency is rejected at load time rather than resolved at
// lookup time.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/playbook-access-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed data/promocodes.json
var defaultPromocodes []byte

//go:embed data/chapters.json
var defaultChapters []byte

// chapterKeyPrefix is the legacy key format of the promocode file,
// "chapter_<id>". Parsed once at load into integer ids.
const chapterKeyPrefix = "chapter_"

// promocodeFile is the on-disk shape of the promocode catalog.
type promocodeFile struct {
	MasterCodes  []string            `json:"masterCodes"`
	ChapterCodes map[string][]string `json:"chapterCodes"`
}

// Catalog is the loaded, validated pair of promocode and chapter catalogs.
type Catalog struct {
	masterCodes map[string]bool
	// codeToChapter maps a normalized chapter code to the chapter it
	// unlocks. Populated only after duplicate checks passed, so lookup
	// order can never matter.
	codeToChapter map[string]int
	chapters      []models.Chapter
	chaptersByID  map[int]models.Chapter
}

// Normalize is the single normalization policy for promocodes: trimmed
// and uppercased. Applied to catalog codes at load and to user input
// before any comparison.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Load reads both catalogs. Empty paths fall back to the embedded
// defaults.
func Load(promocodesPath, chaptersPath string) (*Catalog, error) {
	promoData := defaultPromocodes
	if promocodesPath != "" {
		b, err := os.ReadFile(promocodesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read promocode catalog: %w", err)
		}
		promoData = b
	}

	chapterData := defaultChapters
	if chaptersPath != "" {
		b, err := os.ReadFile(chaptersPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter catalog: %w", err)
		}
		chapterData = b
	}

	return Parse(promoData, chapterData)
}

// Parse builds a Catalog from raw JSON documents, validating every
// invariant the lookup code relies on.
func Parse(promoData, chapterData []byte) (*Catalog, error) {
	var pf promocodeFile
	if err := json.Unmarshal(promoData, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse promocode catalog: %w", err)
	}

	var chapters []models.Chapter
	if err := json.Unmarshal(chapterData, &chapters); err != nil {
		return nil, fmt.Errorf("failed to parse chapter catalog: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("chapter catalog is empty")
	}

	c := &Catalog{
		masterCodes:   make(map[string]bool),
		codeToChapter: make(map[string]int),
		chapters:      chapters,
		chaptersByID:  make(map[int]models.Chapter, len(chapters)),
	}

	for _, ch := range chapters {
		if ch.ID <= 0 {
			return nil, fmt.Errorf("chapter catalog: invalid chapter id %d", ch.ID)
		}
		if _, ok := c.chaptersByID[ch.ID]; ok {
			return nil, fmt.Errorf("chapter catalog: duplicate chapter id %d", ch.ID)
		}
		c.chaptersByID[ch.ID] = ch
	}

	// seen tracks every code across master and chapter sets. A code in
	// two places is a catalog-construction error, not a tie to break.
	seen := make(map[string]string)

	for _, raw := range pf.MasterCodes {
		code := Normalize(raw)
		if code == "" {
			return nil, fmt.Errorf("promocode catalog: empty master code")
		}
		if where, dup := seen[code]; dup {
			return nil, fmt.Errorf("promocode catalog: code %q defined in both master and %s", code, where)
		}
		seen[code] = "master"
		c.masterCodes[code] = true
	}

	for key, codes := range pf.ChapterCodes {
		chapterID, err := parseChapterKey(key)
		if err != nil {
			return nil, fmt.Errorf("promocode catalog: %w", err)
		}
		if _, ok := c.chaptersByID[chapterID]; !ok {
			return nil, fmt.Errorf("promocode catalog: key %q references unknown chapter %d", key, chapterID)
		}

		for _, raw := range codes {
			code := Normalize(raw)
			if code == "" {
				return nil, fmt.Errorf("promocode catalog: empty code under %q", key)
			}
			if where, dup := seen[code]; dup {
				return nil, fmt.Errorf("promocode catalog: code %q defined in both %s and %s", code, where, key)
			}
			seen[code] = key
			c.codeToChapter[code] = chapterID
		}
	}

	return c, nil
}

// parseChapterKey extracts the chapter id from a "chapter_<id>" key.
func parseChapterKey(key string) (int, error) {
	if !strings.HasPrefix(key, chapterKeyPrefix) {
		return 0, fmt.Errorf("malformed chapter key %q", key)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(key, chapterKeyPrefix))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed chapter key %q", key)
	}
	return id, nil
}

// IsMasterCode reports whether the normalized code unlocks all chapters.
func (c *Catalog) IsMasterCode(code string) bool {
	return c.masterCodes[code]
}

// ChapterForCode returns the chapter a normalized code unlocks, if any.
func (c *Catalog) ChapterForCode(code string) (int, bool) {
	id, ok := c.codeToChapter[code]
	return id, ok
}

// TotalChapters is the number of chapters in the chapter catalog; the
// master entitlement spans 1..TotalChapters.
func (c *Catalog) TotalChapters() int {
	return len(c.chapters)
}

// Chapters returns the chapter catalog in file order.
func (c *Catalog) Chapters() []models.Chapter {
	return c.chapters
}

// ChapterByID resolves a chapter id to its catalog entry.
func (c *Catalog) ChapterByID(id int) (models.Chapter, bool) {
	ch, ok := c.chaptersByID[id]
	return ch, ok
}
