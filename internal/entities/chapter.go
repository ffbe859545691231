package entities

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type Chapter struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BookID         uint      `gorm:"not null;index;uniqueIndex:uix_book_chapter_order" json:"book_id"`
	OrderIndex     int       `gorm:"not null;uniqueIndex:uix_book_chapter_order" json:"order_index"`
	Title          string    `gorm:"size:512" json:"title"`
	StartMs        int64     `gorm:"not null" json:"start_ms"` // offset from the start of the book
	DurationMs     int64     `json:"duration_ms"`
	FilePath       string    `gorm:"size:1024" json:"file_path,omitempty"`
	NaturalSortKey string    `gorm:"index;type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// BeforeSave keeps NaturalSortKey in step with the title.
func (c *Chapter) BeforeSave(tx *gorm.DB) error {
	c.NaturalSortKey = NaturalSortKey(c.sortLabel())
	return nil
}

func (c *Chapter) sortLabel() string {
	if strings.TrimSpace(c.Title) == "" {
		return strconv.Itoa(c.OrderIndex)
	}
	return c.Title
}

// Collators keep per-call state, so each goroutine borrows its own.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	},
}

// NaturalSortKey derives a key whose byte order follows human numbering:
// "2" sorts before "10" and "Chapter 9" before "Chapter 10". The key is hex
// encoded so it can be stored and compared as plain text.
func NaturalSortKey(label string) string {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	var buf collate.Buffer
	return hex.EncodeToString(c.KeyFromString(&buf, strings.TrimSpace(label)))
}

// SortChapters orders chapters by (natural sort key, order index) in place.
func SortChapters(chapters []Chapter) {
	for i := range chapters {
		if chapters[i].NaturalSortKey == "" {
			chapters[i].NaturalSortKey = NaturalSortKey(chapters[i].sortLabel())
		}
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].NaturalSortKey != chapters[j].NaturalSortKey {
			return chapters[i].NaturalSortKey < chapters[j].NaturalSortKey
		}
		return chapters[i].OrderIndex < chapters[j].OrderIndex
	})
}

// ChapterAt returns the chapter that contains positionMs, i.e. the one with
// the greatest start not after the position. ok is false when none does.
func ChapterAt(chapters []Chapter, positionMs int64) (chapter Chapter, ok bool) {
	for _, c := range chapters {
		if c.StartMs <= positionMs && (!ok || c.StartMs > chapter.StartMs) {
			chapter, ok = c, true
		}
	}
	return chapter, ok
}
