package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BookNote is a rich-text annotation keyed by the same book id as a ShelfBook,
// stored independently. A note can outlive edits to the book's details and can
// briefly exist after the book itself is removed.
type BookNote struct {
	bun.BaseModel `bun:"table:book_notes,alias:bn"`

	UserID string `bun:",pk,nullzero" json:"-"`
	BookID string `bun:",pk,nullzero" json:"book_id"`

	Content string `json:"content"`
	// PlainText is the tag-stripped projection of Content, kept for search.
	PlainText      string `json:"plain_text"`
	CharacterCount int    `json:"character_count"`

	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}
