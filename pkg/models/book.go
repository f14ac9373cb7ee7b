package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusWantToRead       = "wantToRead"
	StatusCurrentlyReading = "currentlyReading"
	StatusCompleted        = "completed"
)

// Statuses lists all valid reading statuses.
var Statuses = []string{StatusWantToRead, StatusCurrentlyReading, StatusCompleted}

// ValidStatus reports whether s is a known reading status.
func ValidStatus(s string) bool {
	switch s {
	case StatusWantToRead, StatusCurrentlyReading, StatusCompleted:
		return true
	}
	return false
}

// ShelfBook is one account's relationship to one catalog book. The catalog
// metadata is copied in at add time and never re-synced; the user fields
// (status, rating, review, year of ownership) are mutated in place.
type ShelfBook struct {
	bun.BaseModel `bun:"table:shelf_books,alias:sb"`

	UserID string `bun:",pk,nullzero" json:"-"`
	ID     string `bun:",pk,nullzero" json:"id"`

	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"published_date"`
	Description   string   `json:"description"`
	PageCount     int      `json:"page_count"`
	Categories    []string `json:"categories"`
	Language      string   `json:"language"`
	Thumbnail     string   `json:"thumbnail"`
	PreviewLink   string   `json:"preview_link"`
	InfoLink      string   `json:"info_link"`

	Status          string `bun:",nullzero" json:"status"`
	Rating          int    `json:"rating"`
	Review          string `json:"review"`
	YearOfOwnership string `json:"year_of_ownership"`

	AddedAt     time.Time `json:"added_at"`
	LastUpdated time.Time `json:"last_updated"`
}
