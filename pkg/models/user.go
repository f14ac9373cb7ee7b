package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the account record keyed by the opaque id supplied by the identity
// service. LegacyBookshelf holds the pre-migration embedded JSON array for
// accounts created before shelves were normalized into shelf_books; it is
// cleared when MigratedAt is set, and the two are never both present.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string     `bun:",pk,nullzero" json:"id"`
	Email            string     `bun:",nullzero" json:"email"`
	DisplayName      string     `json:"display_name"`
	DisplayNameLower string     `json:"-"`
	MigratedAt       *time.Time `json:"migrated_at,omitempty"`
	LegacyBookshelf  *string    `json:"-"`

	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// UserProfile holds the optional profile details shown on the profile page.
type UserProfile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	UserID         string   `bun:",pk,nullzero" json:"-"`
	PhotoURL       string   `json:"photo_url"`
	Bio            string   `json:"bio"`
	Location       string   `json:"location"`
	FavoriteGenres []string `json:"favorite_genres"`
	ReadingGoal    int      `json:"reading_goal"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}
