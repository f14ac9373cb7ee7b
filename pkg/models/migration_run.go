package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MigrationRunCompleted = "completed"
	MigrationRunFailed    = "failed"
)

// MigrationRun is one attempt at moving an account's legacy embedded shelf
// into shelf_books. Completed runs are written inside the migration
// transaction; failed runs are recorded best-effort afterwards.
type MigrationRun struct {
	bun.BaseModel `bun:"table:migration_runs,alias:mr"`

	ID            string    `bun:",pk,nullzero" json:"id"`
	UserID        string    `bun:",nullzero" json:"-"`
	Status        string    `bun:",nullzero" json:"status"`
	BooksMigrated int       `json:"books_migrated"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
