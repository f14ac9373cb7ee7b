package models

import (
	"github.com/uptrace/bun"
)

// ShelfStats is the denormalized per-account counter record. TotalBooks must
// equal the sum of the three buckets after any completed mutation; transient
// drift between mutations is repaired by recalculation.
type ShelfStats struct {
	bun.BaseModel `bun:"table:shelf_stats,alias:ss"`

	UserID           string `bun:",pk,nullzero" json:"-"`
	TotalBooks       int    `json:"total_books"`
	WantToRead       int    `json:"want_to_read"`
	CurrentlyReading int    `json:"currently_reading"`
	Completed        int    `json:"completed"`
}

// Consistent reports whether the total matches the bucket sum.
func (s *ShelfStats) Consistent() bool {
	return s.TotalBooks == s.WantToRead+s.CurrentlyReading+s.Completed
}

// Bucket returns a pointer to the counter for the given status, or nil for an
// unknown status.
func (s *ShelfStats) Bucket(status string) *int {
	switch status {
	case StatusWantToRead:
		return &s.WantToRead
	case StatusCurrentlyReading:
		return &s.CurrentlyReading
	case StatusCompleted:
		return &s.Completed
	}
	return nil
}
