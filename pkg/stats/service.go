// Package stats maintains the denormalized per-account shelf counters. The
// fast path adjusts counters incrementally on every mutation; Recalculate is
// the authoritative repair path that rebuilds the record from the shelf.
package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db bun.IDB
}

func NewService(db bun.IDB) *Service {
	return &Service{db}
}

// WithTx returns a Service that runs its statements inside the given
// transaction. Used by callers that pair a shelf write with a counter update.
func (svc *Service) WithTx(tx bun.Tx) *Service {
	return &Service{tx}
}

// Initialize creates the all-zero counter record for a new account. Calling
// it again for an existing account is a no-op.
func (svc *Service) Initialize(ctx context.Context, userID string) error {
	stats := &models.ShelfStats{UserID: userID}

	_, err := svc.db.
		NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Adjust adds delta to both the total and the given status bucket as a single
// statement. Two devices adjusting the same record concurrently both land;
// there is no read-modify-write window to lose an update in.
func (svc *Service) Adjust(ctx context.Context, userID, status string, delta int) error {
	column, err := bucketColumn(status)
	if err != nil {
		return err
	}
	if delta != 1 && delta != -1 {
		return errcodes.ValidationError(fmt.Sprintf("delta must be +1 or -1, got %d", delta))
	}

	res, err := svc.db.
		NewUpdate().
		Model((*models.ShelfStats)(nil)).
		Set("total_books = total_books + ?", delta).
		Set("? = ? + ?", bun.Ident(column), bun.Ident(column), delta).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		// Accounts created before counters existed have no record yet.
		if err := svc.Initialize(ctx, userID); err != nil {
			return err
		}
		_, err = svc.db.
			NewUpdate().
			Model((*models.ShelfStats)(nil)).
			Set("total_books = total_books + ?", delta).
			Set("? = ? + ?", bun.Ident(column), bun.Ident(column), delta).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// Compute derives counters from an entry set. Pure function; unknown statuses
// count toward the total only.
func Compute(userID string, books []*models.ShelfBook) *models.ShelfStats {
	stats := &models.ShelfStats{UserID: userID, TotalBooks: len(books)}
	for _, book := range books {
		if bucket := stats.Bucket(book.Status); bucket != nil {
			*bucket++
		}
	}
	return stats
}

// Recalculate overwrites the stored record wholesale from the given entry
// set. Idempotent and safe to call at any time; this is how counter drift is
// repaired.
func (svc *Service) Recalculate(ctx context.Context, userID string, books []*models.ShelfBook) (*models.ShelfStats, error) {
	stats := Compute(userID, books)

	_, err := svc.db.
		NewInsert().
		Model(stats).
		On("CONFLICT (user_id) DO UPDATE").
		Set("total_books = EXCLUDED.total_books").
		Set("want_to_read = EXCLUDED.want_to_read").
		Set("currently_reading = EXCLUDED.currently_reading").
		Set("completed = EXCLUDED.completed").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return stats, nil
}

// Retrieve returns the counter record. An account without one reads as all
// zeros rather than an error.
func (svc *Service) Retrieve(ctx context.Context, userID string) (*models.ShelfStats, error) {
	stats := &models.ShelfStats{}

	err := svc.db.
		NewSelect().
		Model(stats).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.ShelfStats{UserID: userID}, nil
		}
		return nil, errors.WithStack(err)
	}

	return stats, nil
}

func bucketColumn(status string) (string, error) {
	switch status {
	case models.StatusWantToRead:
		return "want_to_read", nil
	case models.StatusCurrentlyReading:
		return "currently_reading", nil
	case models.StatusCompleted:
		return "completed", nil
	}
	return "", errcodes.ValidationError(fmt.Sprintf("%q is not a valid reading status", status))
}
