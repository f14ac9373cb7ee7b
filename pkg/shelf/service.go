package shelf

import (
	"context"
	"database/sql"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListBooksOptions struct {
	Status *string
	Limit  *int
}

type UpdateDetailsOptions struct {
	Rating          *int
	Review          *string
	YearOfOwnership *string
}

type Service struct {
	db    *bun.DB
	stats *stats.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, stats: stats.NewService(db)}
}

// AddBook normalizes raw catalog metadata into a ShelfBook and upserts it
// keyed by (user, id). Re-adding an existing id overwrites the entry but
// keeps its original added_at, and the counters move from the previous
// status bucket to the new one instead of growing the total.
func (svc *Service) AddBook(ctx context.Context, userID string, input map[string]any) (*models.ShelfBook, error) {
	book, err := bookFromCatalog(userID, input, time.Now())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing := &models.ShelfBook{}
		err := tx.
			NewSelect().
			Model(existing).
			Column("status", "added_at").
			Where("sb.user_id = ?", userID).
			Where("sb.id = ?", book.ID).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.NewInsert().Model(book).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			return errors.WithStack(svc.stats.WithTx(tx).Adjust(ctx, userID, book.Status, 1))
		case err != nil:
			return errors.WithStack(err)
		}

		book.AddedAt = existing.AddedAt
		_, err = tx.NewUpdate().Model(book).WherePK().Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if existing.Status == book.Status {
			return nil
		}
		if err := svc.stats.WithTx(tx).Adjust(ctx, userID, existing.Status, -1); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(svc.stats.WithTx(tx).Adjust(ctx, userID, book.Status, 1))
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// RemoveBook reads the entry's status before deleting it so the right bucket
// is decremented. A missing entry is NotFound and leaves the counters alone.
func (svc *Service) RemoveBook(ctx context.Context, userID, bookID string) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.ShelfBook{}
		err := tx.
			NewSelect().
			Model(book).
			Column("status").
			Where("sb.user_id = ?", userID).
			Where("sb.id = ?", bookID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model((*models.ShelfBook)(nil)).
			Where("user_id = ?", userID).
			Where("id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return errors.WithStack(svc.stats.WithTx(tx).Adjust(ctx, userID, book.Status, -1))
	})
	return errors.WithStack(err)
}

// UpdateStatus moves the entry to newStatus and shifts the counters from the
// stored previous status. Equal statuses only refresh last_updated.
func (svc *Service) UpdateStatus(ctx context.Context, userID, bookID, newStatus string) (*models.ShelfBook, error) {
	if !models.ValidStatus(newStatus) {
		return nil, errcodes.ValidationError("status must be a valid reading status")
	}

	book := &models.ShelfBook{}
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.
			NewSelect().
			Model(book).
			Where("sb.user_id = ?", userID).
			Where("sb.id = ?", bookID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		if err != nil {
			return errors.WithStack(err)
		}

		oldStatus := book.Status
		book.Status = newStatus
		book.LastUpdated = time.Now()

		_, err = tx.
			NewUpdate().
			Model(book).
			Column("status", "last_updated").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if oldStatus == newStatus {
			return nil
		}
		if err := svc.stats.WithTx(tx).Adjust(ctx, userID, oldStatus, -1); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(svc.stats.WithTx(tx).Adjust(ctx, userID, newStatus, 1))
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// UpdateDetails merges rating, review, and year of ownership into the entry.
// Status and counters are never touched here.
func (svc *Service) UpdateDetails(ctx context.Context, userID, bookID string, opts UpdateDetailsOptions) (*models.ShelfBook, error) {
	book, err := svc.RetrieveBook(ctx, userID, bookID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	columns := []string{"last_updated"}
	if opts.Rating != nil {
		book.Rating = *opts.Rating
		columns = append(columns, "rating")
	}
	if opts.Review != nil {
		book.Review = *opts.Review
		columns = append(columns, "review")
	}
	if opts.YearOfOwnership != nil {
		book.YearOfOwnership = *opts.YearOfOwnership
		columns = append(columns, "year_of_ownership")
	}
	book.LastUpdated = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// ListBooks returns the shelf newest first. Callers rely on the added_at
// descending order as a presentation contract.
func (svc *Service) ListBooks(ctx context.Context, userID string, opts ListBooksOptions) ([]*models.ShelfBook, error) {
	books := []*models.ShelfBook{}

	q := svc.db.
		NewSelect().
		Model(&books).
		Where("sb.user_id = ?", userID).
		Order("sb.added_at DESC", "sb.id ASC")

	if opts.Status != nil {
		q = q.Where("sb.status = ?", *opts.Status)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return books, nil
}

func (svc *Service) RetrieveBook(ctx context.Context, userID, bookID string) (*models.ShelfBook, error) {
	book := &models.ShelfBook{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("sb.user_id = ?", userID).
		Where("sb.id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) BookExists(ctx context.Context, userID, bookID string) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.ShelfBook)(nil)).
		Where("sb.user_id = ?", userID).
		Where("sb.id = ?", bookID).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

// RecalculateStats re-scans the shelf and overwrites the counters from
// scratch. This is the drift repair path and is safe to call at any time.
func (svc *Service) RecalculateStats(ctx context.Context, userID string) (*models.ShelfStats, error) {
	books, err := svc.ListBooks(ctx, userID, ListBooksOptions{})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	shelfStats, err := svc.stats.Recalculate(ctx, userID, books)
	return shelfStats, errors.WithStack(err)
}
