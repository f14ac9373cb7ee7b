package legacy

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// legacyBook mirrors the embedded shelf entry shape stored in the user row
// before shelves were normalized. Keys are the original camelCase ones.
type legacyBook struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Publisher       string    `json:"publisher"`
	PublishedDate   string    `json:"publishedDate"`
	Description     string    `json:"description"`
	PageCount       int       `json:"pageCount"`
	Categories      []string  `json:"categories"`
	Language        string    `json:"language"`
	Thumbnail       string    `json:"thumbnail"`
	PreviewLink     string    `json:"previewLink"`
	InfoLink        string    `json:"infoLink"`
	Status          string    `json:"status"`
	Rating          int       `json:"rating"`
	Review          string    `json:"review"`
	YearOfOwnership string    `json:"yearOfOwnership"`
	AddedAt         time.Time `json:"addedAt"`
}

type Service struct {
	db    *bun.DB
	stats *stats.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, stats: stats.NewService(db)}
}

// NeedsMigration is the session-start predicate: true exactly when the user
// row still carries a non-empty embedded shelf and no migration marker. One
// row read, no joins.
func (svc *Service) NeedsMigration(ctx context.Context, userID string) (bool, error) {
	user := &models.User{}
	err := svc.db.
		NewSelect().
		Model(user).
		Column("migrated_at", "legacy_bookshelf").
		Where("u.id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.WithStack(err)
	}

	if user.MigratedAt != nil || user.LegacyBookshelf == nil {
		return false, nil
	}

	books := []json.RawMessage{}
	if err := json.Unmarshal([]byte(*user.LegacyBookshelf), &books); err != nil {
		// A malformed embedded shelf still needs the migration attempt so
		// the failure gets surfaced and recorded.
		return true, nil
	}

	return len(books) > 0, nil
}

// Migrate moves the embedded shelf into shelf_books as one transaction. The
// entries, the recomputed counters, the migration marker, the cleared legacy
// column, and the audit row all commit together, so a crash mid-migration
// leaves the account fully unmigrated and the next session retries. Returns
// nil without touching anything when the account has no migration to run.
func (svc *Service) Migrate(ctx context.Context, userID string) (*models.MigrationRun, error) {
	user := &models.User{}
	err := svc.db.
		NewSelect().
		Model(user).
		Where("u.id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errcodes.NotFound("User")
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if user.MigratedAt != nil || user.LegacyBookshelf == nil {
		return nil, nil
	}

	books, err := svc.parseLegacyShelf(*user.LegacyBookshelf, userID)
	if err != nil {
		svc.recordFailure(ctx, userID, err)
		return nil, errcodes.MigrationFailed(err.Error())
	}

	run := &models.MigrationRun{
		ID:            uuid.NewString(),
		UserID:        userID,
		Status:        models.MigrationRunCompleted,
		BooksMigrated: len(books),
		CreatedAt:     time.Now(),
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		for _, book := range books {
			book.LastUpdated = now
			_, err := tx.
				NewInsert().
				Model(book).
				On("CONFLICT (user_id, id) DO UPDATE").
				Set("title = EXCLUDED.title").
				Set("authors = EXCLUDED.authors").
				Set("status = EXCLUDED.status").
				Set("rating = EXCLUDED.rating").
				Set("review = EXCLUDED.review").
				Set("year_of_ownership = EXCLUDED.year_of_ownership").
				Set("added_at = EXCLUDED.added_at").
				Set("last_updated = EXCLUDED.last_updated").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		// Counters come from the source array, not from re-reading what was
		// just written.
		if _, err := svc.stats.WithTx(tx).Recalculate(ctx, userID, books); err != nil {
			return errors.WithStack(err)
		}

		q := tx.
			NewUpdate().
			Model((*models.User)(nil)).
			Set("migrated_at = ?", now).
			Set("legacy_bookshelf = NULL").
			Set("last_updated = ?", now).
			Where("id = ?", userID)
		if user.DisplayNameLower == "" && user.DisplayName != "" {
			q = q.Set("display_name_lower = ?", strings.ToLower(user.DisplayName))
		}
		if _, err := q.Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		_, err := tx.NewInsert().Model(run).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		svc.recordFailure(ctx, userID, err)
		return nil, errcodes.MigrationFailed("legacy shelf migration did not complete")
	}

	return run, nil
}

func (svc *Service) ListRuns(ctx context.Context, userID string) ([]*models.MigrationRun, error) {
	runs := []*models.MigrationRun{}

	err := svc.db.
		NewSelect().
		Model(&runs).
		Where("mr.user_id = ?", userID).
		Order("mr.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return runs, nil
}

func (svc *Service) parseLegacyShelf(raw, userID string) ([]*models.ShelfBook, error) {
	entries := []legacyBook{}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, errors.Wrap(err, "parse legacy shelf")
	}

	now := time.Now()
	books := make([]*models.ShelfBook, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			return nil, errors.New("legacy shelf entry is missing an id")
		}

		status := entry.Status
		if !models.ValidStatus(status) {
			status = models.StatusWantToRead
		}
		addedAt := entry.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}

		books = append(books, &models.ShelfBook{
			UserID:          userID,
			ID:              entry.ID,
			Title:           entry.Title,
			Authors:         entry.Authors,
			Publisher:       entry.Publisher,
			PublishedDate:   entry.PublishedDate,
			Description:     entry.Description,
			PageCount:       entry.PageCount,
			Categories:      entry.Categories,
			Language:        entry.Language,
			Thumbnail:       entry.Thumbnail,
			PreviewLink:     entry.PreviewLink,
			InfoLink:        entry.InfoLink,
			Status:          status,
			Rating:          entry.Rating,
			Review:          entry.Review,
			YearOfOwnership: entry.YearOfOwnership,
			AddedAt:         addedAt,
			LastUpdated:     now,
		})
	}

	return books, nil
}

// recordFailure writes the failed audit row outside the rolled-back
// transaction. Best effort: a second failure here only gets logged.
func (svc *Service) recordFailure(ctx context.Context, userID string, cause error) {
	msg := cause.Error()
	run := &models.MigrationRun{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.MigrationRunFailed,
		Error:     &msg,
		CreatedAt: time.Now(),
	}

	if _, err := svc.db.NewInsert().Model(run).Exec(ctx); err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).Error("failed to record migration failure", logger.Data{"user_id": userID})
	}
}
