package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type CreateUserOptions struct {
	ID          string
	Email       string
	DisplayName string
}

type UpdateUserOptions struct {
	Email       *string
	DisplayName *string
}

type UpdateProfileOptions struct {
	PhotoURL       *string
	Bio            *string
	Location       *string
	FavoriteGenres []string
	ReadingGoal    *int
}

type Service struct {
	db    *bun.DB
	stats *stats.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, stats: stats.NewService(db)}
}

// Create inserts the account row, an empty profile, and a zeroed counter
// record in one transaction. The id comes from the identity service and is
// never generated here.
func (svc *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	if opts.ID == "" {
		return nil, errcodes.ValidationError("id is required")
	}

	now := time.Now()
	user := &models.User{
		ID:               opts.ID,
		Email:            opts.Email,
		DisplayName:      opts.DisplayName,
		DisplayNameLower: strings.ToLower(opts.DisplayName),
		CreatedAt:        now,
		LastLoginAt:      now,
		LastUpdated:      now,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(user).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		profile := &models.UserProfile{
			UserID:         user.ID,
			FavoriteGenres: []string{},
			CreatedAt:      now,
			LastUpdated:    now,
		}
		_, err = tx.NewInsert().Model(profile).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		return errors.WithStack(svc.stats.WithTx(tx).Initialize(ctx, user.ID))
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

func (svc *Service) Retrieve(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}

	err := svc.db.
		NewSelect().
		Model(user).
		Where("u.id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Update merges account fields. display_name_lower tracks every display name
// write so case-insensitive lookups stay valid.
func (svc *Service) Update(ctx context.Context, userID string, opts UpdateUserOptions) (*models.User, error) {
	user, err := svc.Retrieve(ctx, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	columns := []string{"last_updated"}
	if opts.Email != nil {
		user.Email = *opts.Email
		columns = append(columns, "email")
	}
	if opts.DisplayName != nil {
		user.DisplayName = *opts.DisplayName
		user.DisplayNameLower = strings.ToLower(*opts.DisplayName)
		columns = append(columns, "display_name", "display_name_lower")
	}
	user.LastUpdated = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// RecordLogin stamps last_login_at. Called by the session-start flow.
func (svc *Service) RecordLogin(ctx context.Context, userID string) error {
	res, err := svc.db.
		NewUpdate().
		Model((*models.User)(nil)).
		Set("last_login_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("User")
	}

	return nil
}

func (svc *Service) RetrieveProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}

	err := svc.db.
		NewSelect().
		Model(profile).
		Where("up.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Profile")
		}
		return nil, errors.WithStack(err)
	}

	return profile, nil
}

func (svc *Service) UpdateProfile(ctx context.Context, userID string, opts UpdateProfileOptions) (*models.UserProfile, error) {
	profile, err := svc.RetrieveProfile(ctx, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	columns := []string{"last_updated"}
	if opts.PhotoURL != nil {
		profile.PhotoURL = *opts.PhotoURL
		columns = append(columns, "photo_url")
	}
	if opts.Bio != nil {
		profile.Bio = *opts.Bio
		columns = append(columns, "bio")
	}
	if opts.Location != nil {
		profile.Location = *opts.Location
		columns = append(columns, "location")
	}
	if opts.FavoriteGenres != nil {
		profile.FavoriteGenres = opts.FavoriteGenres
		columns = append(columns, "favorite_genres")
	}
	if opts.ReadingGoal != nil {
		profile.ReadingGoal = *opts.ReadingGoal
		columns = append(columns, "reading_goal")
	}
	profile.LastUpdated = time.Now()

	_, err = svc.db.
		NewUpdate().
		Model(profile).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return profile, nil
}

// Delete removes the account and everything it owns in one transaction:
// shelf entries, notes, counters, profile, migration history, then the
// account row itself.
func (svc *Service) Delete(ctx context.Context, userID string) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.
			NewSelect().
			Model((*models.User)(nil)).
			Where("u.id = ?", userID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("User")
		}

		for _, model := range []any{
			(*models.ShelfBook)(nil),
			(*models.BookNote)(nil),
			(*models.ShelfStats)(nil),
			(*models.UserProfile)(nil),
			(*models.MigrationRun)(nil),
		} {
			_, err := tx.
				NewDelete().
				Model(model).
				Where("user_id = ?", userID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err = tx.
			NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", userID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	return errors.WithStack(err)
}
