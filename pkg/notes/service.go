package notes

import (
	"context"
	"database/sql"
	"time"
	"unicode/utf8"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/htmlutil"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// SaveNote creates or updates the note for a book. The plain-text projection
// and character count are derived from the content on every save. created_at
// survives updates; last_modified always moves forward.
func (svc *Service) SaveNote(ctx context.Context, userID, bookID, content string) (*models.BookNote, error) {
	now := time.Now()
	note := &models.BookNote{
		UserID:         userID,
		BookID:         bookID,
		Content:        content,
		PlainText:      htmlutil.StripTags(content),
		CharacterCount: utf8.RuneCountInString(content),
		CreatedAt:      now,
		LastModified:   now,
	}

	_, err := svc.db.
		NewInsert().
		Model(note).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("plain_text = EXCLUDED.plain_text").
		Set("character_count = EXCLUDED.character_count").
		Set("last_modified = EXCLUDED.last_modified").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return note, nil
}

func (svc *Service) RetrieveNote(ctx context.Context, userID, bookID string) (*models.BookNote, error) {
	note := &models.BookNote{}

	err := svc.db.
		NewSelect().
		Model(note).
		Where("bn.user_id = ?", userID).
		Where("bn.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Note")
		}
		return nil, errors.WithStack(err)
	}

	return note, nil
}

func (svc *Service) DeleteNote(ctx context.Context, userID, bookID string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookNote)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Note")
	}

	return nil
}

func (svc *Service) ListNotes(ctx context.Context, userID string) ([]*models.BookNote, error) {
	notes := []*models.BookNote{}

	err := svc.db.
		NewSelect().
		Model(&notes).
		Where("bn.user_id = ?", userID).
		Order("bn.last_modified DESC", "bn.book_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return notes, nil
}
