package notes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSaveNoteRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	content := "<p>A <b>bleak</b> but hopeful ending.</p>"
	saved, err := svc.SaveNote(ctx, "user-1", "b1", content)
	require.NoError(t, err)
	assert.Equal(t, content, saved.Content)
	assert.Equal(t, "A bleak but hopeful ending.", saved.PlainText)
	assert.NotZero(t, saved.CharacterCount)

	note, err := svc.RetrieveNote(ctx, "user-1", "b1")
	require.NoError(t, err)
	assert.Equal(t, content, note.Content)
	assert.Equal(t, saved.PlainText, note.PlainText)
}

func TestSaveNoteUpdatePreservesCreatedAt(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.SaveNote(ctx, "user-1", "b1", "<p>first</p>")
	require.NoError(t, err)

	// Backdate created_at so an accidental reset is visible.
	backdated := first.CreatedAt.Add(-24 * time.Hour)
	_, err = db.NewUpdate().
		Model(first).
		Set("created_at = ?", backdated).
		WherePK().
		Exec(ctx)
	require.NoError(t, err)

	second, err := svc.SaveNote(ctx, "user-1", "b1", "<p>second</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>second</p>", second.Content)
	assert.Equal(t, backdated.Unix(), second.CreatedAt.Unix())
	assert.True(t, second.LastModified.After(backdated))

	notes, err := svc.ListNotes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestRetrieveNoteMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.RetrieveNote(context.Background(), "user-1", "ghost")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestDeleteNote(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.SaveNote(ctx, "user-1", "b1", "<p>gone soon</p>")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, "user-1", "b1"))

	err = svc.DeleteNote(ctx, "user-1", "b1")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestListNotesScopedToUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.SaveNote(ctx, "user-1", "b1", "<p>mine</p>")
	require.NoError(t, err)
	_, err = svc.SaveNote(ctx, "user-2", "b2", "<p>theirs</p>")
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "b1", notes[0].BookID)
}
