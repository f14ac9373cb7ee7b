package legacy

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/migrations"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/books2shelf/shelfd/pkg/shelf"
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/books2shelf/shelfd/pkg/users"
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

// seedLegacyUser creates an account that still carries the embedded shelf.
func seedLegacyUser(t *testing.T, db *bun.DB, userID, legacyJSON string) {
	t.Helper()
	ctx := context.Background()

	_, err := users.NewService(db).Create(ctx, users.CreateUserOptions{
		ID:    userID,
		Email: userID + "@example.com",
	})
	require.NoError(t, err)

	_, err = db.NewUpdate().
		Model((*models.User)(nil)).
		Set("legacy_bookshelf = ?", legacyJSON).
		Where("id = ?", userID).
		Exec(ctx)
	require.NoError(t, err)
}

func TestNeedsMigration(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// Unknown account.
	needed, err := svc.NeedsMigration(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, needed)

	// Account born after normalization.
	_, err = users.NewService(db).Create(ctx, users.CreateUserOptions{ID: "fresh", Email: "fresh@example.com"})
	require.NoError(t, err)
	needed, err = svc.NeedsMigration(ctx, "fresh")
	require.NoError(t, err)
	assert.False(t, needed)

	// Account with an embedded shelf and no marker.
	seedLegacyUser(t, db, "old", `[{"id":"b1","status":"completed"}]`)
	needed, err = svc.NeedsMigration(ctx, "old")
	require.NoError(t, err)
	assert.True(t, needed)

	// Empty embedded shelf never triggers.
	seedLegacyUser(t, db, "empty", `[]`)
	needed, err = svc.NeedsMigration(ctx, "empty")
	require.NoError(t, err)
	assert.False(t, needed)
}

func TestMigrateTwoBookShelf(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `[
		{"id":"b1","title":"First","status":"completed","rating":4,"addedAt":"2023-06-01T10:00:00Z"},
		{"id":"b2","title":"Second","status":"wantToRead","addedAt":"2023-07-15T08:30:00Z"}
	]`)

	run, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.MigrationRunCompleted, run.Status)
	assert.Equal(t, 2, run.BooksMigrated)

	books, err := shelf.NewService(db).ListBooks(ctx, "user-1", shelf.ListBooksOptions{})
	require.NoError(t, err)
	require.Len(t, books, 2)

	// Newest first: b2 was added later.
	assert.Equal(t, "b2", books[0].ID)
	assert.Equal(t, "b1", books[1].ID)
	assert.Equal(t, "First", books[1].Title)
	assert.Equal(t, 4, books[1].Rating)
	assert.Equal(t, 2023, books[1].AddedAt.Year())
	assert.False(t, books[1].LastUpdated.Equal(books[1].AddedAt))

	shelfStats, err := stats.NewService(db).Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, shelfStats.TotalBooks)
	assert.Equal(t, 1, shelfStats.WantToRead)
	assert.Equal(t, 0, shelfStats.CurrentlyReading)
	assert.Equal(t, 1, shelfStats.Completed)

	needed, err := svc.NeedsMigration(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, needed)

	user := &models.User{}
	require.NoError(t, db.NewSelect().Model(user).Where("u.id = ?", "user-1").Scan(ctx))
	require.NotNil(t, user.MigratedAt)
	assert.Nil(t, user.LegacyBookshelf)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `[{"id":"b1","status":"completed"}]`)

	first, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	// A second call is a no-op: no new entries, stats untouched.
	second, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, second)

	books, err := shelf.NewService(db).ListBooks(ctx, "user-1", shelf.ListBooksOptions{})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	shelfStats, err := stats.NewService(db).Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, shelfStats.TotalBooks)
	assert.Equal(t, 1, shelfStats.Completed)

	runs, err := svc.ListRuns(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestMigrateEmptyShelfSetsMarker(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `[]`)

	run, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 0, run.BooksMigrated)

	user := &models.User{}
	require.NoError(t, db.NewSelect().Model(user).Where("u.id = ?", "user-1").Scan(ctx))
	assert.NotNil(t, user.MigratedAt)
	assert.Nil(t, user.LegacyBookshelf)
}

func TestMigrateNormalizesUnknownStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `[{"id":"b1","status":"reading-soon"}]`)

	_, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)

	book, err := shelf.NewService(db).RetrieveBook(ctx, "user-1", "b1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWantToRead, book.Status)

	shelfStats, err := stats.NewService(db).Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, shelfStats.WantToRead)
	assert.True(t, shelfStats.Consistent())
}

func TestMigrateMalformedShelfFailsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `{"not":"an array"}`)

	_, err := svc.Migrate(ctx, "user-1")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "migration_failed", codeErr.Code)

	// The account stays unmigrated so the next session retries.
	needed, err := svc.NeedsMigration(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, needed)

	books, err := shelf.NewService(db).ListBooks(ctx, "user-1", shelf.ListBooksOptions{})
	require.NoError(t, err)
	assert.Empty(t, books)

	runs, err := svc.ListRuns(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.MigrationRunFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
}

func TestMigrateEntryMissingID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedLegacyUser(t, db, "user-1", `[{"title":"No ID"}]`)

	_, err := svc.Migrate(ctx, "user-1")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "migration_failed", codeErr.Code)
}

func TestMigrateMissingUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Migrate(context.Background(), "ghost")
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestMigrateFillsDefaults(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	seedLegacyUser(t, db, "user-1", `[{"id":"b1"}]`)

	_, err := svc.Migrate(ctx, "user-1")
	require.NoError(t, err)

	book, err := shelf.NewService(db).RetrieveBook(ctx, "user-1", "b1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWantToRead, book.Status)
	assert.True(t, book.AddedAt.After(before))
}
