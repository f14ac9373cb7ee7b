package stats

import (
	"context"
	"database/sql"
	"testing"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/migrations"
	"github.com/books2shelf/shelfd/pkg/models"
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

func TestInitializeIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "user-1"))
	require.NoError(t, svc.Initialize(ctx, "user-1"))

	stats, err := svc.Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalBooks)
	assert.True(t, stats.Consistent())
}

func TestAdjustUpdatesTotalAndBucket(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "user-1"))
	require.NoError(t, svc.Adjust(ctx, "user-1", models.StatusWantToRead, 1))
	require.NoError(t, svc.Adjust(ctx, "user-1", models.StatusCompleted, 1))
	require.NoError(t, svc.Adjust(ctx, "user-1", models.StatusWantToRead, -1))

	stats, err := svc.Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBooks)
	assert.Equal(t, 0, stats.WantToRead)
	assert.Equal(t, 1, stats.Completed)
	assert.True(t, stats.Consistent())
}

func TestAdjustCreatesMissingRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// No Initialize call: accounts created before counters existed.
	require.NoError(t, svc.Adjust(ctx, "user-1", models.StatusCurrentlyReading, 1))

	stats, err := svc.Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBooks)
	assert.Equal(t, 1, stats.CurrentlyReading)
}

func TestAdjustRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	err := svc.Adjust(context.Background(), "user-1", "finished", 1)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestAdjustRejectsBadDelta(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	err := svc.Adjust(context.Background(), "user-1", models.StatusCompleted, 2)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestCompute(t *testing.T) {
	t.Parallel()

	books := []*models.ShelfBook{
		{ID: "b1", Status: models.StatusCompleted},
		{ID: "b2", Status: models.StatusWantToRead},
		{ID: "b3", Status: models.StatusWantToRead},
		{ID: "b4", Status: "unknown"},
	}

	stats := Compute("user-1", books)
	assert.Equal(t, 4, stats.TotalBooks)
	assert.Equal(t, 2, stats.WantToRead)
	assert.Equal(t, 0, stats.CurrentlyReading)
	assert.Equal(t, 1, stats.Completed)
}

func TestRecalculateOverwritesDrift(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.Initialize(ctx, "user-1"))
	// Simulate drift: bump a bucket without touching the shelf.
	require.NoError(t, svc.Adjust(ctx, "user-1", models.StatusWantToRead, 1))

	books := []*models.ShelfBook{
		{ID: "b1", Status: models.StatusCompleted},
	}

	first, err := svc.Recalculate(ctx, "user-1", books)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalBooks)
	assert.Equal(t, 0, first.WantToRead)
	assert.Equal(t, 1, first.Completed)

	// Idempotent: a second run with no intervening mutation is identical.
	second, err := svc.Recalculate(ctx, "user-1", books)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := svc.Retrieve(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.TotalBooks, stored.TotalBooks)
	assert.True(t, stored.Consistent())
}

func TestRetrieveMissingReadsAsZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	stats, err := svc.Retrieve(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, &models.ShelfStats{UserID: "ghost"}, stats)
}
