package shelf

import (
	"testing"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookFromCatalogNestedShape(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	input := map[string]any{
		"id": "vol-1",
		"volumeInfo": map[string]any{
			"title":         "The Left Hand of Darkness",
			"authors":       []any{"Ursula K. Le Guin"},
			"publisher":     "Ace",
			"publishedDate": "1969",
			"pageCount":     float64(304),
			"categories":    []any{"Fiction", "Science Fiction"},
			"language":      "en",
			"imageLinks": map[string]any{
				"thumbnail": "http://books.example.com/cover.jpg",
			},
		},
	}

	book, err := bookFromCatalog("user-1", input, now)
	require.NoError(t, err)

	assert.Equal(t, "vol-1", book.ID)
	assert.Equal(t, "The Left Hand of Darkness", book.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, book.Authors)
	assert.Equal(t, "Ace", book.Publisher)
	assert.Equal(t, 304, book.PageCount)
	assert.Equal(t, []string{"Fiction", "Science Fiction"}, book.Categories)
	assert.Equal(t, "https://books.example.com/cover.jpg", book.Thumbnail)
	assert.Equal(t, models.StatusWantToRead, book.Status)
	assert.Equal(t, 0, book.Rating)
	assert.Equal(t, "2026", book.YearOfOwnership)
	assert.Equal(t, now, book.AddedAt)
	assert.Equal(t, now, book.LastUpdated)
}

func TestBookFromCatalogFlatShape(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"id":      "flat-1",
		"title":   "Piranesi",
		"authors": []any{"Susanna Clarke"},
		"status":  models.StatusCompleted,
		"rating":  float64(5),
		"review":  "Loved it.",
	}

	book, err := bookFromCatalog("user-1", input, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Piranesi", book.Title)
	assert.Equal(t, []string{"Susanna Clarke"}, book.Authors)
	assert.Equal(t, models.StatusCompleted, book.Status)
	assert.Equal(t, 5, book.Rating)
	assert.Equal(t, "Loved it.", book.Review)
}

func TestBookFromCatalogNestedWins(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"id":    "mixed-1",
		"title": "Flat Title",
		"volumeInfo": map[string]any{
			"title": "Nested Title",
		},
	}

	book, err := bookFromCatalog("user-1", input, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Nested Title", book.Title)
}

func TestBookFromCatalogDefaults(t *testing.T) {
	t.Parallel()

	book, err := bookFromCatalog("user-1", map[string]any{"id": "bare-1"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Unknown Title", book.Title)
	assert.Equal(t, []string{"Unknown Author"}, book.Authors)
	assert.Equal(t, []string{}, book.Categories)
	assert.Equal(t, "en", book.Language)
	assert.Equal(t, models.StatusWantToRead, book.Status)
	assert.Empty(t, book.Thumbnail)
}

func TestBookFromCatalogAlternateIDKey(t *testing.T) {
	t.Parallel()

	book, err := bookFromCatalog("user-1", map[string]any{"bookId": "alt-1"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alt-1", book.ID)
}

func TestBookFromCatalogSmallThumbnailFallback(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"id": "thumb-1",
		"imageLinks": map[string]any{
			"smallThumbnail": "http://books.example.com/small.jpg",
		},
	}

	book, err := bookFromCatalog("user-1", input, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "https://books.example.com/small.jpg", book.Thumbnail)
}

func TestBookFromCatalogMissingID(t *testing.T) {
	t.Parallel()

	_, err := bookFromCatalog("user-1", map[string]any{"title": "No ID"}, time.Now())
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestBookFromCatalogInvalidStatus(t *testing.T) {
	t.Parallel()

	_, err := bookFromCatalog("user-1", map[string]any{"id": "b1", "status": "reading"}, time.Now())
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}
