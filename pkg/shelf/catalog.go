package shelf

import (
	"strconv"
	"strings"
	"time"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/models"
)

// bookFromCatalog builds a ShelfBook from raw catalog metadata. Catalog
// payloads arrive in two shapes: a nested one with the interesting fields
// under "volumeInfo", and a flat one with the same fields at the top level.
// Each field is resolved independently, nested shape first, so mixed payloads
// still work. Missing fields get defaults rather than failing the add.
func bookFromCatalog(userID string, input map[string]any, now time.Time) (*models.ShelfBook, error) {
	volume := subMap(input, "volumeInfo")
	sources := []map[string]any{volume, input}

	id := stringField(sources, "id")
	if id == "" {
		id = stringField(sources, "bookId")
	}
	if id == "" {
		return nil, errcodes.ValidationError("id is required")
	}

	status := stringField([]map[string]any{input}, "status")
	if status == "" {
		status = models.StatusWantToRead
	}
	if !models.ValidStatus(status) {
		return nil, errcodes.ValidationError("status must be one of: " + strings.Join(models.Statuses, ", "))
	}

	year := stringField([]map[string]any{input}, "yearOfOwnership")
	if year == "" {
		year = strconv.Itoa(now.Year())
	}

	book := &models.ShelfBook{
		UserID:          userID,
		ID:              id,
		Title:           stringFieldOr(sources, "title", "Unknown Title"),
		Authors:         stringsFieldOr(sources, "authors", []string{"Unknown Author"}),
		Publisher:       stringField(sources, "publisher"),
		PublishedDate:   stringField(sources, "publishedDate"),
		Description:     stringField(sources, "description"),
		PageCount:       intField(sources, "pageCount"),
		Categories:      stringsFieldOr(sources, "categories", []string{}),
		Language:        stringFieldOr(sources, "language", "en"),
		Thumbnail:       thumbnailURL(sources),
		PreviewLink:     stringField(sources, "previewLink"),
		InfoLink:        stringField(sources, "infoLink"),
		Status:          status,
		Rating:          intField([]map[string]any{input}, "rating"),
		Review:          stringField([]map[string]any{input}, "review"),
		YearOfOwnership: year,
		AddedAt:         now,
		LastUpdated:     now,
	}

	return book, nil
}

// thumbnailURL prefers the full-size thumbnail over the small one and
// rewrites plain-http catalog URLs to https.
func thumbnailURL(sources []map[string]any) string {
	for _, src := range sources {
		links := subMap(src, "imageLinks")
		if links == nil {
			continue
		}
		url := stringField([]map[string]any{links}, "thumbnail")
		if url == "" {
			url = stringField([]map[string]any{links}, "smallThumbnail")
		}
		if url != "" {
			return strings.Replace(url, "http://", "https://", 1)
		}
	}
	return ""
}

func subMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	sub, _ := m[key].(map[string]any)
	return sub
}

func stringField(sources []map[string]any, key string) string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if s, ok := src[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringFieldOr(sources []map[string]any, key, fallback string) string {
	if s := stringField(sources, key); s != "" {
		return s
	}
	return fallback
}

func stringsField(sources []map[string]any, key string) []string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		raw, ok := src[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func stringsFieldOr(sources []map[string]any, key string, fallback []string) []string {
	if out := stringsField(sources, key); out != nil {
		return out
	}
	return fallback
}

// intField handles both float64 (decoded JSON numbers) and int values.
func intField(sources []map[string]any, key string) int {
	for _, src := range sources {
		if src == nil {
			continue
		}
		switch n := src[key].(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}
