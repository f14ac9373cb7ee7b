package shelf

import (
	"io"
	"net/http"

	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type handler struct {
	shelfService *Service
	statsService *stats.Service
}

// add accepts raw catalog metadata rather than a fixed payload shape. The
// shape normalization and defaulting all happen in the service, so the body
// is decoded as-is here.
func (h *handler) add(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	input := map[string]any{}
	err := json.NewDecoder(c.Request().Body).Decode(&input)
	if errors.Is(err, io.EOF) {
		return errcodes.EmptyRequestBody()
	}
	if err != nil {
		return errcodes.MalformedPayload()
	}

	book, err := h.shelfService.AddBook(ctx, userID, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := ListShelfQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.shelfService.ListBooks(ctx, userID, ListBooksOptions{
		Status: params.Status,
		Limit:  params.Limit,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.ShelfBook `json:"books"`
		Total int                 `json:"total"`
	}{books, len(books)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	book, err := h.shelfService.RetrieveBook(ctx, userID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) exists(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	exists, err := h.shelfService.BookExists(ctx, userID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("Book")
	}

	return errors.WithStack(c.NoContent(http.StatusOK))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	err := h.shelfService.RemoveBook(ctx, userID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) updateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := UpdateStatusPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.shelfService.UpdateStatus(ctx, userID, c.Param("bookId"), params.Status)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) updateDetails(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := UpdateDetailsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.shelfService.UpdateDetails(ctx, userID, c.Param("bookId"), UpdateDetailsOptions{
		Rating:          params.Rating,
		Review:          params.Review,
		YearOfOwnership: params.YearOfOwnership,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) retrieveStats(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	shelfStats, err := h.statsService.Retrieve(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, shelfStats))
}

func (h *handler) recalculateStats(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	shelfStats, err := h.shelfService.RecalculateStats(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, shelfStats))
}
