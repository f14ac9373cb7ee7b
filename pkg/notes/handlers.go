package notes

import (
	"net/http"

	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	noteService *Service
}

func (h *handler) save(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := SaveNotePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	note, err := h.noteService.SaveNote(ctx, userID, c.Param("bookId"), params.Content)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, note))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	note, err := h.noteService.RetrieveNote(ctx, userID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, note))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	err := h.noteService.DeleteNote(ctx, userID, c.Param("bookId"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	notes, err := h.noteService.ListNotes(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Notes []*models.BookNote `json:"notes"`
		Total int                `json:"total"`
	}{notes, len(notes)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
