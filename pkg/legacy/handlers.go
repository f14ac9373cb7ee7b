package legacy

import (
	"net/http"

	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/books2shelf/shelfd/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	legacyService *Service
}

func (h *handler) check(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	needed, err := h.legacyService.NeedsMigration(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		NeedsMigration bool `json:"needs_migration"`
	}{needed}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) migrate(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	run, err := h.legacyService.Migrate(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Migrated      bool `json:"migrated"`
		BooksMigrated int  `json:"books_migrated"`
	}{}
	if run != nil {
		resp.Migrated = true
		resp.BooksMigrated = run.BooksMigrated
	}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) listRuns(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	runs, err := h.legacyService.ListRuns(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Runs  []*models.MigrationRun `json:"runs"`
		Total int                    `json:"total"`
	}{runs, len(runs)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
