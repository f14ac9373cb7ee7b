package users

import (
	"net/http"

	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions{
		ID:          userID,
		Email:       params.Email,
		DisplayName: params.DisplayName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) retrieveMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	user, err := h.userService.Retrieve(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

// recordLogin marks the start of a session and returns the refreshed user.
func (h *handler) recordLogin(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	if err := h.userService.RecordLogin(ctx, userID); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Retrieve(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) updateMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Update(ctx, userID, UpdateUserOptions{
		Email:       params.Email,
		DisplayName: params.DisplayName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) retrieveProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	profile, err := h.userService.RetrieveProfile(ctx, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, profile))
}

func (h *handler) updateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	params := UpdateProfilePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	profile, err := h.userService.UpdateProfile(ctx, userID, UpdateProfileOptions{
		PhotoURL:       params.PhotoURL,
		Bio:            params.Bio,
		Location:       params.Location,
		FavoriteGenres: params.FavoriteGenres,
		ReadingGoal:    params.ReadingGoal,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, profile))
}

func (h *handler) deleteMe(c echo.Context) error {
	ctx := c.Request().Context()
	userID := identity.UserID(c)

	if err := h.userService.Delete(ctx, userID); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
