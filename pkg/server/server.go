package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/books2shelf/shelfd/pkg/binder"
	"github.com/books2shelf/shelfd/pkg/config"
	"github.com/books2shelf/shelfd/pkg/errcodes"
	"github.com/books2shelf/shelfd/pkg/identity"
	"github.com/books2shelf/shelfd/pkg/legacy"
	"github.com/books2shelf/shelfd/pkg/notes"
	"github.com/books2shelf/shelfd/pkg/shelf"
	"github.com/books2shelf/shelfd/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	identityMiddleware := identity.NewMiddleware(cfg.TokenSecret)
	registerProtectedRoutes(e, db, identityMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes wires every domain group behind the identity
// middleware. The user id always comes from the bearer token, never from the
// path, so one account can never address another's data.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, identityMiddleware *identity.Middleware) {
	shelfGroup := e.Group("/shelf")
	shelfGroup.Use(identityMiddleware.Authenticate)
	shelf.RegisterRoutesWithGroup(shelfGroup, db)

	notesGroup := e.Group("/notes")
	notesGroup.Use(identityMiddleware.Authenticate)
	notes.RegisterRoutesWithGroup(notesGroup, db)

	usersGroup := e.Group("/users")
	usersGroup.Use(identityMiddleware.Authenticate)
	users.RegisterRoutesWithGroup(usersGroup, db)

	migrationGroup := e.Group("/migration")
	migrationGroup.Use(identityMiddleware.Authenticate)
	legacy.RegisterRoutesWithGroup(migrationGroup, db)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
