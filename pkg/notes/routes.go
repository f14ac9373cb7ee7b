package notes

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers note routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{noteService: NewService(db)}

	g.GET("", h.list)
	g.GET("/:bookId", h.retrieve)
	g.PUT("/:bookId", h.save)
	g.DELETE("/:bookId", h.delete)
}
