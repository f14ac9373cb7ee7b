package legacy

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers migration routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{legacyService: NewService(db)}

	g.GET("", h.check)
	g.POST("", h.migrate)
	g.GET("/runs", h.listRuns)
}
