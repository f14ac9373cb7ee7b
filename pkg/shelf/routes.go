package shelf

import (
	"github.com/books2shelf/shelfd/pkg/stats"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers shelf routes on a pre-configured group.
// The group is expected to carry the identity middleware already.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		shelfService: NewService(db),
		statsService: stats.NewService(db),
	}

	g.POST("", h.add)
	g.GET("", h.list)
	g.GET("/stats", h.retrieveStats)
	g.POST("/stats/recalculate", h.recalculateStats)
	g.GET("/:bookId", h.retrieve)
	g.HEAD("/:bookId", h.exists)
	g.DELETE("/:bookId", h.remove)
	g.PUT("/:bookId/status", h.updateStatus)
	g.POST("/:bookId", h.updateDetails)
}
