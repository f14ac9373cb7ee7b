package users

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers user routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{userService: NewService(db)}

	g.POST("", h.create)
	g.GET("/me", h.retrieveMe)
	g.POST("/me", h.updateMe)
	g.POST("/me/login", h.recordLogin)
	g.GET("/me/profile", h.retrieveProfile)
	g.POST("/me/profile", h.updateProfile)
	g.DELETE("/me", h.deleteMe)
}
