package server

import (
	"animebase/internal/server/middleware"
	"animebase/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.GET("/scenes/search", routes.SearchScenesHandler)
	apiRoutes.GET("/reports", routes.GetReportsHandler)

	// Storyboard routes
	apiRoutes.GET("/storyboards", routes.GetStoryboardsHandler)
	apiRoutes.POST("/storyboards", routes.CreateStoryboardHandler, middleware.RequireAdmin)

	// Graph routes
	apiRoutes.POST("/graph/rebuild", routes.RebuildGraphHandler, middleware.RequireAdmin)
}
