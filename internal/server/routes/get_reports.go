package routes

import (
	"net/http"

	"animebase/internal/server/middleware"
	"animebase/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetReportsHandler returns every community report of the current graph.
func GetReportsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	reports, err := app.Storage.GetCommunityReports(ctx)
	if err != nil {
		logger.Error("[Server] Failed to load community reports", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, reports)
}
