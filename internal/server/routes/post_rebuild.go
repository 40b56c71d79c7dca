package routes

import (
	"net/http"

	"animebase/internal/queue"
	"animebase/internal/server/middleware"
	"animebase/internal/timing"
	"animebase/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RebuildGraphHandler enqueues a full graph rebuild for the worker. The
// response carries the job's correlation ID and a duration estimate derived
// from past rebuilds.
func RebuildGraphHandler(c echo.Context) error {
	type rebuildResponse struct {
		Message         string `json:"message"`
		CorrelationID   string `json:"correlation_id,omitempty"`
		EstimatedTimeMs int64  `json:"estimated_time_ms,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	storyboards, err := app.Storage.GetStoryboards(ctx)
	if err != nil {
		logger.Error("[Server] Failed to count storyboards for rebuild", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{Message: "Internal server error"})
	}

	correlationID, err := queue.PublishRebuild(app.Queue, "rebuild requested")
	if err != nil {
		logger.Error("[Server] Failed to enqueue rebuild", "err", err)
		return c.JSON(http.StatusInternalServerError, rebuildResponse{Message: "Failed to enqueue rebuild"})
	}

	prediction, err := timing.PredictProcessTime(ctx, app.DBConn, "graph_rebuild", int64(len(storyboards)))
	if err != nil {
		prediction = 0
	}

	logger.Info("[Server] Rebuild enqueued", "correlation_id", correlationID, "storyboards", len(storyboards))
	return c.JSON(http.StatusAccepted, rebuildResponse{
		Message:         "Rebuild enqueued",
		CorrelationID:   correlationID,
		EstimatedTimeMs: prediction,
	})
}
