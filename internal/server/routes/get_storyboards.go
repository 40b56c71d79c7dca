package routes

import (
	"net/http"

	"animebase/internal/server/middleware"
	"animebase/internal/storage"
	"animebase/pkg/common"
	"animebase/pkg/logger"

	"github.com/labstack/echo/v4"
)

type storyboardView struct {
	common.Storyboard
	PictureURL string `json:"picture_url,omitempty"`
}

// GetStoryboardsHandler lists the stored frames with presigned picture
// links. A frame whose link cannot be presigned is returned without one.
func GetStoryboardsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	storyboards, err := app.Storage.GetStoryboards(ctx)
	if err != nil {
		logger.Error("[Server] Failed to load storyboards", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	out := make([]storyboardView, 0, len(storyboards))
	for _, sb := range storyboards {
		view := storyboardView{Storyboard: sb}
		if sb.PictureKey != "" {
			link, err := storage.GenerateDownloadLink(ctx, app.S3, sb.PictureKey)
			if err != nil {
				logger.Warn("[Server] Failed to presign picture link", "key", sb.PictureKey, "err", err)
			} else {
				view.PictureURL = link
			}
		}
		out = append(out, view)
	}

	return c.JSON(http.StatusOK, out)
}
