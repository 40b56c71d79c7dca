package routes

import (
	"net/http"

	"animebase/internal/server/middleware"
	"animebase/internal/storage"
	"animebase/pkg/common"
	"animebase/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// CreateStoryboardHandler stores one subtitle-bearing frame. The frame
// picture arrives as multipart file "picture" and goes to object storage;
// the metadata row goes to the database.
func CreateStoryboardHandler(c echo.Context) error {
	type createStoryboardBody struct {
		Episode     int    `form:"episode" validate:"required,numeric"`
		FrameNumber int    `form:"frame_number" validate:"required,numeric"`
		Subtitle    string `form:"subtitle"`
		Role        string `form:"role"`
		Scene       int    `form:"scene" validate:"required,numeric"`
	}

	type createStoryboardResponse struct {
		Message    string `json:"message"`
		ID         int64  `json:"id,omitempty"`
		PictureKey string `json:"picture_key,omitempty"`
	}

	data := new(createStoryboardBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createStoryboardResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createStoryboardResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	pictureKey := ""
	if upload, err := c.FormFile("picture"); err == nil {
		src, err := upload.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, createStoryboardResponse{Message: "Invalid picture upload"})
		}
		defer src.Close()

		pictureKey, err = storage.PutPicture(ctx, app.S3, data.Episode, data.FrameNumber, upload.Filename, src)
		if err != nil {
			logger.Error("[Server] Failed to upload storyboard picture", "err", err)
			return c.JSON(http.StatusInternalServerError, createStoryboardResponse{Message: "Internal server error"})
		}
	}

	id, err := app.Storage.SaveStoryboard(ctx, common.Storyboard{
		Episode:     data.Episode,
		FrameNumber: data.FrameNumber,
		Subtitle:    data.Subtitle,
		PictureKey:  pictureKey,
		Role:        data.Role,
		Scene:       data.Scene,
	})
	if err != nil {
		logger.Error("[Server] Failed to save storyboard", "err", err)
		if pictureKey != "" {
			if delErr := storage.DeletePicture(ctx, app.S3, pictureKey); delErr != nil {
				logger.Warn("[Server] Failed to remove orphaned picture", "key", pictureKey, "err", delErr)
			}
		}
		return c.JSON(http.StatusInternalServerError, createStoryboardResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusCreated, createStoryboardResponse{
		Message:    "Storyboard created",
		ID:         id,
		PictureKey: pictureKey,
	})
}
