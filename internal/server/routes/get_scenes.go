package routes

import (
	"errors"
	"net/http"

	"animebase/internal/server/middleware"
	"animebase/pkg/common"
	"animebase/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// SearchScenesHandler finds the scenes whose scripts are nearest to a
// free-text query.
func SearchScenesHandler(c echo.Context) error {
	type searchScenesParams struct {
		Query    string  `query:"q" validate:"required"`
		K        int     `query:"k"`
		MinScore float64 `query:"min_score"`
	}

	params := new(searchScenesParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.K <= 0 {
		params.K = 5
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	matches, err := app.Index.NearestScenesByText(ctx, params.Query, params.K, params.MinScore)
	if err != nil {
		logger.Error("[Server] Scene search failed", "err", err)
		if errors.Is(err, common.ErrEmbeddingUnavailable) || errors.Is(err, common.ErrIndexUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Retrieval backend unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, matches)
}
