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

// QueryHandler answers one free-text question over the knowledge graph.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Query string `json:"query" validate:"required"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	resp, err := app.RAG.Answer(ctx, data.Query)
	if err != nil {
		logger.Error("[Server] Query failed", "err", err)
		switch {
		case errors.Is(err, common.ErrStrategyParse), errors.Is(err, common.ErrSynthesis):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Model returned an unusable response"})
		case errors.Is(err, common.ErrRetrievalUnavailable),
			errors.Is(err, common.ErrIndexUnavailable),
			errors.Is(err, common.ErrEmbeddingUnavailable),
			errors.Is(err, common.ErrExtractionUnavailable):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Retrieval backend unavailable"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, resp)
}
