package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"animebase/pkg/ai"
	"animebase/pkg/graph"
	"animebase/pkg/query"
	"animebase/pkg/store"
)

type AppUser struct {
	UserID int64
	Role   string
}

// App bundles the long-lived collaborators every handler needs. It is built
// once at startup and shared read-only.
type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	S3           *s3.Client
	AiClient     ai.GraphAIClient
	Storage      store.GraphStorage
	Graphs       *graph.Holder
	Index        *query.VectorIndex
	RAG          *query.RAG
	AuthSecret   string
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
