package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"animebase/internal/aiclient"
	"animebase/internal/db"
	"animebase/internal/queue"
	mid "animebase/internal/server/middleware"
	"animebase/internal/storage"
	"animebase/internal/util"
	"animebase/pkg/graph"
	"animebase/pkg/logger"
	"animebase/pkg/query"
	"animebase/pkg/store"
	graphstorage "animebase/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db.Migrate()

	poolConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.RebuildQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)
	aiClient := aiclient.FromEnv()
	storageClient := graphstorage.NewGraphDBStorage(conn)

	graphs := graph.NewHolder(graph.Build(nil, nil, nil))
	loadGraph(ctx, storageClient, graphs)
	go refreshGraph(ctx, storageClient, graphs)

	index := query.NewVectorIndex(aiClient, storageClient)
	retriever := query.NewRetriever(aiClient, index, graphs, newNormalizer())
	selector := query.NewStrategySelector(aiClient)
	rag := query.NewRAG(aiClient, retriever, selector)

	app := &mid.App{
		DBConn:       conn,
		Queue:        ch,
		S3:           s3,
		AiClient:     aiClient,
		Storage:      storageClient,
		Graphs:       graphs,
		Index:        index,
		RAG:          rag,
		AuthSecret:   util.GetEnv("AUTH_SECRET"),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("32M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func newNormalizer() *graph.Normalizer {
	path := util.GetEnvString("ALIAS_TABLE_PATH", "")
	aliases, err := graph.LoadAliasTable(path)
	if err != nil {
		logger.Warn("Failed to load alias table, continuing without", "path", path, "err", err)
		aliases = nil
	}
	return graph.NewNormalizer(aliases)
}

// loadGraph rebuilds the in-memory graph from the persisted extraction and
// swaps it into the holder. Queries keep serving the previous graph until
// the swap.
func loadGraph(ctx context.Context, storageClient store.GraphStorage, graphs *graph.Holder) {
	entities, err := storageClient.GetEntities(ctx)
	if err != nil {
		logger.Error("Failed to load entities", "err", err)
		return
	}
	relations, err := storageClient.GetRelations(ctx)
	if err != nil {
		logger.Error("Failed to load relations", "err", err)
		return
	}

	g := graph.Build(entities, relations, newNormalizer())
	graphs.Swap(g)
	logger.Info("Knowledge graph loaded", "entities", g.NumEntities(), "relations", g.NumRelations())
}

// refreshGraph periodically reloads the graph so the API picks up rebuilds
// done by the worker process.
func refreshGraph(ctx context.Context, storageClient store.GraphStorage, graphs *graph.Holder) {
	interval := time.Duration(util.GetEnvNumeric("GRAPH_REFRESH_MIN", 5)) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loadGraph(ctx, storageClient, graphs)
		}
	}
}
