package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"animebase/internal/util"
	"animebase/pkg/ai"
	"animebase/pkg/graph"
	"animebase/pkg/ingest"
	"animebase/pkg/logger"
	graphstorage "animebase/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessRebuildMessage runs one full graph rebuild job. The rebuilt graph
// is swapped into the holder so searches on this process pick it up
// atomically; other processes reload from the database on their own schedule.
func ProcessRebuildMessage(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	graphs *graph.Holder,
	msg string,
) error {
	data := new(RebuildGraphMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to parse rebuild message: %w", err)
	}

	path := util.GetEnvString("ALIAS_TABLE_PATH", "")
	aliases, err := graph.LoadAliasTable(path)
	if err != nil {
		logger.Warn("[Queue] Failed to load alias table, continuing without", "path", path, "err", err)
		aliases = nil
	}
	norm := graph.NewNormalizer(aliases)

	storageClient := graphstorage.NewGraphDBStorage(conn)
	pipeline := ingest.NewPipeline(aiClient, storageClient, norm)

	start := time.Now()
	logger.Info("[Queue] Starting graph rebuild", "correlation_id", data.CorrelationID)

	g, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	graphs.Swap(g)

	logger.Info("[Queue] Graph rebuild done",
		"correlation_id", data.CorrelationID,
		"entities", g.NumEntities(),
		"relations", g.NumRelations(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
