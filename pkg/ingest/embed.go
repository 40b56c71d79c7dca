package ingest

import (
	"context"
	"fmt"

	"animebase/internal/util"
	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/logger"
	"animebase/pkg/store"
)

// embedTries bounds the retries for one embedding call.
const embedTries = 3

// Embedder persists entity records and scene scripts together with their
// embeddings. Embedding text for an entity is its name joined with every
// scene content it appears in, so lookups match on context, not just labels.
type Embedder struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage
}

// NewEmbedder creates an Embedder over the given collaborators.
func NewEmbedder(aiClient ai.GraphAIClient, storage store.GraphStorage) *Embedder {
	return &Embedder{aiClient: aiClient, storage: storage}
}

// SaveEntities embeds and persists every entity record. Failing on the first
// error keeps the entity and embedding tables consistent; the pipeline is
// rerun as a whole on failure.
func (e *Embedder) SaveEntities(ctx context.Context, records []common.EntityRecord) error {
	for _, record := range records {
		embedding, err := util.RetryWithContext(ctx, embedTries, func(ctx context.Context) ([]float32, error) {
			return e.aiClient.GenerateEmbedding(ctx, entityEmbeddingText(record))
		})
		if err != nil {
			return fmt.Errorf("%w: entity %q: %v", common.ErrEmbeddingUnavailable, record.Entity, err)
		}
		if err := e.storage.SaveEntity(ctx, record, embedding); err != nil {
			return fmt.Errorf("failed to persist entity %q: %w", record.Entity, err)
		}
	}
	logger.Info("[Ingest] Entities embedded", "count", len(records))
	return nil
}

// SaveScenes embeds and persists every scene script for scene-level search.
func (e *Embedder) SaveScenes(ctx context.Context, scenes []common.Scene) error {
	for _, scene := range scenes {
		embedding, err := util.RetryWithContext(ctx, embedTries, func(ctx context.Context) ([]float32, error) {
			return e.aiClient.GenerateEmbedding(ctx, scene.Script)
		})
		if err != nil {
			return fmt.Errorf("%w: scene %d: %v", common.ErrEmbeddingUnavailable, scene.ID, err)
		}
		if err := e.storage.SaveSceneEmbedding(ctx, scene.ID, embedding); err != nil {
			return fmt.Errorf("failed to persist scene %d embedding: %w", scene.ID, err)
		}
	}
	logger.Info("[Ingest] Scenes embedded", "count", len(scenes))
	return nil
}

func entityEmbeddingText(record common.EntityRecord) string {
	text := record.Entity
	for _, content := range record.Contents.Contents {
		text += "\n" + content.Body
	}
	return text
}
