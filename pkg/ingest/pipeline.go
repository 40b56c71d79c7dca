package ingest

import (
	"context"
	"fmt"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/logger"
	"animebase/pkg/store"
)

// Pipeline runs a full graph rebuild: clear the previous extraction, group
// storyboards into scenes, extract entities and relations, persist embeddings
// and write community reports. The rebuilt graph is returned so the caller
// can swap it into the serving holder.
type Pipeline struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage
	norm     *graph.Normalizer
}

// NewPipeline creates a Pipeline over the given collaborators.
func NewPipeline(aiClient ai.GraphAIClient, storage store.GraphStorage, norm *graph.Normalizer) *Pipeline {
	if norm == nil {
		norm = graph.NewNormalizer(nil)
	}
	return &Pipeline{aiClient: aiClient, storage: storage, norm: norm}
}

// Run rebuilds the knowledge graph from the stored storyboards.
func (p *Pipeline) Run(ctx context.Context) (*graph.KnowledgeGraph, error) {
	storyboards, err := p.storage.GetStoryboards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load storyboards: %w", err)
	}
	scenes := BuildScenes(storyboards)
	logger.Info("[Ingest] Starting rebuild", "storyboards", len(storyboards), "scenes", len(scenes))

	if err := p.storage.ClearExtraction(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear previous extraction: %w", err)
	}

	extractor := NewExtractor(p.aiClient, p.norm)
	extractions, err := extractor.ExtractScenes(ctx, scenes)
	if err != nil {
		return nil, err
	}

	for _, ex := range extractions {
		if err := p.storage.SaveSceneRelations(ctx, ex.Scene.ID, ex.Relations); err != nil {
			return nil, fmt.Errorf("failed to persist scene %d relations: %w", ex.Scene.ID, err)
		}
	}

	records := CollectEntityRecords(extractions)
	embedder := NewEmbedder(p.aiClient, p.storage)
	if err := embedder.SaveEntities(ctx, records); err != nil {
		return nil, err
	}

	extracted := make([]common.Scene, 0, len(extractions))
	for _, ex := range extractions {
		extracted = append(extracted, ex.Scene)
	}
	if err := embedder.SaveScenes(ctx, extracted); err != nil {
		return nil, err
	}

	relations, err := p.storage.GetRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relations: %w", err)
	}
	g := graph.Build(records, relations, p.norm)
	logger.Info("[Ingest] Graph built", "entities", g.NumEntities(), "relations", g.NumRelations())

	reporter := NewCommunityReporter(p.aiClient, p.storage)
	if err := reporter.Report(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}
