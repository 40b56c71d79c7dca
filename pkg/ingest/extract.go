package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"animebase/internal/util"
	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/errgroup"
)

type entitiesResponse struct {
	Entities []string `json:"entities"`
}

// Extractor runs entity and relation extraction over scene scripts. Scenes
// are processed with bounded parallelism; a scene whose extraction fails is
// logged and skipped so one bad scene cannot sink the whole episode.
type Extractor struct {
	aiClient       ai.GraphAIClient
	norm           *graph.Normalizer
	parallel       int
	maxSceneTokens int
}

// NewExtractor creates an Extractor. Parallelism comes from
// INGEST_PARALLEL_SCENES (default 4); scripts longer than
// INGEST_SCENE_TOKEN_LIMIT tokens (default 2000) are truncated before
// extraction so one runaway scene cannot blow the prompt window.
func NewExtractor(aiClient ai.GraphAIClient, norm *graph.Normalizer) *Extractor {
	if norm == nil {
		norm = graph.NewNormalizer(nil)
	}
	parallel := int(util.GetEnvNumeric("INGEST_PARALLEL_SCENES", 4))
	if parallel < 1 {
		parallel = 1
	}
	return &Extractor{
		aiClient:       aiClient,
		norm:           norm,
		parallel:       parallel,
		maxSceneTokens: int(util.GetEnvNumeric("INGEST_SCENE_TOKEN_LIMIT", 2000)),
	}
}

// capScript truncates a scene script to the given token budget. When the
// tokenizer is unavailable the script passes through untouched.
func capScript(script string, maxTokens int) string {
	if maxTokens <= 0 {
		return script
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return script
	}
	tokens := enc.Encode(script, nil, nil)
	if len(tokens) <= maxTokens {
		return script
	}
	return enc.Decode(tokens[:maxTokens])
}

// sceneExtraction is the extraction result of one scene.
type sceneExtraction struct {
	Scene     common.Scene
	Entities  []string
	Relations common.Relations
}

// ExtractScenes extracts entities and relations from every scene. Scenes
// whose extraction fails, or that carry no extractable entities, are absent
// from the result. Extraction fails as a whole only when every scene failed.
func (e *Extractor) ExtractScenes(ctx context.Context, scenes []common.Scene) ([]sceneExtraction, error) {
	results := make([]*sceneExtraction, len(scenes))
	var failed int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)

	for i, scene := range scenes {
		g.Go(func() error {
			extraction, err := e.extractScene(gctx, scene)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("[Ingest] Scene extraction failed", "scene", scene.ID, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			// extraction is nil for scenes without extractable entities.
			results[i] = extraction
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(scenes) > 0 && failed == len(scenes) {
		return nil, fmt.Errorf("%w: extraction failed for all %d scenes", common.ErrExtractionUnavailable, failed)
	}

	out := make([]sceneExtraction, 0, len(scenes))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, *r)
	}
	logger.Info("[Ingest] Scene extraction done", "scenes", len(scenes), "extracted", len(out), "failed", failed)
	return out, nil
}

func (e *Extractor) extractScene(ctx context.Context, scene common.Scene) (*sceneExtraction, error) {
	scene.Script = capScript(scene.Script, e.maxSceneTokens)

	var entities entitiesResponse
	err := e.aiClient.GenerateCompletionWithFormat(
		ctx,
		"entities",
		"core entities of the scene",
		fmt.Sprintf("Scene:\n\n%s", scene.Script),
		&entities,
		ai.WithSystemPrompts(ai.EntityPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}

	normalized := e.normalizeEntities(entities.Entities)
	if len(normalized) == 0 {
		logger.Debug("[Ingest] Scene carries no entities", "scene", scene.ID)
		return nil, nil
	}

	var relations common.Relations
	err = e.aiClient.GenerateCompletionWithFormat(
		ctx,
		"relations",
		"relations between the known entities",
		fmt.Sprintf("Known entities: %s\n\nScene:\n\n%s", strings.Join(normalized, ", "), scene.Script),
		&relations,
		ai.WithSystemPrompts(ai.RelationPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("relation extraction: %w", err)
	}

	for i, rel := range relations.Relations {
		relations.Relations[i].Source = e.norm.Normalize(rel.Source)
		relations.Relations[i].Target = e.norm.Normalize(rel.Target)
	}

	return &sceneExtraction{
		Scene:     scene,
		Entities:  normalized,
		Relations: relations,
	}, nil
}

// normalizeEntities canonicalizes and deduplicates an extracted entity list,
// preserving extraction order.
func (e *Extractor) normalizeEntities(entities []string) []string {
	out := make([]string, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		name := e.norm.Normalize(entity)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// CollectEntityRecords folds per-scene extractions into one record per
// entity. Each record's contents are the scene scripts the entity appears in,
// titled with the comma-joined entity list of that scene, in scene order.
func CollectEntityRecords(extractions []sceneExtraction) []common.EntityRecord {
	index := make(map[string]int)
	var records []common.EntityRecord

	for _, ex := range extractions {
		content := common.Content{
			Title: strings.Join(ex.Entities, ","),
			Body:  ex.Scene.Script,
		}
		for _, entity := range ex.Entities {
			i, ok := index[entity]
			if !ok {
				i = len(records)
				index[entity] = i
				records = append(records, common.EntityRecord{Entity: entity})
			}
			records[i].Contents.Contents = append(records[i].Contents.Contents, content)
		}
	}

	return records
}
