package query

import (
	"context"
	"fmt"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/store"
)

// VectorIndex adapts the store's embedding tables into text-keyed
// nearest-neighbor search: it embeds the query text through the AI client and
// searches the vector index with the result.
type VectorIndex struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage
}

// NewVectorIndex creates a VectorIndex over the given collaborators.
func NewVectorIndex(aiClient ai.GraphAIClient, storage store.GraphStorage) *VectorIndex {
	return &VectorIndex{aiClient: aiClient, storage: storage}
}

// NearestEntitiesByText returns the entities nearest to the given text,
// best first. k bounds the candidates fetched from the index; minScore is a
// post-filter, so fewer than k results may come back.
func (v *VectorIndex) NearestEntitiesByText(
	ctx context.Context,
	text string,
	k int,
	minScore float64,
) ([]store.Match, error) {
	embedding, err := v.aiClient.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEmbeddingUnavailable, err)
	}

	matches, err := v.storage.NearestEntities(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}

	return filterByScore(matches, minScore), nil
}

// NearestScenesByText returns the scenes whose scripts are nearest to the
// given text, best first, with the same k/minScore semantics as
// NearestEntitiesByText.
func (v *VectorIndex) NearestScenesByText(
	ctx context.Context,
	text string,
	k int,
	minScore float64,
) ([]store.Match, error) {
	embedding, err := v.aiClient.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEmbeddingUnavailable, err)
	}

	matches, err := v.storage.NearestScenes(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexUnavailable, err)
	}

	return filterByScore(matches, minScore), nil
}

func filterByScore(matches []store.Match, minScore float64) []store.Match {
	out := make([]store.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		out = append(out, m)
	}
	return out
}
