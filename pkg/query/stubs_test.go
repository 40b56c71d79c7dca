package query

import (
	"context"
	"fmt"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/store"
)

// stubAIClient implements ai.GraphAIClient with overridable behavior per
// test. Unset operations fail loudly so a test cannot silently depend on
// them.
type stubAIClient struct {
	completionFn func(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error)
	formatFn     func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error
	embedFn      func(ctx context.Context, input string) ([]float32, error)
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if s.completionFn == nil {
		return "", fmt.Errorf("unexpected GenerateCompletion call")
	}
	return s.completionFn(ctx, prompt, opts...)
}

func (s *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	if s.formatFn == nil {
		return fmt.Errorf("unexpected GenerateCompletionWithFormat call")
	}
	return s.formatFn(ctx, name, description, prompt, out, opts...)
}

func (s *stubAIClient) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if s.embedFn == nil {
		return nil, fmt.Errorf("unexpected GenerateEmbedding call")
	}
	return s.embedFn(ctx, input)
}

func (s *stubAIClient) ResetMetrics()               {}
func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

// stubStorage implements store.GraphStorage for the vector search paths the
// query package exercises. The ingestion-side methods are never called here.
type stubStorage struct {
	nearestEntitiesFn func(ctx context.Context, embedding []float32, k int) ([]store.Match, error)
	nearestScenesFn   func(ctx context.Context, embedding []float32, k int) ([]store.Match, error)
}

func (s *stubStorage) NearestEntities(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
	if s.nearestEntitiesFn == nil {
		return nil, fmt.Errorf("unexpected NearestEntities call")
	}
	return s.nearestEntitiesFn(ctx, embedding, k)
}

func (s *stubStorage) NearestScenes(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
	if s.nearestScenesFn == nil {
		return nil, fmt.Errorf("unexpected NearestScenes call")
	}
	return s.nearestScenesFn(ctx, embedding, k)
}

func (s *stubStorage) SaveStoryboard(ctx context.Context, sb common.Storyboard) (int64, error) {
	return 0, fmt.Errorf("unexpected SaveStoryboard call")
}

func (s *stubStorage) GetStoryboards(ctx context.Context) ([]common.Storyboard, error) {
	return nil, fmt.Errorf("unexpected GetStoryboards call")
}

func (s *stubStorage) ClearExtraction(ctx context.Context) error {
	return fmt.Errorf("unexpected ClearExtraction call")
}

func (s *stubStorage) SaveEntity(ctx context.Context, record common.EntityRecord, embedding []float32) error {
	return fmt.Errorf("unexpected SaveEntity call")
}

func (s *stubStorage) SaveSceneRelations(ctx context.Context, scene int, relations common.Relations) error {
	return fmt.Errorf("unexpected SaveSceneRelations call")
}

func (s *stubStorage) SaveSceneEmbedding(ctx context.Context, scene int, embedding []float32) error {
	return fmt.Errorf("unexpected SaveSceneEmbedding call")
}

func (s *stubStorage) GetEntities(ctx context.Context) ([]common.EntityRecord, error) {
	return nil, fmt.Errorf("unexpected GetEntities call")
}

func (s *stubStorage) GetRelations(ctx context.Context) ([]common.RelationRecord, error) {
	return nil, fmt.Errorf("unexpected GetRelations call")
}

func (s *stubStorage) SaveCommunityReport(ctx context.Context, report common.CommunityReport) (int64, error) {
	return 0, fmt.Errorf("unexpected SaveCommunityReport call")
}

func (s *stubStorage) GetCommunityReports(ctx context.Context) ([]common.CommunityReport, error) {
	return nil, fmt.Errorf("unexpected GetCommunityReports call")
}
