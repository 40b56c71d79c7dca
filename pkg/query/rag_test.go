package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/store"
)

func newTestRAG(aiClient *stubAIClient, storage *stubStorage) *RAG {
	graphs := graph.NewHolder(testGraph())
	index := NewVectorIndex(aiClient, storage)
	retriever := NewRetriever(aiClient, index, graphs, nil)
	selector := NewStrategySelector(aiClient)
	return NewRAG(aiClient, retriever, selector)
}

func TestAnswerFastPath(t *testing.T) {
	var answerPrompt string
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			switch v := out.(type) {
			case *strategyResponse:
				v.Strategy = "FAST"
			case *Response:
				answerPrompt = prompt
				v.Answer = "He fights."
				v.Explanation = "The scene shows Eren declaring he will fight."
			default:
				return fmt.Errorf("unexpected format target %T", out)
			}
			return nil
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return []store.Match{{Label: "Eren Yeager", Score: 0.9}}, nil
		},
	}

	resp, err := newTestRAG(aiClient, storage).Answer(context.Background(), "what will eren do?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Answer != "He fights." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if !strings.Contains(answerPrompt, "Eren:I will fight") {
		t.Errorf("synthesis prompt is missing the retrieved scene:\n%s", answerPrompt)
	}
	if !strings.Contains(answerPrompt, "what will eren do?") {
		t.Errorf("synthesis prompt is missing the question:\n%s", answerPrompt)
	}
}

func TestAnswerEmptyContextStillSynthesizes(t *testing.T) {
	synthesisCalled := false
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			switch v := out.(type) {
			case *strategyResponse:
				v.Strategy = "FAST"
			case *Response:
				synthesisCalled = true
				v.Answer = "Cannot determine from known information."
			}
			return nil
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return nil, nil
		},
	}

	resp, err := newTestRAG(aiClient, storage).Answer(context.Background(), "who is the narrator's pet?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !synthesisCalled {
		t.Error("synthesis must run even with an empty context")
	}
	if resp.Answer == "" {
		t.Error("expected a non-empty refusal answer")
	}
}

func TestAnswerStrategyFailurePropagates(t *testing.T) {
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			if v, ok := out.(*strategyResponse); ok {
				v.Strategy = "SOMETIMES"
				return nil
			}
			return fmt.Errorf("unexpected call")
		},
	}
	storage := &stubStorage{}

	_, err := newTestRAG(aiClient, storage).Answer(context.Background(), "anything")
	if !errors.Is(err, common.ErrStrategyParse) {
		t.Errorf("Answer() error = %v, want ErrStrategyParse", err)
	}
}

func TestAnswerSynthesisFailure(t *testing.T) {
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			if v, ok := out.(*strategyResponse); ok {
				v.Strategy = "FAST"
				return nil
			}
			return ai.UnmarshalFlexible("I would rather answer in prose", out)
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return []store.Match{{Label: "Eren Yeager", Score: 0.9}}, nil
		},
	}

	_, err := newTestRAG(aiClient, storage).Answer(context.Background(), "anything")
	if !errors.Is(err, common.ErrSynthesis) {
		t.Errorf("Answer() error = %v, want ErrSynthesis", err)
	}
}

func TestAnswerSynthesisTransportFailure(t *testing.T) {
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			if v, ok := out.(*strategyResponse); ok {
				v.Strategy = "FAST"
				return nil
			}
			return fmt.Errorf("upstream timeout")
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return []store.Match{{Label: "Eren Yeager", Score: 0.9}}, nil
		},
	}

	_, err := newTestRAG(aiClient, storage).Answer(context.Background(), "anything")
	if err == nil {
		t.Fatal("Answer() should fail when the synthesis call fails")
	}
	if errors.Is(err, common.ErrSynthesis) {
		t.Error("a failed model call must not be reported as unusable model output")
	}
}
