package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/store"
)

func testGraph() *graph.KnowledgeGraph {
	entities := []common.EntityRecord{
		{
			Entity: "Eren Yeager",
			Contents: common.Contents{Contents: []common.Content{
				{Title: "Eren Yeager,Mikasa Ackerman", Body: "Eren:I will fight"},
			}},
		},
		{
			Entity: "Mikasa Ackerman",
			Contents: common.Contents{Contents: []common.Content{
				{Title: "Eren Yeager,Mikasa Ackerman", Body: "Eren:I will fight"},
				{Title: "Mikasa Ackerman", Body: "Mikasa:stay close"},
			}},
		},
	}
	relations := []common.RelationRecord{
		{Source: "Mikasa Ackerman", Target: "Eren Yeager", Relation: "protects"},
	}
	return graph.Build(entities, relations, nil)
}

func TestFastRetrieveAggregatesContents(t *testing.T) {
	aiClient := &stubAIClient{
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return []store.Match{
				{Label: "Eren Yeager", Score: 0.9},
				{Label: "Mikasa Ackerman", Score: 0.7},
				{Label: "Unknown One", Score: 0.65},
			}, nil
		},
	}
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, nil)

	retrieved, err := r.Retrieve(context.Background(), StrategyFast, "what will eren do?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	// The shared scene appears in both entities' contents but only once in
	// the accumulated context.
	if got := retrieved.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestFastRetrievePropagatesBackendFailure(t *testing.T) {
	aiClient := &stubAIClient{
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return nil, fmt.Errorf("embedding server down")
		},
	}
	storage := &stubStorage{}
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, nil)

	_, err := r.FastRetrieve(context.Background(), "anything")
	if !errors.Is(err, common.ErrRetrievalUnavailable) {
		t.Errorf("FastRetrieve() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestFastRetrieveEmptyGraph(t *testing.T) {
	aiClient := &stubAIClient{
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			return nil, nil
		},
	}
	graphs := graph.NewHolder(graph.Build(nil, nil, nil))
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, nil)

	retrieved, err := r.FastRetrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("FastRetrieve() error = %v", err)
	}
	if retrieved.Len() != 0 {
		t.Errorf("Len() = %d, want 0", retrieved.Len())
	}
}

func TestAssociateRetrieveResolvesMentions(t *testing.T) {
	var lookupTexts []string
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			out.(*mentionsResponse).Entities = []string{"Eren", "Misaka", "Ghost"}
			return nil
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			lookupTexts = append(lookupTexts, input)
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			if k == 1 {
				// Mention resolution: the misspelled name resolves with a
				// confident score, the ghost does not clear the threshold.
				return []store.Match{{Label: "Mikasa Ackerman", Score: 0.85}}, nil
			}
			return []store.Match{{Label: "Mikasa Ackerman", Score: 0.8}}, nil
		},
	}
	norm := graph.NewNormalizer(map[string]string{"Eren": "Eren Yeager"})
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, norm)

	retrieved, err := r.Retrieve(context.Background(), StrategyAssociate, "how does mikasa treat eren?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if retrieved.Len() == 0 {
		t.Fatal("associative retrieval returned an empty context")
	}

	// Both resolved entities sit on one edge, so its phrase must have been
	// used as a lookup alongside the original query.
	wantPhrase := "Mikasa Ackerman -> protects -> Eren Yeager"
	found := false
	for _, text := range lookupTexts {
		if text == wantPhrase {
			found = true
		}
	}
	if !found {
		t.Errorf("relation phrase %q was never looked up, lookups: %v", wantPhrase, lookupTexts)
	}
}

func TestAssociateRetrieveDropsLowConfidenceMention(t *testing.T) {
	var lookupTexts []string
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			out.(*mentionsResponse).Entities = []string{"Eren", "Phantom Girl"}
			return nil
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			lookupTexts = append(lookupTexts, input)
			return []float32{0.1}, nil
		},
	}
	storage := &stubStorage{
		nearestEntitiesFn: func(ctx context.Context, embedding []float32, k int) ([]store.Match, error) {
			if k == 1 {
				// The best fuzzy candidate sits below the resolve threshold,
				// so the mention must be dropped rather than misresolved.
				return []store.Match{{Label: "Mikasa Ackerman", Score: 0.5}}, nil
			}
			return []store.Match{{Label: "Eren Yeager", Score: 0.8}}, nil
		},
	}
	norm := graph.NewNormalizer(map[string]string{"Eren": "Eren Yeager"})
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, norm)

	retrieved, err := r.AssociateRetrieve(context.Background(), "who is the phantom girl with eren?")
	if err != nil {
		t.Fatalf("AssociateRetrieve() error = %v", err)
	}
	if retrieved.Len() != 1 {
		t.Errorf("Len() = %d, want 1", retrieved.Len())
	}

	// With only Eren Yeager resolved the protects edge has one endpoint
	// outside the set, so its phrase must not drive a lookup.
	phrase := "Mikasa Ackerman -> protects -> Eren Yeager"
	for _, text := range lookupTexts {
		if text == phrase {
			t.Errorf("relation phrase %q was looked up despite the dropped mention", phrase)
		}
	}
}

func TestAssociateRetrieveMentionExtractionFailure(t *testing.T) {
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			return fmt.Errorf("model unavailable")
		},
	}
	storage := &stubStorage{}
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, nil)

	_, err := r.AssociateRetrieve(context.Background(), "anything")
	if !errors.Is(err, common.ErrRetrievalUnavailable) {
		t.Errorf("AssociateRetrieve() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestAssociateRetrieveAllLookupsFailed(t *testing.T) {
	aiClient := &stubAIClient{
		formatFn: func(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
			out.(*mentionsResponse).Entities = nil
			return nil
		},
		embedFn: func(ctx context.Context, input string) ([]float32, error) {
			return nil, fmt.Errorf("embedding server down")
		},
	}
	storage := &stubStorage{}
	graphs := graph.NewHolder(testGraph())
	r := NewRetriever(aiClient, NewVectorIndex(aiClient, storage), graphs, nil)

	_, err := r.AssociateRetrieve(context.Background(), "anything")
	if !errors.Is(err, common.ErrRetrievalUnavailable) {
		t.Errorf("AssociateRetrieve() error = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestRetrieveUnknownStrategy(t *testing.T) {
	r := NewRetriever(&stubAIClient{}, nil, graph.NewHolder(testGraph()), nil)

	_, err := r.Retrieve(context.Background(), Strategy(42), "anything")
	if err == nil {
		t.Fatal("Retrieve() with an unknown strategy should fail")
	}
}
