package query

import (
	"context"
	"fmt"

	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/logger"
)

const (
	// fastK and fastMinScore bound the content lookup shared by both modes.
	fastK        = 5
	fastMinScore = 0.55

	// resolveMinScore gates fuzzy entity resolution during associative
	// retrieval. Only confident matches are kept; everything else is dropped
	// silently so one mistranslated nickname cannot derail the query.
	resolveK        = 1
	resolveMinScore = 0.8
)

type mentionsResponse struct {
	Entities []string `json:"entities"`
}

// Retriever assembles the context for one query using one of two modes over
// the read-only knowledge graph and the vector index. A Retriever holds no
// per-query state; calls are independent and safe to run concurrently.
type Retriever struct {
	aiClient ai.GraphAIClient
	index    *VectorIndex
	graphs   *graph.Holder
	norm     *graph.Normalizer
}

// NewRetriever creates a Retriever over the given collaborators.
func NewRetriever(
	aiClient ai.GraphAIClient,
	index *VectorIndex,
	graphs *graph.Holder,
	norm *graph.Normalizer,
) *Retriever {
	if norm == nil {
		norm = graph.NewNormalizer(nil)
	}
	return &Retriever{
		aiClient: aiClient,
		index:    index,
		graphs:   graphs,
		norm:     norm,
	}
}

// Retrieve dispatches on the given strategy. The strategy set is closed; an
// unknown value is a programming error.
func (r *Retriever) Retrieve(ctx context.Context, strategy Strategy, query string) (*graph.Context, error) {
	switch strategy {
	case StrategyFast:
		return r.FastRetrieve(ctx, query)
	case StrategyAssociate:
		return r.AssociateRetrieve(ctx, query)
	default:
		return nil, fmt.Errorf("unhandled retrieval strategy: %s", strategy)
	}
}

// FastRetrieve performs the direct mode: one embedding lookup of the query
// against the entity index, then the union of the matched entities' contents.
// A single lookup is enough when the query already closely matches known
// entity names or content.
func (r *Retriever) FastRetrieve(ctx context.Context, query string) (*graph.Context, error) {
	g := r.graphs.Get()
	retrieved := graph.NewContext()

	if err := r.lookupInto(ctx, g, query, retrieved); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRetrievalUnavailable, err)
	}

	logger.Debug("[Retriever] Fast retrieval done", "contents", retrieved.Len())
	return retrieved, nil
}

// AssociateRetrieve performs the associative mode: extract the entity
// mentions from the query, resolve each against the graph (exact match first,
// then a high-threshold fuzzy lookup), take the subgraph induced by the
// resolved set, and re-query with every relation phrase found there plus the
// original query. Individual failed mentions or phrase lookups are dropped;
// the call returns whatever context accumulated.
func (r *Retriever) AssociateRetrieve(ctx context.Context, query string) (*graph.Context, error) {
	g := r.graphs.Get()

	mentions, err := r.extractMentions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRetrievalUnavailable, err)
	}

	resolved := r.resolveMentions(ctx, g, mentions)

	phrases := make([]string, 0)
	for _, edge := range g.Subgraph(resolved) {
		phrases = append(phrases, edge.Phrase())
	}
	logger.Debug("[Retriever] Associative expansion",
		"mentions", len(mentions), "resolved", len(resolved), "phrases", len(phrases))

	retrieved := graph.NewContext()
	failed := 0
	for _, text := range append(phrases, query) {
		if err := r.lookupInto(ctx, g, text, retrieved); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("[Retriever] Associative lookup failed", "text", text, "err", err)
			failed++
		}
	}

	// Partial results are fine, but if every single lookup failed the
	// services are down as a whole, not flaky per-item.
	if failed == len(phrases)+1 {
		return nil, fmt.Errorf("%w: all %d lookups failed", common.ErrRetrievalUnavailable, failed)
	}

	return retrieved, nil
}

// lookupInto runs one fast-style lookup of text and unions the matched
// entities' contents into retrieved.
func (r *Retriever) lookupInto(
	ctx context.Context,
	g *graph.KnowledgeGraph,
	text string,
	retrieved *graph.Context,
) error {
	matches, err := r.index.NearestEntitiesByText(ctx, text, fastK, fastMinScore)
	if err != nil {
		return err
	}

	for _, m := range matches {
		contents, ok := g.ContentsOf(m.Label)
		if !ok {
			continue
		}
		retrieved.AddAll(contents)
	}
	return nil
}

func (r *Retriever) extractMentions(ctx context.Context, query string) ([]string, error) {
	var resp mentionsResponse
	err := r.aiClient.GenerateCompletionWithFormat(
		ctx,
		"mentions",
		"entities mentioned in the question",
		fmt.Sprintf("Question:\n\n%s", query),
		&resp,
		ai.WithSystemPrompts(ai.MentionPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionUnavailable, err)
	}
	return resp.Entities, nil
}

// resolveMentions maps query mentions onto graph entities. Exact matches are
// kept as-is; the rest go through a single high-threshold nearest-neighbor
// lookup. Mentions that fail to embed or clear the threshold are dropped.
func (r *Retriever) resolveMentions(
	ctx context.Context,
	g *graph.KnowledgeGraph,
	mentions []string,
) []string {
	resolved := make([]string, 0, len(mentions))
	seen := make(map[string]struct{}, len(mentions))

	keep := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		resolved = append(resolved, name)
	}

	for _, mention := range mentions {
		name := r.norm.Normalize(mention)
		if g.HasEntity(name) {
			keep(name)
			continue
		}

		matches, err := r.index.NearestEntitiesByText(ctx, name, resolveK, resolveMinScore)
		if err != nil {
			logger.Warn("[Retriever] Failed to resolve mention", "mention", mention, "err", err)
			continue
		}
		if len(matches) == 0 {
			logger.Debug("[Retriever] Mention below resolve threshold", "mention", mention)
			continue
		}
		keep(matches[0].Label)
	}

	return resolved
}
