package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"animebase/internal/util"
	"animebase/pkg/ai"
	"animebase/pkg/common"
	"animebase/pkg/graph"
	"animebase/pkg/logger"
	"animebase/pkg/store"
)

// reportTries bounds the retries for one community's report generation.
const reportTries = 3

// CommunityReporter writes one structured report per connected component of
// the knowledge graph. Reports precompute the global picture so broad
// questions do not have to walk the whole graph at query time.
type CommunityReporter struct {
	aiClient ai.GraphAIClient
	storage  store.GraphStorage
}

// NewCommunityReporter creates a CommunityReporter over the given
// collaborators.
func NewCommunityReporter(aiClient ai.GraphAIClient, storage store.GraphStorage) *CommunityReporter {
	return &CommunityReporter{aiClient: aiClient, storage: storage}
}

// Report generates and persists a report for every community with at least
// one relation. Failed communities are logged and skipped; the call errors
// only when every community failed.
func (c *CommunityReporter) Report(ctx context.Context, g *graph.KnowledgeGraph) error {
	communities := Communities(g)
	if len(communities) == 0 {
		logger.Info("[Ingest] No communities to report")
		return nil
	}

	failed := 0
	for i, community := range communities {
		report, err := util.RetryWithContext(ctx, reportTries, func(ctx context.Context) (*common.CommunityReport, error) {
			return c.reportCommunity(ctx, g, community)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("[Ingest] Community report failed", "community", i, "entities", len(community), "err", err)
			failed++
			continue
		}
		if _, err := c.storage.SaveCommunityReport(ctx, *report); err != nil {
			return fmt.Errorf("failed to persist community report: %w", err)
		}
	}

	if failed == len(communities) {
		return fmt.Errorf("report generation failed for all %d communities", failed)
	}
	logger.Info("[Ingest] Community reports written", "communities", len(communities), "failed", failed)
	return nil
}

func (c *CommunityReporter) reportCommunity(
	ctx context.Context,
	g *graph.KnowledgeGraph,
	community []string,
) (*common.CommunityReport, error) {
	phrases := make([]string, 0)
	for _, edge := range g.Subgraph(community) {
		phrases = append(phrases, edge.Phrase())
	}
	if len(phrases) == 0 {
		return nil, fmt.Errorf("community has no relations")
	}

	var report common.CommunityReport
	err := c.aiClient.GenerateCompletionWithFormat(
		ctx,
		"community_report",
		"report of one entity community",
		fmt.Sprintf(ai.CommunityReportPrompt, strings.Join(phrases, "\n")),
		&report,
		ai.WithTemperature(0.3),
	)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Communities returns the connected components of the graph, treating edges
// as undirected. Singleton entities form no community. Components are ordered
// by size, largest first, with member lists sorted for determinism.
func Communities(g *graph.KnowledgeGraph) [][]string {
	entities := g.Entities()
	parent := make(map[string]string, len(entities))
	for _, entity := range entities {
		parent[entity] = entity
	}

	var find func(string) string
	find = func(name string) string {
		if parent[name] != name {
			parent[name] = find(parent[name])
		}
		return parent[name]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	linked := make(map[string]struct{})
	for _, edge := range g.Edges() {
		union(edge.Source, edge.Target)
		linked[edge.Source] = struct{}{}
		linked[edge.Target] = struct{}{}
	}

	groups := make(map[string][]string)
	for entity := range linked {
		root := find(entity)
		groups[root] = append(groups[root], entity)
	}

	out := make([][]string, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}
