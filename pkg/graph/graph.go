package graph

import (
	"fmt"

	"animebase/pkg/common"
	"animebase/pkg/logger"
)

// Edge is one directed, labeled relation between two canonical entities.
type Edge struct {
	Source   string
	Relation string
	Target   string
}

// Phrase renders the edge as a directed relation phrase. The same format is
// used for associative retrieval queries and community report input.
func (e Edge) Phrase() string {
	return fmt.Sprintf("%s -> %s -> %s", e.Source, e.Relation, e.Target)
}

type node struct {
	name     string
	contents common.Contents
}

type edge struct {
	src      int
	dst      int
	relation string
}

// KnowledgeGraph is the multi-relational directed graph over the extracted
// entities. Nodes carry the aggregated scene contents of their entity; edges
// carry relation labels, with parallel edges permitted between the same pair.
//
// A KnowledgeGraph is immutable after Build and safe for concurrent readers.
// Rebuilds produce a fresh instance swapped in atomically via Holder.
type KnowledgeGraph struct {
	index map[string]int
	nodes []node
	edges []edge
	out   map[int][]int
}

// Build constructs a KnowledgeGraph from persisted entity and relation
// records. Relation endpoints are normalized before matching; a relation
// whose source or target has no entity record is dropped and counted, never
// fatal. The skip count is logged once at the end of construction.
func Build(
	entities []common.EntityRecord,
	relations []common.RelationRecord,
	norm *Normalizer,
) *KnowledgeGraph {
	if norm == nil {
		norm = NewNormalizer(nil)
	}

	g := &KnowledgeGraph{
		index: make(map[string]int, len(entities)),
		nodes: make([]node, 0, len(entities)),
		out:   make(map[int][]int),
	}

	for _, record := range entities {
		name := norm.Normalize(record.Entity)
		if name == "" {
			continue
		}
		if _, exists := g.index[name]; exists {
			continue
		}
		g.index[name] = len(g.nodes)
		g.nodes = append(g.nodes, node{name: name, contents: record.Contents})
	}

	skipped := 0
	for _, record := range relations {
		src, srcOK := g.index[norm.Normalize(record.Source)]
		dst, dstOK := g.index[norm.Normalize(record.Target)]
		if !srcOK || !dstOK {
			skipped++
			continue
		}
		g.out[src] = append(g.out[src], len(g.edges))
		g.edges = append(g.edges, edge{src: src, dst: dst, relation: record.Relation})
	}

	if skipped > 0 {
		logger.Warn("[Graph] Dropped relations with unknown endpoints", "count", skipped)
	}
	logger.Info("[Graph] Built", "entities", len(g.nodes), "relations", len(g.edges))

	return g
}

// NumEntities returns the number of nodes in the graph.
func (g *KnowledgeGraph) NumEntities() int {
	return len(g.nodes)
}

// NumRelations returns the number of edges in the graph.
func (g *KnowledgeGraph) NumRelations() int {
	return len(g.edges)
}

// HasEntity reports whether the given canonical name is a node of the graph.
func (g *KnowledgeGraph) HasEntity(entity string) bool {
	_, ok := g.index[entity]
	return ok
}

// ContentsOf returns the scene contents aggregated under the given entity.
// The second return is false if the entity is unknown.
func (g *KnowledgeGraph) ContentsOf(entity string) (common.Contents, bool) {
	idx, ok := g.index[entity]
	if !ok {
		return common.Contents{}, false
	}
	return g.nodes[idx].contents, true
}

// EdgesOf returns the outgoing edges of the given entity, in insertion order.
// An unknown entity or one without relations yields an empty slice.
func (g *KnowledgeGraph) EdgesOf(entity string) []Edge {
	idx, ok := g.index[entity]
	if !ok {
		return nil
	}

	edges := make([]Edge, 0, len(g.out[idx]))
	for _, ei := range g.out[idx] {
		edges = append(edges, g.edgeAt(ei))
	}
	return edges
}

// Subgraph returns every edge whose source and target are both inside the
// given entity set. It is used to find the relations strictly among a
// candidate set, such as the entities mentioned together in one query.
func (g *KnowledgeGraph) Subgraph(entities []string) []Edge {
	member := make(map[int]struct{}, len(entities))
	for _, e := range entities {
		if idx, ok := g.index[e]; ok {
			member[idx] = struct{}{}
		}
	}

	var edges []Edge
	for ei, e := range g.edges {
		if _, ok := member[e.src]; !ok {
			continue
		}
		if _, ok := member[e.dst]; !ok {
			continue
		}
		edges = append(edges, g.edgeAt(ei))
	}
	return edges
}

// Entities returns the canonical names of all nodes, in insertion order.
func (g *KnowledgeGraph) Entities() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.name
	}
	return names
}

// Edges returns all edges of the graph, in insertion order.
func (g *KnowledgeGraph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	for i := range g.edges {
		edges[i] = g.edgeAt(i)
	}
	return edges
}

func (g *KnowledgeGraph) edgeAt(i int) Edge {
	e := g.edges[i]
	return Edge{
		Source:   g.nodes[e.src].name,
		Relation: e.relation,
		Target:   g.nodes[e.dst].name,
	}
}
