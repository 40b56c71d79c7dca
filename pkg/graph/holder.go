package graph

import "sync/atomic"

// Holder publishes the current KnowledgeGraph to concurrent readers. Rebuilds
// construct a fresh graph off to the side and Swap it in; in-flight queries
// keep the instance they started with, so no reader ever observes a graph
// mid-rebuild.
type Holder struct {
	current atomic.Pointer[KnowledgeGraph]
}

// NewHolder returns a Holder publishing the given graph.
func NewHolder(g *KnowledgeGraph) *Holder {
	h := &Holder{}
	h.current.Store(g)
	return h
}

// Get returns the currently published graph.
func (h *Holder) Get() *KnowledgeGraph {
	return h.current.Load()
}

// Swap publishes a new graph, replacing the previous one atomically.
func (h *Holder) Swap(g *KnowledgeGraph) {
	h.current.Store(g)
}
