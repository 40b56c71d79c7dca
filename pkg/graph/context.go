package graph

import "animebase/pkg/common"

// Context accumulates the content fragments retrieved for one query. It
// deduplicates by full (title, body) equality while preserving insertion
// order, so repeated retrieval of the same scene neither grows the prompt nor
// reshuffles it. A Context is per-call state and not safe for concurrent use.
type Context struct {
	seen  map[common.Content]struct{}
	items []common.Content
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{seen: map[common.Content]struct{}{}}
}

// Add inserts the content if it is not already present. It reports whether
// the content was added.
func (c *Context) Add(content common.Content) bool {
	if _, ok := c.seen[content]; ok {
		return false
	}
	c.seen[content] = struct{}{}
	c.items = append(c.items, content)
	return true
}

// AddAll inserts every content of the given collection.
func (c *Context) AddAll(contents common.Contents) {
	for _, content := range contents.Contents {
		c.Add(content)
	}
}

// Merge inserts every content accumulated in other.
func (c *Context) Merge(other *Context) {
	if other == nil {
		return
	}
	for _, content := range other.items {
		c.Add(content)
	}
}

// Len returns the number of distinct contents accumulated.
func (c *Context) Len() int {
	return len(c.items)
}

// Contents returns the accumulated contents in insertion order.
func (c *Context) Contents() []common.Content {
	out := make([]common.Content, len(c.items))
	copy(out, c.items)
	return out
}

// GenerateContext concatenates the accumulated contents into the prompt
// block, one "#title\n\nbody\n\n" section per content, in insertion order.
func (c *Context) GenerateContext() string {
	var out string
	for _, content := range c.items {
		out += "#" + content.Title + "\n\n" + content.Body + "\n\n"
	}
	return out
}
