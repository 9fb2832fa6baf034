package search

import "github.com/poiesic/docgraph/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps during a query.
type SearchMonitor interface {
	Start(query string)
	AfterSeedSelection(seeds []Seed)
	AfterTraversal(visited int)
	DirectMatch(node *core.Node, similarity float64)
	Finish(snippets []core.Snippet)
}

// Seed is a traversal start point: a node with high query similarity.
type Seed struct {
	Id         core.NodeID
	Similarity float64
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterSeedSelection(_ []Seed)         {}
func (n *noopMonitor) AfterTraversal(_ int)                {}
func (n *noopMonitor) DirectMatch(_ *core.Node, _ float64) {}
func (n *noopMonitor) Finish(_ []core.Snippet)             {}
