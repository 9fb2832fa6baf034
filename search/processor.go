package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
)

// Params are the tunable constants of the query algorithm.
type Params struct {
	// SeedCount is how many top-similarity nodes start the traversal.
	SeedCount int
	// MaxDepth bounds the traversal in hops from a seed.
	MaxDepth int
	// Decay is multiplied into the score once per hop.
	Decay float64
	// QAThreshold is the minimum question similarity for the Q&A shortcut.
	QAThreshold float64
	// MinKeywordOverlap is the minimum fraction of query content words that
	// must appear in a stored question for the shortcut to fire without
	// meeting QAThreshold.
	MinKeywordOverlap float64
	// MaxVisited caps how many traversal expansions one query may perform.
	MaxVisited int
}

// DefaultParams returns the default query parameters.
func DefaultParams() Params {
	return Params{
		SeedCount:         5,
		MaxDepth:          2,
		Decay:             0.7,
		QAThreshold:       0.25,
		MinKeywordOverlap: 0.8,
		MaxVisited:        1024,
	}
}

// Processor answers queries against an immutable graph snapshot: it seeds
// by query similarity, expands the graph with weighted decayed scores,
// ranks visited nodes, and applies the Q&A shortcut.
//
// A Processor is read-only with respect to the graph and safe for
// concurrent use by multiple callers.
type Processor struct {
	embedder ai.Embedder
	params   Params
	logger   *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor) error

// WithParams overrides the default query parameters.
func WithParams(params Params) Option {
	return func(p *Processor) error {
		if params.SeedCount <= 0 || params.MaxDepth < 0 || params.MaxVisited <= 0 {
			return core.ErrInvalidArgument
		}
		p.params = params
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProcessor creates a query processor.
func NewProcessor(embedder ai.Embedder, opts ...Option) (*Processor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Processor{
		embedder: embedder,
		params:   DefaultParams(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Result is the outcome of one query.
type Result struct {
	// Snippets are the ranked results, at most maxResults of them.
	Snippets []core.Snippet
	// Answer is the stored answer of a direct Q&A match, when Direct is set.
	Answer string
	// Direct reports whether the Q&A shortcut fired.
	Direct bool
}

// Search answers a query against the given graph snapshot.
// Returns up to maxResults ranked snippets; an empty graph yields an empty
// result with no error. A non-positive maxResults is rejected with
// core.ErrInvalidArgument.
func (p *Processor) Search(ctx context.Context, g *core.Graph, query string, maxResults int) (*Result, error) {
	return p.SearchWithMonitor(ctx, g, query, maxResults, nil)
}

// SearchWithMonitor answers a query with monitoring callbacks at each stage.
func (p *Processor) SearchWithMonitor(ctx context.Context, g *core.Graph, query string, maxResults int, monitor SearchMonitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxResults <= 0 {
		return nil, core.ErrInvalidArgument
	}

	monitor.Start(query)

	if g == nil || g.NodeCount() == 0 {
		return &Result{}, nil
	}

	queryVector, err := p.embedder.EmbedText(ctx, query)
	if err != nil {
		p.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	seeds := p.selectSeeds(g, queryVector)
	monitor.AfterSeedSelection(seeds)
	if len(seeds) == 0 {
		return &Result{}, nil
	}

	scores := p.traverse(g, seeds)
	monitor.AfterTraversal(len(scores))

	result := &Result{
		Snippets: p.rank(g, scores, maxResults),
	}

	if node, similarity := p.directMatch(g, scores, queryVector, query); node != nil {
		monitor.DirectMatch(node, similarity)
		result.Direct = true
		result.Answer = node.Answer
		for i := range result.Snippets {
			if result.Snippets[i].NodeID == node.Id {
				result.Snippets[i].Answer = node.Answer
			}
		}
	}

	monitor.Finish(result.Snippets)
	return result, nil
}

// selectSeeds picks the top-SeedCount nodes by query similarity,
// descending, ties broken by ascending node id.
func (p *Processor) selectSeeds(g *core.Graph, queryVector []float32) []Seed {
	candidates := make([]Seed, 0, len(g.Nodes))
	for id, node := range g.Nodes {
		candidates = append(candidates, Seed{
			Id:         id,
			Similarity: core.CosineSimilarity(queryVector, node.Vector),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Id < candidates[j].Id
	})
	if len(candidates) > p.params.SeedCount {
		candidates = candidates[:p.params.SeedCount]
	}
	return candidates
}

type frontier struct {
	id    core.NodeID
	score float64
	depth int
}

type visitKey struct {
	id    core.NodeID
	depth int
}

// traverse expands the graph from the seeds up to MaxDepth hops. A node's
// score is seed similarity × product of traversed edge weights × Decay per
// hop; a node reachable via multiple paths keeps only its maximum score.
// Expansion is additionally bounded by the MaxVisited budget.
func (p *Processor) traverse(g *core.Graph, seeds []Seed) map[core.NodeID]float64 {
	best := make(map[core.NodeID]float64)
	bestAtDepth := make(map[visitKey]float64)

	var queue []frontier
	for _, seed := range seeds {
		if seed.Similarity > best[seed.Id] {
			best[seed.Id] = seed.Similarity
		}
		key := visitKey{id: seed.Id, depth: 0}
		if seed.Similarity > bestAtDepth[key] {
			bestAtDepth[key] = seed.Similarity
			queue = append(queue, frontier{id: seed.Id, score: seed.Similarity, depth: 0})
		}
	}

	expansions := 0
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		// Superseded by a better path to the same node and depth.
		if f.score < bestAtDepth[visitKey{id: f.id, depth: f.depth}] {
			continue
		}
		if f.depth >= p.params.MaxDepth {
			continue
		}
		if expansions >= p.params.MaxVisited {
			p.logger.Warn("traversal visit budget exhausted", "budget", p.params.MaxVisited)
			break
		}
		expansions++

		for _, edge := range g.Neighbors(f.id) {
			next := edge.Other(f.id)
			score := f.score * edge.Weight * p.params.Decay
			if score <= 0 {
				continue
			}
			key := visitKey{id: next, depth: f.depth + 1}
			if score <= bestAtDepth[key] {
				continue
			}
			bestAtDepth[key] = score
			if score > best[next] {
				best[next] = score
			}
			queue = append(queue, frontier{id: next, score: score, depth: f.depth + 1})
		}
	}

	return best
}

// rank orders all visited nodes by score descending (ties ascending id) and
// truncates to maxResults snippets.
func (p *Processor) rank(g *core.Graph, scores map[core.NodeID]float64, maxResults int) []core.Snippet {
	ranked := make([]core.Snippet, 0, len(scores))
	for id, score := range scores {
		node := g.Nodes[id]
		ranked = append(ranked, core.Snippet{
			NodeID: id,
			Text:   node.Text,
			Source: node.Source,
			Score:  score,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].NodeID < ranked[j].NodeID
	})
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

// directMatch looks for a visited qa node whose stored question matches the
// query: question-embedding similarity at or above QAThreshold, or keyword
// overlap at or above MinKeywordOverlap. Among qualifying nodes the one
// with the highest similarity wins, ties broken by ascending id.
func (p *Processor) directMatch(g *core.Graph, scores map[core.NodeID]float64, queryVector []float32, query string) (*core.Node, float64) {
	ids := make([]core.NodeID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var match *core.Node
	var matchSimilarity float64
	for _, id := range ids {
		node := g.Nodes[id]
		if node.Type != core.NodeTypeQA {
			continue
		}
		similarity := core.CosineSimilarity(queryVector, node.QuestionVector)
		if similarity < p.params.QAThreshold &&
			keywordOverlap(node.Question, query) < p.params.MinKeywordOverlap {
			continue
		}
		if match == nil || similarity > matchSimilarity {
			match = node
			matchSimilarity = similarity
		}
	}
	return match, matchSimilarity
}
