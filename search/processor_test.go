package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docgraph/ai/mock"
	"github.com/poiesic/docgraph/core"
)

// queryEmbedder always embeds the query as a fixed vector, so tests control
// node similarities through the node vectors alone.
func queryEmbedder(queryVector []float32) *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return queryVector, nil
	}
	return m
}

func addFactNode(t *testing.T, g *core.Graph, id core.NodeID, text string, vector []float32) {
	t.Helper()
	require.NoError(t, g.AddNode(&core.Node{
		Id:     id,
		Source: "doc.txt",
		Text:   text,
		Vector: vector,
		Type:   core.NodeTypeFact,
	}))
}

func addEdge(t *testing.T, g *core.Graph, source, target core.NodeID, weight float64) {
	t.Helper()
	require.NoError(t, g.AddEdge(core.Edge{
		Source: source, Target: target, Weight: weight, Type: core.EdgeTypeSemantic,
	}))
}

func TestProcessor_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an embedder", func(t *testing.T) {
		_, err := NewProcessor(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		_, err := NewProcessor(mock.NewMockEmbedder(), WithParams(Params{SeedCount: 0, MaxVisited: 1}))
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("rejects non-positive max results", func(t *testing.T) {
		p, err := NewProcessor(mock.NewMockEmbedder())
		require.NoError(t, err)

		_, err = p.Search(ctx, core.NewGraph(), "anything", 0)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("empty graph yields empty result", func(t *testing.T) {
		p, err := NewProcessor(mock.NewMockEmbedder())
		require.NoError(t, err)

		result, err := p.Search(ctx, core.NewGraph(), "anything", 5)
		require.NoError(t, err)
		assert.Empty(t, result.Snippets)
		assert.False(t, result.Direct)
	})

	t.Run("nil graph yields empty result", func(t *testing.T) {
		p, err := NewProcessor(mock.NewMockEmbedder())
		require.NoError(t, err)

		result, err := p.Search(ctx, nil, "anything", 5)
		require.NoError(t, err)
		assert.Empty(t, result.Snippets)
	})
}

func TestProcessor_SeedRanking(t *testing.T) {
	ctx := context.Background()

	g := core.NewGraph()
	addFactNode(t, g, 0, "weak match", []float32{0.2, 0.98, 0, 0})
	addFactNode(t, g, 1, "exact match", []float32{1, 0, 0, 0})
	addFactNode(t, g, 2, "good match", []float32{0.9, 0.43, 0, 0})

	// MaxDepth 0 keeps traversal out: results are seed similarities alone.
	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 3, MaxDepth: 0, Decay: 0.7, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "the query", 10)
	require.NoError(t, err)
	require.Len(t, result.Snippets, 3)

	assert.Equal(t, core.NodeID(1), result.Snippets[0].NodeID)
	assert.Equal(t, core.NodeID(2), result.Snippets[1].NodeID)
	assert.Equal(t, core.NodeID(0), result.Snippets[2].NodeID)
	assert.InDelta(t, 1.0, result.Snippets[0].Score, 1e-6)
}

func TestProcessor_SeedTieBreak(t *testing.T) {
	ctx := context.Background()

	// Identical vectors: equal similarity, so ascending id decides.
	g := core.NewGraph()
	same := []float32{1, 0, 0, 0}
	addFactNode(t, g, 2, "third", same)
	addFactNode(t, g, 0, "first", same)
	addFactNode(t, g, 1, "second", same)

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 2, MaxDepth: 0, Decay: 0.7, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 10)
	require.NoError(t, err)
	require.Len(t, result.Snippets, 2)
	assert.Equal(t, core.NodeID(0), result.Snippets[0].NodeID)
	assert.Equal(t, core.NodeID(1), result.Snippets[1].NodeID)
}

func TestProcessor_SeedCountLimit(t *testing.T) {
	ctx := context.Background()

	g := core.NewGraph()
	for i := core.NodeID(0); i < 6; i++ {
		addFactNode(t, g, i, "node", []float32{1, float32(i) * 0.1, 0, 0})
	}

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 2, MaxDepth: 0, Decay: 0.7, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 10)
	require.NoError(t, err)
	// With no traversal, only the two seeds are visited.
	assert.Len(t, result.Snippets, 2)
	assert.Equal(t, core.NodeID(0), result.Snippets[0].NodeID, "highest similarity seeds first")
}

func TestProcessor_TraversalDecay(t *testing.T) {
	ctx := context.Background()

	// Line graph: only node 0 matches the query; 1 and 2 are reached by hops.
	g := core.NewGraph()
	addFactNode(t, g, 0, "seed", []float32{1, 0, 0, 0})
	addFactNode(t, g, 1, "one hop", []float32{0, 1, 0, 0})
	addFactNode(t, g, 2, "two hops", []float32{0, 0, 1, 0})
	addEdge(t, g, 0, 1, 0.8)
	addEdge(t, g, 1, 2, 0.8)

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 1, MaxDepth: 2, Decay: 0.5, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 10)
	require.NoError(t, err)
	require.Len(t, result.Snippets, 3)

	// Each hop multiplies by edge weight and decay: 1.0, 0.4, 0.16.
	assert.InDelta(t, 1.0, result.Snippets[0].Score, 1e-6)
	assert.InDelta(t, 0.4, result.Snippets[1].Score, 1e-6)
	assert.InDelta(t, 0.16, result.Snippets[2].Score, 1e-6)
}

func TestProcessor_TraversalDepthBound(t *testing.T) {
	ctx := context.Background()

	g := core.NewGraph()
	addFactNode(t, g, 0, "seed", []float32{1, 0, 0, 0})
	addFactNode(t, g, 1, "one hop", []float32{0, 1, 0, 0})
	addFactNode(t, g, 2, "two hops", []float32{0, 0, 1, 0})
	addEdge(t, g, 0, 1, 1.0)
	addEdge(t, g, 1, 2, 1.0)

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 1, MaxDepth: 1, Decay: 0.5, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 10)
	require.NoError(t, err)
	// Node 2 is beyond MaxDepth and never visited.
	require.Len(t, result.Snippets, 2)
	for _, s := range result.Snippets {
		assert.NotEqual(t, core.NodeID(2), s.NodeID)
	}
}

func TestProcessor_MultiplePathsKeepMaxScore(t *testing.T) {
	ctx := context.Background()

	// Diamond: two paths from the seed to node 3 with different products.
	g := core.NewGraph()
	addFactNode(t, g, 0, "seed", []float32{1, 0, 0, 0})
	addFactNode(t, g, 1, "strong path", []float32{0, 1, 0, 0})
	addFactNode(t, g, 2, "weak path", []float32{0, 0, 1, 0})
	addFactNode(t, g, 3, "target", []float32{0, 0, 0, 1})
	addEdge(t, g, 0, 1, 0.9)
	addEdge(t, g, 1, 3, 0.9)
	addEdge(t, g, 0, 2, 0.4)
	addEdge(t, g, 2, 3, 1.0)

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 1, MaxDepth: 2, Decay: 1.0, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 10)
	require.NoError(t, err)

	var targetScore float64
	for _, s := range result.Snippets {
		if s.NodeID == 3 {
			targetScore = s.Score
		}
	}
	assert.InDelta(t, 0.81, targetScore, 1e-6, "the stronger path's score wins")
}

func TestProcessor_ResultTruncation(t *testing.T) {
	ctx := context.Background()

	g := core.NewGraph()
	for i := core.NodeID(0); i < 8; i++ {
		addFactNode(t, g, i, "node", []float32{1, float32(i) * 0.05, 0, 0})
	}

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}),
		WithParams(Params{SeedCount: 8, MaxDepth: 0, Decay: 0.7, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
	require.NoError(t, err)

	result, err := p.Search(ctx, g, "query", 3)
	require.NoError(t, err)
	assert.Len(t, result.Snippets, 3)
}

func TestProcessor_DirectMatch(t *testing.T) {
	ctx := context.Background()
	queryVector := []float32{1, 0, 0, 0}

	newQAGraph := func(questionVector []float32) *core.Graph {
		g := core.NewGraph()
		require.NoError(t, g.AddNode(&core.Node{
			Id:             0,
			Source:         "faq.txt",
			Text:           "Q: How do I request a refund for my order? A: Open a support ticket within thirty days.",
			Vector:         []float32{1, 0, 0, 0},
			Type:           core.NodeTypeQA,
			Question:       "How do I request a refund for my order?",
			Answer:         "Open a support ticket within thirty days.",
			QuestionVector: questionVector,
		}))
		addFactNode(t, g, 1, "refund policy background", []float32{0.9, 0.43, 0, 0})
		return g
	}

	t.Run("fires on question similarity", func(t *testing.T) {
		g := newQAGraph([]float32{1, 0, 0, 0})

		p, err := NewProcessor(queryEmbedder(queryVector))
		require.NoError(t, err)

		result, err := p.Search(ctx, g, "how do I get my money back", 5)
		require.NoError(t, err)

		assert.True(t, result.Direct)
		assert.Equal(t, "Open a support ticket within thirty days.", result.Answer)
		require.NotEmpty(t, result.Snippets)
		assert.Equal(t, core.NodeID(0), result.Snippets[0].NodeID)
		assert.Equal(t, result.Answer, result.Snippets[0].Answer)
	})

	t.Run("fires on keyword overlap when similarity is low", func(t *testing.T) {
		// Question vector orthogonal to the query: similarity 0.
		g := newQAGraph([]float32{0, 0, 0, 1})

		p, err := NewProcessor(queryEmbedder(queryVector))
		require.NoError(t, err)

		result, err := p.Search(ctx, g, "how do I request a refund for my order", 5)
		require.NoError(t, err)
		assert.True(t, result.Direct)
	})

	t.Run("does not fire below both thresholds", func(t *testing.T) {
		g := newQAGraph([]float32{0, 0, 0, 1})

		p, err := NewProcessor(queryEmbedder(queryVector))
		require.NoError(t, err)

		result, err := p.Search(ctx, g, "completely unrelated topic", 5)
		require.NoError(t, err)
		assert.False(t, result.Direct)
		assert.Empty(t, result.Answer)
	})

	t.Run("only visited nodes qualify", func(t *testing.T) {
		// The qa node is disconnected and dissimilar: never visited.
		g := core.NewGraph()
		addFactNode(t, g, 0, "visited seed", []float32{1, 0, 0, 0})
		require.NoError(t, g.AddNode(&core.Node{
			Id:             1,
			Source:         "faq.txt",
			Text:           "Q: ? A: !",
			Vector:         []float32{0, 0, 0, 1},
			Type:           core.NodeTypeQA,
			Question:       "some question",
			Answer:         "some answer",
			QuestionVector: []float32{1, 0, 0, 0},
		}))

		p, err := NewProcessor(queryEmbedder(queryVector),
			WithParams(Params{SeedCount: 1, MaxDepth: 2, Decay: 0.7, QAThreshold: 0.25, MinKeywordOverlap: 0.8, MaxVisited: 64}))
		require.NoError(t, err)

		result, err := p.Search(ctx, g, "query", 5)
		require.NoError(t, err)
		assert.False(t, result.Direct)
	})
}

// recordingMonitor captures every callback for assertions.
type recordingMonitor struct {
	query    string
	seeds    []Seed
	visited  int
	direct   *core.Node
	finished []core.Snippet
}

func (r *recordingMonitor) Start(query string)                  { r.query = query }
func (r *recordingMonitor) AfterSeedSelection(seeds []Seed)     { r.seeds = seeds }
func (r *recordingMonitor) AfterTraversal(visited int)          { r.visited = visited }
func (r *recordingMonitor) DirectMatch(n *core.Node, _ float64) { r.direct = n }
func (r *recordingMonitor) Finish(snippets []core.Snippet)      { r.finished = snippets }

func TestProcessor_SearchWithMonitor(t *testing.T) {
	ctx := context.Background()

	g := core.NewGraph()
	addFactNode(t, g, 0, "seed", []float32{1, 0, 0, 0})
	addFactNode(t, g, 1, "neighbor", []float32{0, 1, 0, 0})
	addEdge(t, g, 0, 1, 0.9)

	p, err := NewProcessor(queryEmbedder([]float32{1, 0, 0, 0}))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	result, err := p.SearchWithMonitor(ctx, g, "observe me", 5, monitor)
	require.NoError(t, err)

	assert.Equal(t, "observe me", monitor.query)
	assert.NotEmpty(t, monitor.seeds)
	assert.Equal(t, 2, monitor.visited)
	assert.Nil(t, monitor.direct)
	assert.Equal(t, result.Snippets, monitor.finished)
}
