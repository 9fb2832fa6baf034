package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocumentID identifies a source document within one build.
// IDs are dense integers assigned by sorting documents by source name,
// so rebuilds of unchanged input produce identical ids.
type DocumentID int32

// NodeID identifies a graph node (one document chunk).
// IDs are dense integers assigned by sorting chunks by (document, offset)
// at build time, guaranteeing deterministic ids across rebuilds.
type NodeID uint32

// FingerprintContent generates a deterministic 64-bit fingerprint of content
// using BLAKE2b hashing. Identical content produces identical fingerprints.
func FingerprintContent(data []byte) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// NodeType classifies the content of a chunk.
type NodeType int

const (
	// NodeTypeFact is declarative content; the default classification.
	NodeTypeFact NodeType = iota + 1
	// NodeTypeProcedure is step-by-step or imperative content.
	NodeTypeProcedure
	// NodeTypeQA is an explicit question/answer pair.
	NodeTypeQA
)

// EdgeType classifies the relationship between two nodes.
type EdgeType int

const (
	// EdgeTypeSameDocument links positionally close chunks of one document.
	EdgeTypeSameDocument EdgeType = iota + 1
	// EdgeTypeSemantic links chunks whose embeddings are similar.
	EdgeTypeSemantic
	// EdgeTypeReference links a chunk to a document it explicitly names.
	EdgeTypeReference
)

// Document represents a raw source document before chunking.
type Document struct {
	Id     DocumentID
	Source string // file name within the source directory
	Text   string
}

// Node is one chunk of a document with its embedding vector.
// Nodes are immutable once built.
type Node struct {
	Id       NodeID
	Document DocumentID
	Source   string // owning document's source name, carried for snippets
	Offset   int    // byte offset of the chunk within the document
	Text     string
	Vector   []float32
	Type     NodeType

	// Question/Answer are set only for NodeTypeQA. QuestionVector is the
	// question text's embedding, cached at build time for the Q&A shortcut.
	Question       string
	Answer         string
	QuestionVector []float32
}

// Edge is a weighted, unordered relationship between two nodes.
// Source < Target always holds; a pair carries at most one edge per type.
type Edge struct {
	Source NodeID
	Target NodeID
	Weight float64 // in [0, 1]
	Type   EdgeType
}

// Other returns the endpoint of the edge that is not id.
func (e Edge) Other(id NodeID) NodeID {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}

// Graph is a node/edge structure over document chunks, immutable once built.
// Edges holds the canonical deduplicated edge list in insertion order;
// adjacency maps each node to its incident edges.
type Graph struct {
	Nodes     map[NodeID]*Node
	Edges     []Edge
	adjacency map[NodeID][]Edge
	edgeSet   map[edgeKey]struct{}
}

type edgeKey struct {
	source NodeID
	target NodeID
	kind   EdgeType
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		adjacency: make(map[NodeID][]Edge),
		edgeSet:   make(map[edgeKey]struct{}),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidArgument if the node is nil or its id is already taken.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return ErrInvalidArgument
	}
	if _, ok := g.Nodes[n.Id]; ok {
		return ErrInvalidArgument
	}
	g.Nodes[n.Id] = n
	return nil
}

// AddEdge adds an edge to the graph, normalizing the pair so Source < Target.
// Self-loops and edges referencing unknown nodes are rejected with
// ErrInvalidArgument. Adding a duplicate (pair, type) edge is a no-op that
// keeps the first weight; edges of different types between the same pair are
// stored separately.
func (g *Graph) AddEdge(e Edge) error {
	if e.Source == e.Target {
		return ErrInvalidArgument
	}
	if e.Source > e.Target {
		e.Source, e.Target = e.Target, e.Source
	}
	if _, ok := g.Nodes[e.Source]; !ok {
		return ErrInvalidArgument
	}
	if _, ok := g.Nodes[e.Target]; !ok {
		return ErrInvalidArgument
	}
	key := edgeKey{source: e.Source, target: e.Target, kind: e.Type}
	if _, ok := g.edgeSet[key]; ok {
		return nil
	}
	g.edgeSet[key] = struct{}{}
	g.Edges = append(g.Edges, e)
	g.adjacency[e.Source] = append(g.adjacency[e.Source], e)
	g.adjacency[e.Target] = append(g.adjacency[e.Target], e)
	return nil
}

// Neighbors returns the edges incident to the given node.
// The returned slice must not be modified.
func (g *Graph) Neighbors(id NodeID) []Edge {
	return g.adjacency[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of unique (pair, type) edges.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// IndexMeta is the persisted header and metadata of one index snapshot.
type IndexMeta struct {
	FormatVersion     uint32
	NodeCount         uint32
	EdgeCount         uint32
	SourceDir         string
	MaxResults        int
	BuiltAt           time.Time
	ChunkCount        int
	Dimension         int
	SourceFingerprint uint64
}

// Snippet is the result unit returned to callers: one ranked chunk,
// optionally carrying a direct answer when the Q&A shortcut fired.
type Snippet struct {
	NodeID NodeID
	Text   string
	Source string
	Score  float64
	Answer string // non-empty only for a direct Q&A match
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
