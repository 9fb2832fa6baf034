package graph

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/ingest"
)

const (
	defaultSemanticThreshold = 0.6
	defaultSameDocWindow     = 2
	defaultReferenceWeight   = 0.8
)

// referencePattern matches a chunk explicitly naming another document,
// capturing the named file.
var referencePattern = regexp.MustCompile(`(?i)\b(?:see|refer to|as described in|as explained in)\s+([\w-]+\.(?:txt|md))`)

// Builder constructs a weighted node/edge graph from embedded chunks.
//
// Determinism: node ids are assigned by sorting chunks by
// (document, offset), and edges are added in sorted node-id order, so two
// builds over identical input documents and embedding outputs produce
// identical graphs.
type Builder struct {
	semanticThreshold float64
	sameDocWindow     int
	referenceWeight   float64
	logger            *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSemanticThreshold sets the minimum cosine similarity for a semantic
// edge. Default 0.6.
func WithSemanticThreshold(threshold float64) BuilderOption {
	return func(b *Builder) {
		b.semanticThreshold = threshold
	}
}

// WithSameDocWindow sets how many chunks before/after a chunk are connected
// by same-document edges. Default 2.
func WithSameDocWindow(window int) BuilderOption {
	return func(b *Builder) {
		if window >= 0 {
			b.sameDocWindow = window
		}
	}
}

// WithReferenceWeight sets the fixed weight of reference edges. Default 0.8.
func WithReferenceWeight(weight float64) BuilderOption {
	return func(b *Builder) {
		if weight >= 0 && weight <= 1 {
			b.referenceWeight = weight
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewBuilder creates a builder with default edge policy parameters.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		semanticThreshold: defaultSemanticThreshold,
		sameDocWindow:     defaultSameDocWindow,
		referenceWeight:   defaultReferenceWeight,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assigns deterministic node ids to all embedded chunks and constructs
// same-document, semantic, and reference edges over them.
func (b *Builder) Build(chunks []ingest.EmbeddedChunk) (*core.Graph, error) {
	sorted := make([]ingest.EmbeddedChunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Document != sorted[j].Document {
			return sorted[i].Document < sorted[j].Document
		}
		return sorted[i].Offset < sorted[j].Offset
	})

	g := core.NewGraph()
	nodes := make([]*core.Node, len(sorted))
	for i, chunk := range sorted {
		node := &core.Node{
			Id:             core.NodeID(i),
			Document:       chunk.Document,
			Source:         chunk.Source,
			Offset:         chunk.Offset,
			Text:           chunk.Text,
			Vector:         chunk.Vector,
			Type:           chunk.Type,
			Question:       chunk.Question,
			Answer:         chunk.Answer,
			QuestionVector: chunk.QuestionVector,
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("adding node %d: %w", i, err)
		}
		nodes[i] = node
	}

	if err := b.addSameDocumentEdges(g, nodes); err != nil {
		return nil, err
	}
	if err := b.addSemanticEdges(g, nodes); err != nil {
		return nil, err
	}
	if err := b.addReferenceEdges(g, nodes); err != nil {
		return nil, err
	}

	b.logger.Info("built graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// sameDocumentWeight maps a positional distance (1 = adjacent) to an edge
// weight: near 1.0 for adjacent chunks, decreasing monotonically.
func sameDocumentWeight(distance int) float64 {
	w := 1.0 - 0.2*float64(distance-1)
	if w < 0.2 {
		w = 0.2
	}
	return w
}

// addSameDocumentEdges connects chunks within the positional window inside
// one document. Nodes are id-ordered by (document, offset), so positional
// distance is id distance within a document.
func (b *Builder) addSameDocumentEdges(g *core.Graph, nodes []*core.Node) error {
	for i, node := range nodes {
		for dist := 1; dist <= b.sameDocWindow; dist++ {
			j := i + dist
			if j >= len(nodes) || nodes[j].Document != node.Document {
				break
			}
			err := g.AddEdge(core.Edge{
				Source: node.Id,
				Target: nodes[j].Id,
				Weight: sameDocumentWeight(dist),
				Type:   core.EdgeTypeSameDocument,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// addSemanticEdges connects any two chunks (same or different document)
// whose embedding cosine similarity meets the threshold; the similarity is
// the edge weight.
func (b *Builder) addSemanticEdges(g *core.Graph, nodes []*core.Node) error {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			similarity := core.CosineSimilarity(nodes[i].Vector, nodes[j].Vector)
			if similarity < b.semanticThreshold {
				continue
			}
			if similarity > 1 {
				similarity = 1 // guard against float drift on identical vectors
			}
			err := g.AddEdge(core.Edge{
				Source: nodes[i].Id,
				Target: nodes[j].Id,
				Weight: similarity,
				Type:   core.EdgeTypeSemantic,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// addReferenceEdges connects a chunk that explicitly names another document
// to that document's first chunk, with a fixed weight independent of
// similarity.
func (b *Builder) addReferenceEdges(g *core.Graph, nodes []*core.Node) error {
	// First node of each document, keyed by lowercased source name.
	firstChunk := make(map[string]*core.Node)
	for _, node := range nodes {
		key := strings.ToLower(node.Source)
		if _, ok := firstChunk[key]; !ok {
			firstChunk[key] = node
		}
	}

	for _, node := range nodes {
		for _, match := range referencePattern.FindAllStringSubmatch(node.Text, -1) {
			name := strings.ToLower(match[1])
			target, ok := firstChunk[name]
			if !ok {
				// Only references to documents in this build resolve.
				continue
			}
			if target.Document == node.Document {
				continue
			}
			err := g.AddEdge(core.Edge{
				Source: node.Id,
				Target: target.Id,
				Weight: b.referenceWeight,
				Type:   core.EdgeTypeReference,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
