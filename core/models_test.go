package core

import (
	"math"
	"testing"
)

func TestFingerprintContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same fingerprint", content: "test content"},
		{name: "empty input", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := FingerprintContent([]byte(tt.content))
			fp2 := FingerprintContent([]byte(tt.content))

			if fp1 != fp2 {
				t.Errorf("FingerprintContent() produced different values for same content: %d vs %d", fp1, fp2)
			}
		})
	}
}

func TestFingerprintContent_Different(t *testing.T) {
	fp1 := FingerprintContent([]byte("content1"))
	fp2 := FingerprintContent([]byte("content2"))

	if fp1 == fp2 {
		t.Errorf("FingerprintContent() produced same value for different content")
	}
}

func testNode(id NodeID) *Node {
	return &Node{
		Id:     id,
		Source: "doc.txt",
		Text:   "some text",
		Vector: []float32{1, 0},
		Type:   NodeTypeFact,
	}
}

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph()

	if err := g.AddNode(testNode(0)); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}

	t.Run("duplicate id rejected", func(t *testing.T) {
		if err := g.AddNode(testNode(0)); err == nil {
			t.Error("AddNode() with duplicate id should fail")
		}
	})

	t.Run("nil node rejected", func(t *testing.T) {
		if err := g.AddNode(nil); err == nil {
			t.Error("AddNode(nil) should fail")
		}
	})
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	for i := NodeID(0); i < 3; i++ {
		if err := g.AddNode(testNode(i)); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("normalizes pair order", func(t *testing.T) {
		err := g.AddEdge(Edge{Source: 2, Target: 0, Weight: 0.5, Type: EdgeTypeSemantic})
		if err != nil {
			t.Fatalf("AddEdge() error = %v", err)
		}
		e := g.Edges[0]
		if e.Source != 0 || e.Target != 2 {
			t.Errorf("edge not normalized: (%d,%d)", e.Source, e.Target)
		}
	})

	t.Run("duplicate pair and type is a no-op", func(t *testing.T) {
		before := g.EdgeCount()
		err := g.AddEdge(Edge{Source: 0, Target: 2, Weight: 0.9, Type: EdgeTypeSemantic})
		if err != nil {
			t.Fatalf("AddEdge() error = %v", err)
		}
		if g.EdgeCount() != before {
			t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), before)
		}
		if g.Edges[0].Weight != 0.5 {
			t.Errorf("duplicate add replaced the original weight")
		}
	})

	t.Run("same pair different type stored separately", func(t *testing.T) {
		before := g.EdgeCount()
		err := g.AddEdge(Edge{Source: 0, Target: 2, Weight: 1.0, Type: EdgeTypeSameDocument})
		if err != nil {
			t.Fatalf("AddEdge() error = %v", err)
		}
		if g.EdgeCount() != before+1 {
			t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), before+1)
		}
	})

	t.Run("self-loop rejected", func(t *testing.T) {
		if err := g.AddEdge(Edge{Source: 1, Target: 1, Weight: 0.5, Type: EdgeTypeSemantic}); err == nil {
			t.Error("AddEdge() self-loop should fail")
		}
	})

	t.Run("unknown endpoint rejected", func(t *testing.T) {
		if err := g.AddEdge(Edge{Source: 0, Target: 99, Weight: 0.5, Type: EdgeTypeSemantic}); err == nil {
			t.Error("AddEdge() with unknown node should fail")
		}
	})
}

func TestGraph_Neighbors(t *testing.T) {
	g := NewGraph()
	for i := NodeID(0); i < 3; i++ {
		if err := g.AddNode(testNode(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddEdge(Edge{Source: 0, Target: 1, Weight: 1, Type: EdgeTypeSameDocument}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(Edge{Source: 1, Target: 2, Weight: 1, Type: EdgeTypeSameDocument}); err != nil {
		t.Fatal(err)
	}

	if n := len(g.Neighbors(1)); n != 2 {
		t.Errorf("Neighbors(1) returned %d edges, want 2", n)
	}
	if n := len(g.Neighbors(0)); n != 1 {
		t.Errorf("Neighbors(0) returned %d edges, want 1", n)
	}

	e := g.Neighbors(0)[0]
	if e.Other(0) != 1 {
		t.Errorf("Other(0) = %d, want 1", e.Other(0))
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 0.0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0.0},
		{name: "empty vectors", a: nil, b: nil, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}
