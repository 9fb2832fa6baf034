package core

import (
	"errors"
	"testing"
)

func validTestNode() *Node {
	return &Node{
		Id:     1,
		Source: "doc.txt",
		Offset: 0,
		Text:   "some text",
		Vector: []float32{1, 0},
		Type:   NodeTypeFact,
	}
}

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Node)
		wantErr bool
	}{
		{name: "valid fact node", mutate: func(n *Node) {}, wantErr: false},
		{name: "empty text", mutate: func(n *Node) { n.Text = "" }, wantErr: true},
		{name: "empty source", mutate: func(n *Node) { n.Source = "" }, wantErr: true},
		{name: "negative offset", mutate: func(n *Node) { n.Offset = -1 }, wantErr: true},
		{name: "invalid type", mutate: func(n *Node) { n.Type = 0 }, wantErr: true},
		{name: "qa node missing answer", mutate: func(n *Node) {
			n.Type = NodeTypeQA
			n.Question = "what is this?"
		}, wantErr: true},
		{name: "qa node missing question", mutate: func(n *Node) {
			n.Type = NodeTypeQA
			n.Answer = "this"
		}, wantErr: true},
		{name: "valid qa node", mutate: func(n *Node) {
			n.Type = NodeTypeQA
			n.Question = "what is this?"
			n.Answer = "this"
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validTestNode()
			tt.mutate(n)
			err := ValidateNode(n)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ValidateNode() error = %v, want ErrInvalidArgument", err)
			}
		})
	}

	t.Run("nil node", func(t *testing.T) {
		if err := ValidateNode(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateNode(nil) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestValidateGraph(t *testing.T) {
	buildGraph := func() *Graph {
		g := NewGraph()
		for i := NodeID(0); i < 2; i++ {
			n := validTestNode()
			n.Id = i
			if err := g.AddNode(n); err != nil {
				t.Fatal(err)
			}
		}
		if err := g.AddEdge(Edge{Source: 0, Target: 1, Weight: 0.5, Type: EdgeTypeSemantic}); err != nil {
			t.Fatal(err)
		}
		return g
	}

	t.Run("valid graph", func(t *testing.T) {
		if err := ValidateGraph(buildGraph()); err != nil {
			t.Errorf("ValidateGraph() error = %v", err)
		}
	})

	t.Run("nil graph", func(t *testing.T) {
		if err := ValidateGraph(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateGraph(nil) error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("weight out of range", func(t *testing.T) {
		g := buildGraph()
		g.Edges[0].Weight = 1.5
		if err := ValidateGraph(g); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateGraph() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("unnormalized edge", func(t *testing.T) {
		g := buildGraph()
		g.Edges[0].Source, g.Edges[0].Target = 1, 0
		if err := ValidateGraph(g); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateGraph() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("edge referencing unknown node", func(t *testing.T) {
		g := buildGraph()
		g.Edges[0].Target = 99
		if err := ValidateGraph(g); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ValidateGraph() error = %v, want ErrInvalidArgument", err)
		}
	})
}
