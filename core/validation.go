// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateNode validates a Node according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//   - Offset must not be negative
//   - Type must be a valid NodeType
//   - qa nodes must carry both question and answer text
func ValidateNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidArgument)
	}
	if node.Text == "" {
		return fmt.Errorf("%w: node %d has empty text", ErrInvalidArgument, node.Id)
	}
	if node.Source == "" {
		return fmt.Errorf("%w: node %d has empty source", ErrInvalidArgument, node.Id)
	}
	if node.Offset < 0 {
		return fmt.Errorf("%w: node %d has negative offset", ErrInvalidArgument, node.Id)
	}
	if err := ValidateNodeType(node.Type); err != nil {
		return fmt.Errorf("node %d: %w", node.Id, err)
	}
	if node.Type == NodeTypeQA && (node.Question == "" || node.Answer == "") {
		return fmt.Errorf("%w: qa node %d missing question or answer", ErrInvalidArgument, node.Id)
	}
	return nil
}

// ValidateNodeType validates that a NodeType has a valid value.
func ValidateNodeType(t NodeType) error {
	switch t {
	case NodeTypeFact, NodeTypeProcedure, NodeTypeQA:
		return nil
	}
	return fmt.Errorf("%w: invalid node type %d", ErrInvalidArgument, t)
}

// ValidateEdgeType validates that an EdgeType has a valid value.
func ValidateEdgeType(t EdgeType) error {
	switch t {
	case EdgeTypeSameDocument, EdgeTypeSemantic, EdgeTypeReference:
		return nil
	}
	return fmt.Errorf("%w: invalid edge type %d", ErrInvalidArgument, t)
}

// ValidateGraph checks structural graph invariants: every edge references
// two existing nodes, no self-loops, pairs normalized Source < Target, and
// weights within [0, 1].
func ValidateGraph(g *Graph) error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidArgument)
	}
	for _, node := range g.Nodes {
		if err := ValidateNode(node); err != nil {
			return err
		}
	}
	for _, edge := range g.Edges {
		if edge.Source >= edge.Target {
			return fmt.Errorf("%w: edge (%d,%d) not normalized", ErrInvalidArgument, edge.Source, edge.Target)
		}
		if _, ok := g.Nodes[edge.Source]; !ok {
			return fmt.Errorf("%w: edge references unknown node %d", ErrInvalidArgument, edge.Source)
		}
		if _, ok := g.Nodes[edge.Target]; !ok {
			return fmt.Errorf("%w: edge references unknown node %d", ErrInvalidArgument, edge.Target)
		}
		if edge.Weight < 0 || edge.Weight > 1 {
			return fmt.Errorf("%w: edge (%d,%d) weight %f out of range", ErrInvalidArgument, edge.Source, edge.Target, edge.Weight)
		}
		if err := ValidateEdgeType(edge.Type); err != nil {
			return err
		}
	}
	return nil
}
