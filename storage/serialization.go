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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docgraph/core"
)

// FormatVersion is the persisted index layout version. Loading a snapshot
// written with a different version fails with core.ErrIndexCorrupt.
const FormatVersion uint32 = 1

// NodeMUS serializes core.Node in MUS format.
var NodeMUS = nodeMUS{}

// EdgeMUS serializes core.Edge in MUS format.
var EdgeMUS = edgeMUS{}

// IndexMetaMUS serializes core.IndexMeta in MUS format.
var IndexMetaMUS = indexMetaMUS{}

type nodeMUS struct{}

func (nodeMUS) Marshal(node core.Node, bs []byte) (n int) {
	n = varint.Uint32.Marshal(uint32(node.Id), bs)
	n += varint.Int32.Marshal(int32(node.Document), bs[n:])
	n += ord.String.Marshal(node.Source, bs[n:])
	n += varint.Int.Marshal(node.Offset, bs[n:])
	n += ord.String.Marshal(node.Text, bs[n:])
	n += varint.Int.Marshal(int(node.Type), bs[n:])
	n += marshalVector(node.Vector, bs[n:])
	n += ord.String.Marshal(node.Question, bs[n:])
	n += ord.String.Marshal(node.Answer, bs[n:])
	n += marshalVector(node.QuestionVector, bs[n:])
	return
}

func (nodeMUS) Unmarshal(bs []byte) (node core.Node, n int, err error) {
	var n1 int
	var id uint32
	id, n, err = varint.Uint32.Unmarshal(bs)
	if err != nil {
		return
	}
	node.Id = core.NodeID(id)
	var doc int32
	doc, n1, err = varint.Int32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Document = core.DocumentID(doc)
	node.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Offset, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var kind int
	kind, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Type = core.NodeType(kind)
	node.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Question, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.Answer, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	node.QuestionVector, n1, err = unmarshalVector(bs[n:])
	n += n1
	return
}

func (nodeMUS) Size(node core.Node) (size int) {
	size = varint.Uint32.Size(uint32(node.Id))
	size += varint.Int32.Size(int32(node.Document))
	size += ord.String.Size(node.Source)
	size += varint.Int.Size(node.Offset)
	size += ord.String.Size(node.Text)
	size += varint.Int.Size(int(node.Type))
	size += sizeVector(node.Vector)
	size += ord.String.Size(node.Question)
	size += ord.String.Size(node.Answer)
	size += sizeVector(node.QuestionVector)
	return
}

type edgeMUS struct{}

func (edgeMUS) Marshal(edge core.Edge, bs []byte) (n int) {
	n = varint.Uint32.Marshal(uint32(edge.Source), bs)
	n += varint.Uint32.Marshal(uint32(edge.Target), bs[n:])
	n += raw.Float64.Marshal(edge.Weight, bs[n:])
	n += varint.Int.Marshal(int(edge.Type), bs[n:])
	return
}

func (edgeMUS) Unmarshal(bs []byte) (edge core.Edge, n int, err error) {
	var n1 int
	var id uint32
	id, n, err = varint.Uint32.Unmarshal(bs)
	if err != nil {
		return
	}
	edge.Source = core.NodeID(id)
	id, n1, err = varint.Uint32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	edge.Target = core.NodeID(id)
	edge.Weight, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var kind int
	kind, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	edge.Type = core.EdgeType(kind)
	return
}

func (edgeMUS) Size(edge core.Edge) (size int) {
	size = varint.Uint32.Size(uint32(edge.Source))
	size += varint.Uint32.Size(uint32(edge.Target))
	size += raw.Float64.Size(edge.Weight)
	size += varint.Int.Size(int(edge.Type))
	return
}

type indexMetaMUS struct{}

func (indexMetaMUS) Marshal(meta core.IndexMeta, bs []byte) (n int) {
	n = varint.Uint32.Marshal(meta.FormatVersion, bs)
	n += varint.Uint32.Marshal(meta.NodeCount, bs[n:])
	n += varint.Uint32.Marshal(meta.EdgeCount, bs[n:])
	n += ord.String.Marshal(meta.SourceDir, bs[n:])
	n += varint.Int.Marshal(meta.MaxResults, bs[n:])
	n += varint.Int64.Marshal(meta.BuiltAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(meta.ChunkCount, bs[n:])
	n += varint.Int.Marshal(meta.Dimension, bs[n:])
	n += raw.Uint64.Marshal(meta.SourceFingerprint, bs[n:])
	return
}

func (indexMetaMUS) Unmarshal(bs []byte) (meta core.IndexMeta, n int, err error) {
	var n1 int
	meta.FormatVersion, n, err = varint.Uint32.Unmarshal(bs)
	if err != nil {
		return
	}
	meta.NodeCount, n1, err = varint.Uint32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.EdgeCount, n1, err = varint.Uint32.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.SourceDir, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.MaxResults, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var builtAt int64
	builtAt, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.BuiltAt = time.UnixMicro(builtAt).UTC()
	meta.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	meta.SourceFingerprint, n1, err = raw.Uint64.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexMetaMUS) Size(meta core.IndexMeta) (size int) {
	size = varint.Uint32.Size(meta.FormatVersion)
	size += varint.Uint32.Size(meta.NodeCount)
	size += varint.Uint32.Size(meta.EdgeCount)
	size += ord.String.Size(meta.SourceDir)
	size += varint.Int.Size(meta.MaxResults)
	size += varint.Int64.Size(meta.BuiltAt.UnixMicro())
	size += varint.Int.Size(meta.ChunkCount)
	size += varint.Int.Size(meta.Dimension)
	size += raw.Uint64.Size(meta.SourceFingerprint)
	return
}

// marshalVector writes a length-prefixed float32 vector.
func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	var length int
	length, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = fmt.Errorf("%w: negative vector length", ErrSerializationFailed)
		return
	}
	if length == 0 {
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

// MarshalNode serializes a Node to bytes.
func MarshalNode(node *core.Node) []byte {
	buf := make([]byte, NodeMUS.Size(*node))
	NodeMUS.Marshal(*node, buf)
	return buf
}

// UnmarshalNode deserializes a Node from bytes.
func UnmarshalNode(data []byte) (*core.Node, error) {
	node, _, err := NodeMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: node: %v", ErrSerializationFailed, err)
	}
	return &node, nil
}

// MarshalEdge serializes an Edge to bytes.
func MarshalEdge(edge core.Edge) []byte {
	buf := make([]byte, EdgeMUS.Size(edge))
	EdgeMUS.Marshal(edge, buf)
	return buf
}

// UnmarshalEdge deserializes an Edge from bytes.
func UnmarshalEdge(data []byte) (core.Edge, error) {
	edge, _, err := EdgeMUS.Unmarshal(data)
	if err != nil {
		return core.Edge{}, fmt.Errorf("%w: edge: %v", ErrSerializationFailed, err)
	}
	return edge, nil
}

// MarshalIndexMeta serializes an IndexMeta to bytes.
func MarshalIndexMeta(meta *core.IndexMeta) []byte {
	buf := make([]byte, IndexMetaMUS.Size(*meta))
	IndexMetaMUS.Marshal(*meta, buf)
	return buf
}

// UnmarshalIndexMeta deserializes an IndexMeta from bytes.
func UnmarshalIndexMeta(data []byte) (*core.IndexMeta, error) {
	meta, _, err := IndexMetaMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: index meta: %v", ErrSerializationFailed, err)
	}
	return &meta, nil
}
