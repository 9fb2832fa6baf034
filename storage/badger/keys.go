package badger

import (
	"encoding/binary"

	"github.com/poiesic/docgraph/core"
)

// Key prefixes for the persisted index layout
const (
	metaKey    = "idxmet"
	nodePrefix = "idxnod"
	edgePrefix = "idxedg"
)

// makeNodeKey generates a key for a node by id.
// Ids are written BigEndian so lexicographic iteration yields id order.
func makeNodeKey(id core.NodeID) []byte {
	prefix := nodePrefix + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(id))
	return buf
}

// makeEdgeKey generates a key for an edge by its position in the canonical
// edge list. BigEndian so iteration restores insertion order exactly.
func makeEdgeKey(index int) []byte {
	prefix := edgePrefix + ":"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}
