package storage

import (
	"context"

	"github.com/poiesic/docgraph/core"
)

// IndexStore persists and loads graph index snapshots.
// Implementations must be thread-safe and support concurrent access: a save
// replaces the persisted snapshot wholesale while readers continue against
// whatever graph they already loaded.
type IndexStore interface {
	// SaveGraph persists the graph and its metadata, replacing any prior
	// snapshot. The store fills in the format version and node/edge counts
	// of the header. Returns an error wrapping core.ErrIO if the index
	// cannot be written.
	SaveGraph(ctx context.Context, g *core.Graph, meta *core.IndexMeta) error

	// LoadGraph reads the persisted snapshot back. Malformed data and
	// mismatched format versions are rejected with an error wrapping
	// core.ErrIndexCorrupt. Round-trips exactly: LoadGraph after SaveGraph
	// returns an equal graph.
	LoadGraph(ctx context.Context) (*core.Graph, *core.IndexMeta, error)

	// Meta reads only the persisted header/metadata.
	// Returns ErrNotFound if no snapshot has been saved.
	Meta(ctx context.Context) (*core.IndexMeta, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
