package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/storage"
)

// Store implements storage.IndexStore on BadgerDB.
// One store holds at most one index snapshot; SaveGraph replaces it.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ storage.IndexStore = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenStore opens a BadgerDB-backed index store at the specified path.
// Creates the directory if it doesn't exist.
func OpenStore(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// NewMemoryStore opens an in-memory store, for tests.
func NewMemoryStore() (*Store, error) {
	return OpenStore("", true)
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsClosed returns true if the database is closed.
func (s *Store) IsClosed() bool {
	return s.db.IsClosed()
}

// SaveGraph persists the graph, replacing any prior snapshot. The header is
// written last so a crashed save never leaves a loadable half-written index.
func (s *Store) SaveGraph(ctx context.Context, g *core.Graph, meta *core.IndexMeta) error {
	if s.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	if g == nil || meta == nil {
		return core.ErrInvalidArgument
	}

	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("%w: clearing prior snapshot: %v", core.ErrIO, err)
	}

	header := *meta
	header.FormatVersion = storage.FormatVersion
	header.NodeCount = uint32(g.NodeCount())
	header.EdgeCount = uint32(g.EdgeCount())

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	ids := make([]core.NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := wb.Set(makeNodeKey(id), storage.MarshalNode(g.Nodes[id])); err != nil {
			return fmt.Errorf("%w: writing node %d: %v", core.ErrIO, id, err)
		}
	}
	for i, edge := range g.Edges {
		if err := wb.Set(makeEdgeKey(i), storage.MarshalEdge(edge)); err != nil {
			return fmt.Errorf("%w: writing edge %d: %v", core.ErrIO, i, err)
		}
	}
	if err := wb.Set([]byte(metaKey), storage.MarshalIndexMeta(&header)); err != nil {
		return fmt.Errorf("%w: writing index header: %v", core.ErrIO, err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: flushing index: %v", core.ErrIO, err)
	}

	s.logger.Info("persisted index snapshot",
		"nodes", header.NodeCount, "edges", header.EdgeCount)
	return nil
}

// Meta reads only the persisted header/metadata.
func (s *Store) Meta(ctx context.Context) (*core.IndexMeta, error) {
	if s.db.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var meta *core.IndexMeta
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return fmt.Errorf("%w: reading index header: %v", core.ErrIO, err)
		}
		return item.Value(func(val []byte) error {
			meta, err = storage.UnmarshalIndexMeta(val)
			if err != nil {
				return fmt.Errorf("%w: %v", core.ErrIndexCorrupt, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// LoadGraph reads the persisted snapshot back into a graph.
func (s *Store) LoadGraph(ctx context.Context) (*core.Graph, *core.IndexMeta, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, fmt.Errorf("%w: no persisted index", core.ErrIndexCorrupt)
		}
		return nil, nil, err
	}
	if meta.FormatVersion != storage.FormatVersion {
		return nil, nil, fmt.Errorf("%w: format version %d, expected %d",
			core.ErrIndexCorrupt, meta.FormatVersion, storage.FormatVersion)
	}

	g := core.NewGraph()
	err = s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(nodePrefix)
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				node, err := storage.UnmarshalNode(val)
				if err != nil {
					return fmt.Errorf("%w: %v", core.ErrIndexCorrupt, err)
				}
				if err := g.AddNode(node); err != nil {
					return fmt.Errorf("%w: duplicate node id %d", core.ErrIndexCorrupt, node.Id)
				}
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(edgePrefix)
		iter = tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				edge, err := storage.UnmarshalEdge(val)
				if err != nil {
					return fmt.Errorf("%w: %v", core.ErrIndexCorrupt, err)
				}
				if err := g.AddEdge(edge); err != nil {
					return fmt.Errorf("%w: edge (%d,%d) invalid", core.ErrIndexCorrupt, edge.Source, edge.Target)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if uint32(g.NodeCount()) != meta.NodeCount || uint32(g.EdgeCount()) != meta.EdgeCount {
		return nil, nil, fmt.Errorf("%w: header counts %d/%d, loaded %d/%d",
			core.ErrIndexCorrupt, meta.NodeCount, meta.EdgeCount, g.NodeCount(), g.EdgeCount())
	}
	if err := core.ValidateGraph(g); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrIndexCorrupt, err)
	}

	s.logger.Info("loaded index snapshot",
		"nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, meta, nil
}
