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


// Package docgraph is a graph-based semantic document search engine. It
// ingests text documents, builds a weighted node/edge graph over embedded
// document chunks, and answers queries by seeding relevant nodes, traversing
// the graph, ranking results, and optionally short-circuiting to a direct
// question/answer match.
//
// The Engine is the single entry point; callers hold and pass the instance
// explicitly. Rebuilds are copy-on-write: a new graph snapshot atomically
// replaces the prior one, so queries in flight continue against the snapshot
// they started with and never block a rebuild.
package docgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/graph"
	"github.com/poiesic/docgraph/ingest"
	"github.com/poiesic/docgraph/search"
	"github.com/poiesic/docgraph/storage"
	badgerstore "github.com/poiesic/docgraph/storage/badger"
)

// ErrEmbedderRequired is returned when an embedder is not provided.
var ErrEmbedderRequired = errors.New("embedder required")

// EngineState is the lifecycle state of an Engine.
type EngineState int32

const (
	// StateUninitialized is the zero state before Initialize.
	StateUninitialized EngineState = iota
	// StateInitialized means paths are validated and the store is open.
	StateInitialized
	// StateReady means a graph snapshot is loaded and queries are accepted.
	StateReady
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Engine ties ingestion, graph construction, persistence, and query
// processing together behind the search surface consumed by callers.
type Engine struct {
	embedder  ai.Embedder
	cfg       *Config
	logger    *slog.Logger
	progress  io.Writer
	processor *search.Processor

	store      storage.IndexStore
	sourceDir  string
	indexPath  string
	maxResults int

	graph atomic.Pointer[core.Graph]
	meta  atomic.Pointer[core.IndexMeta]
	state atomic.Int32

	// initMu guards Initialize; buildMu serializes rebuilds. Queries take
	// neither: they read the atomic snapshot.
	initMu  sync.Mutex
	buildMu sync.Mutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithConfig overrides the default tuning.
func WithConfig(cfg *Config) EngineOption {
	return func(e *Engine) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", core.ErrConfig)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.cfg = cfg
		return nil
	}
}

// WithStore injects an index store, bypassing the default badger store
// opened at indexPath during Initialize. Intended for tests and embedders
// of the engine that manage storage themselves.
func WithStore(store storage.IndexStore) EngineOption {
	return func(e *Engine) error {
		e.store = store
		return nil
	}
}

// WithProgressWriter enables build progress reporting to w.
func WithProgressWriter(w io.Writer) EngineOption {
	return func(e *Engine) error {
		e.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an engine in the Uninitialized state.
func New(embedder ai.Embedder, opts ...EngineOption) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		embedder: embedder,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	processor, err := search.NewProcessor(embedder,
		search.WithParams(e.cfg.Query),
		search.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.processor = processor
	return e, nil
}

// State returns the engine's lifecycle state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Initialize validates the source directory, opens the index store, and
// transitions Uninitialized → Initialized. On failure the engine remains
// Uninitialized. An unreadable source directory yields core.ErrConfig; a
// non-positive maxResults yields core.ErrInvalidArgument.
func (e *Engine) Initialize(sourceDir, indexPath string, maxResults int) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.State() != StateUninitialized {
		return fmt.Errorf("%w: engine already initialized", core.ErrConfig)
	}
	if maxResults <= 0 {
		return fmt.Errorf("%w: maxResults must be positive, got %d", core.ErrInvalidArgument, maxResults)
	}
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("%w: source directory %s: %v", core.ErrConfig, sourceDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", core.ErrConfig, sourceDir)
	}
	if _, err := os.ReadDir(sourceDir); err != nil {
		return fmt.Errorf("%w: source directory %s unreadable: %v", core.ErrConfig, sourceDir, err)
	}

	if e.store == nil {
		store, err := badgerstore.OpenStore(indexPath, false)
		if err != nil {
			return fmt.Errorf("%w: opening index store at %s: %v", core.ErrIO, indexPath, err)
		}
		e.store = store
	}

	e.sourceDir = sourceDir
	e.indexPath = indexPath
	e.maxResults = maxResults
	e.state.Store(int32(StateInitialized))

	e.logger.Info("engine initialized",
		"sourceDir", sourceDir, "indexPath", indexPath, "maxResults", maxResults)
	return nil
}

// BuildIndex ingests the source directory, builds the graph, persists it,
// and transitions to Ready, atomically swapping the new snapshot in.
//
// The build is idempotent: when the persisted index's source fingerprint
// matches the current source state, the index is loaded instead of rebuilt.
// When some documents or chunks were skipped the build still completes and
// returns an error wrapping core.ErrPartialBuild; the engine is Ready.
// Only a failure to write the index at all aborts with core.ErrIO.
func (e *Engine) BuildIndex(ctx context.Context) error {
	if e.State() == StateUninitialized {
		return fmt.Errorf("%w: initialize first", core.ErrNotReady)
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	fingerprint, err := ingest.FingerprintDirectory(e.sourceDir)
	if err != nil {
		return err
	}

	if meta, err := e.store.Meta(ctx); err == nil &&
		meta.FormatVersion == storage.FormatVersion &&
		meta.SourceFingerprint == fingerprint {
		if g, m, err := e.store.LoadGraph(ctx); err == nil {
			e.swap(g, m)
			e.logger.Info("persisted index matches source state, skipping rebuild",
				"fingerprint", fingerprint)
			return nil
		}
		e.logger.Warn("persisted index unreadable despite matching header, rebuilding")
	}

	ingester := ingest.NewIngester(
		ingest.WithChunkWords(e.cfg.ChunkWords),
		ingest.WithOverlapWords(e.cfg.OverlapWords),
		ingest.WithIngesterLogger(e.logger))
	ingested, err := ingester.IngestDirectory(e.sourceDir)
	if err != nil {
		return err
	}

	pipelineOpts := []ingest.Option{
		ingest.WithRetry(e.cfg.MaxRetries, e.cfg.RetryDelay),
		ingest.WithLogger(e.logger),
	}
	if e.cfg.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(e.cfg.PoolSize))
	}
	if e.progress != nil {
		pipelineOpts = append(pipelineOpts, ingest.WithProgressWriter(e.progress))
	}
	pipeline, err := ingest.NewPipeline(e.embedder, pipelineOpts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	embedded, embedSkips, err := pipeline.EmbedChunks(ctx, ingested.Chunks)
	if err != nil {
		return err
	}

	builder := graph.NewBuilder(
		graph.WithSemanticThreshold(e.cfg.SemanticThreshold),
		graph.WithSameDocWindow(e.cfg.SameDocWindow),
		graph.WithReferenceWeight(e.cfg.ReferenceWeight),
		graph.WithLogger(e.logger))
	g, err := builder.Build(embedded)
	if err != nil {
		return err
	}

	meta := &core.IndexMeta{
		FormatVersion:     storage.FormatVersion,
		NodeCount:         uint32(g.NodeCount()),
		EdgeCount:         uint32(g.EdgeCount()),
		SourceDir:         e.sourceDir,
		MaxResults:        e.maxResults,
		BuiltAt:           time.Now().UTC(),
		ChunkCount:        len(embedded),
		Dimension:         embeddingDimension(embedded),
		SourceFingerprint: fingerprint,
	}
	if err := e.store.SaveGraph(ctx, g, meta); err != nil {
		return err
	}

	e.swap(g, meta)

	skippedDocs := len(ingested.Skipped)
	skippedChunks := len(embedSkips)
	if skippedDocs > 0 || skippedChunks > 0 {
		return fmt.Errorf("%w: skipped %d documents and %d chunks",
			core.ErrPartialBuild, skippedDocs, skippedChunks)
	}
	return nil
}

// Load reads a persisted index straight into Ready state without
// rebuilding. Malformed persisted data yields core.ErrIndexCorrupt.
func (e *Engine) Load(ctx context.Context) error {
	if e.State() == StateUninitialized {
		return fmt.Errorf("%w: initialize first", core.ErrNotReady)
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	g, meta, err := e.store.LoadGraph(ctx)
	if err != nil {
		return err
	}
	e.swap(g, meta)
	return nil
}

// swap atomically publishes a new graph snapshot and marks the engine Ready.
// In-flight queries keep the snapshot they already loaded.
func (e *Engine) swap(g *core.Graph, meta *core.IndexMeta) {
	e.graph.Store(g)
	e.meta.Store(meta)
	e.state.Store(int32(StateReady))
}

// Search answers a query with up to maxResults ranked snippets. When a
// direct Q&A match exists, the matching snippet carries the stored answer.
// Requires Ready state; otherwise core.ErrNotReady with no snippets.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]core.Snippet, error) {
	result, err := e.search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return result.Snippets, nil
}

// Ask answers a query as caller-facing text: a direct Q&A answer verbatim,
// or a composed summary of the top-ranked snippets. Uses the maxResults
// configured at Initialize.
func (e *Engine) Ask(ctx context.Context, query string) (string, error) {
	result, err := e.search(ctx, query, e.maxResults)
	if err != nil {
		return "", err
	}
	return search.Compose(result), nil
}

func (e *Engine) search(ctx context.Context, query string, maxResults int) (*search.Result, error) {
	if e.State() != StateReady {
		return nil, fmt.Errorf("%w: engine state %s", core.ErrNotReady, e.State())
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: maxResults must be positive, got %d", core.ErrInvalidArgument, maxResults)
	}
	return e.processor.Search(ctx, e.graph.Load(), query, maxResults)
}

// Meta returns the metadata of the current snapshot, or nil before Ready.
func (e *Engine) Meta() *core.IndexMeta {
	return e.meta.Load()
}

// Close closes the index store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// embeddingDimension returns the vector dimension of the batch, 0 if empty.
func embeddingDimension(chunks []ingest.EmbeddedChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	return len(chunks[0].Vector)
}
