package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docgraph/ai"
	"github.com/poiesic/docgraph/core"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// EmbeddedChunk is a classified chunk with its embedding vectors attached.
// QuestionVector is set only for qa chunks.
type EmbeddedChunk struct {
	Chunk
	Vector         []float32
	QuestionVector []float32
}

// Pipeline embeds chunk batches concurrently over a bounded worker pool.
// One unit of work is one document: documents are independent, and node-id
// assignment happens later via a deterministic sort, so worker completion
// order does not affect the build output.
type Pipeline struct {
	embedder   ai.Embedder
	pool       *ants.Pool
	maxRetries int
	retryDelay time.Duration
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRetry sets the retry policy for embedder calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgressWriter enables progress reporting to w during EmbedChunks.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new embedding pipeline.
func NewPipeline(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:   embedder,
		pool:       pool,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// EmbedChunks embeds all chunks, one pool task per document. Chunks of a
// document whose embedding fails after retries are recorded as skips
// wrapping core.ErrEmbedding; the batch continues. Results are returned
// sorted by (document, offset).
func (p *Pipeline) EmbedChunks(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, []Skip, error) {
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	byDoc := make(map[core.DocumentID][]Chunk)
	var docOrder []core.DocumentID
	for _, chunk := range chunks {
		if _, ok := byDoc[chunk.Document]; !ok {
			docOrder = append(docOrder, chunk.Document)
		}
		byDoc[chunk.Document] = append(byDoc[chunk.Document], chunk)
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(chunks), 1)
		tracker.Start()
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		embedded []EmbeddedChunk
		skipped  []Skip
	)

	for _, docID := range docOrder {
		docChunks := byDoc[docID]
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			result, err := p.embedDocument(ctx, docChunks)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("skipping document chunks after embedding failure",
					"source", docChunks[0].Source, "chunks", len(docChunks), "err", err)
				for _, chunk := range docChunks {
					skipped = append(skipped, Skip{
						Source: chunk.Source,
						Err:    fmt.Errorf("%w: %s offset %d: %v", core.ErrEmbedding, chunk.Source, chunk.Offset, err),
					})
				}
			} else {
				embedded = append(embedded, result...)
			}
			if tracker != nil {
				tracker.Increment(len(docChunks))
			}
		})
		if err != nil {
			wg.Done()
			return nil, nil, err
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	// Worker completion order is nondeterministic; restore input order.
	sort.Slice(embedded, func(i, j int) bool {
		if embedded[i].Document != embedded[j].Document {
			return embedded[i].Document < embedded[j].Document
		}
		return embedded[i].Offset < embedded[j].Offset
	})
	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].Source < skipped[j].Source
	})

	p.logger.Info("embedded chunk batch",
		"chunks", len(embedded), "skipped", len(skipped))
	return embedded, skipped, nil
}

// embedDocument embeds every chunk of one document, including the question
// text of qa chunks, in a single batched embedder call with retries.
func (p *Pipeline) embedDocument(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, error) {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	var questionAt []int // index into chunks for each appended question text
	for i, chunk := range chunks {
		if chunk.Type == core.NodeTypeQA {
			texts = append(texts, chunk.Question)
			questionAt = append(questionAt, i)
		}
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vectors))
	}

	result := make([]EmbeddedChunk, len(chunks))
	for i, chunk := range chunks {
		result[i] = EmbeddedChunk{Chunk: chunk, Vector: vectors[i]}
	}
	for qi, ci := range questionAt {
		result[ci].QuestionVector = vectors[len(chunks)+qi]
	}
	return result, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
