package docgraph

import (
	"fmt"
	"time"

	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/search"
)

// Config holds the tunable constants of the engine. The defaults are
// reasonable starting points, not canonical optima; callers are expected to
// tune them for their corpus.
type Config struct {
	// ChunkWords is the target chunk size in words.
	ChunkWords int
	// OverlapWords is how many words consecutive chunks share.
	OverlapWords int
	// SameDocWindow is how many chunks before/after a chunk get
	// same-document edges.
	SameDocWindow int
	// SemanticThreshold is the minimum cosine similarity for a semantic edge.
	SemanticThreshold float64
	// ReferenceWeight is the fixed weight of reference edges.
	ReferenceWeight float64
	// Query holds the query-time parameters (seeds, depth, decay,
	// Q&A shortcut thresholds, visit budget).
	Query search.Params
	// PoolSize is the embedding worker pool size; 0 means the pipeline
	// default of half the CPU count.
	PoolSize int
	// MaxRetries and RetryDelay configure embedder retry with exponential
	// backoff during builds.
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with the default tuning.
func DefaultConfig() *Config {
	return &Config{
		ChunkWords:        150,
		OverlapWords:      30,
		SameDocWindow:     2,
		SemanticThreshold: 0.6,
		ReferenceWeight:   0.8,
		Query:             search.DefaultParams(),
		MaxRetries:        3,
		RetryDelay:        500 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ChunkWords <= 0 {
		return fmt.Errorf("%w: ChunkWords must be positive", core.ErrConfig)
	}
	if c.OverlapWords < 0 || c.OverlapWords >= c.ChunkWords {
		return fmt.Errorf("%w: OverlapWords must be in [0, ChunkWords)", core.ErrConfig)
	}
	if c.SemanticThreshold < 0 || c.SemanticThreshold > 1 {
		return fmt.Errorf("%w: SemanticThreshold must be in [0, 1]", core.ErrConfig)
	}
	if c.ReferenceWeight < 0 || c.ReferenceWeight > 1 {
		return fmt.Errorf("%w: ReferenceWeight must be in [0, 1]", core.ErrConfig)
	}
	if c.Query.SeedCount <= 0 || c.Query.MaxDepth < 0 || c.Query.MaxVisited <= 0 {
		return fmt.Errorf("%w: invalid query parameters", core.ErrConfig)
	}
	if c.Query.Decay <= 0 || c.Query.Decay > 1 {
		return fmt.Errorf("%w: Decay must be in (0, 1]", core.ErrConfig)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: MaxRetries must be positive", core.ErrConfig)
	}
	return nil
}
