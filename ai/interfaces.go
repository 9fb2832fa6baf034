package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// The engine requires only determinism within one build (same text, same
// vector) and a fixed dimensionality; implementations must be thread-safe
// for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch, which is more efficient than calling EmbedText repeatedly.
	// The returned slice contains embeddings in the same order as the input.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
