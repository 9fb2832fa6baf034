package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode"

	"github.com/poiesic/docgraph/core"
)

const (
	defaultChunkWords   = 150
	defaultOverlapWords = 30
)

// Chunk is one classified span of document text, not yet embedded.
type Chunk struct {
	Document core.DocumentID
	Source   string
	Offset   int // byte offset of the chunk within the document
	Text     string
	Type     core.NodeType
	Question string // set only for qa chunks
	Answer   string // set only for qa chunks
}

// Skip records a document or chunk that was excluded from the build.
type Skip struct {
	Source string
	Err    error
}

// Result is the outcome of ingesting one source directory.
type Result struct {
	Documents []core.Document
	Chunks    []Chunk
	Skipped   []Skip
}

// Ingester splits source documents into overlapping classified chunks.
type Ingester struct {
	chunkWords   int
	overlapWords int
	logger       *slog.Logger
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithChunkWords sets the target chunk size in words.
func WithChunkWords(n int) IngesterOption {
	return func(ing *Ingester) {
		if n > 0 {
			ing.chunkWords = n
		}
	}
}

// WithOverlapWords sets how many words consecutive chunks share, so context
// is not lost at chunk boundaries. Must be smaller than the chunk size.
func WithOverlapWords(n int) IngesterOption {
	return func(ing *Ingester) {
		if n >= 0 {
			ing.overlapWords = n
		}
	}
}

// WithIngesterLogger sets a custom logger.
// Default is slog.Default().
func WithIngesterLogger(logger *slog.Logger) IngesterOption {
	return func(ing *Ingester) {
		if logger == nil {
			logger = slog.Default()
		}
		ing.logger = logger
	}
}

// NewIngester creates an ingester with the default chunking parameters.
func NewIngester(opts ...IngesterOption) *Ingester {
	ing := &Ingester{
		chunkWords:   defaultChunkWords,
		overlapWords: defaultOverlapWords,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	if ing.overlapWords >= ing.chunkWords {
		ing.overlapWords = ing.chunkWords / 2
	}
	return ing
}

// IngestDirectory reads every regular file in dir (sorted by name for
// deterministic document ids), splits each into chunks, and classifies them.
// A document that cannot be read is recorded as a skip wrapping
// core.ErrDocumentUnreadable; the batch continues without it.
func (ing *Ingester) IngestDirectory(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading source directory %s: %v", core.ErrConfig, dir, err)
	}

	result := &Result{}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			ing.logger.Warn("skipping unreadable document", "source", entry.Name(), "err", err)
			result.Skipped = append(result.Skipped, Skip{
				Source: entry.Name(),
				Err:    fmt.Errorf("%w: %s: %v", core.ErrDocumentUnreadable, entry.Name(), err),
			})
			continue
		}

		doc := core.Document{
			Id:     core.DocumentID(len(result.Documents)),
			Source: entry.Name(),
			Text:   string(data),
		}
		result.Documents = append(result.Documents, doc)
		result.Chunks = append(result.Chunks, ing.splitDocument(doc)...)
	}

	ing.logger.Info("ingested source directory",
		"dir", dir,
		"documents", len(result.Documents),
		"chunks", len(result.Chunks),
		"skipped", len(result.Skipped))
	return result, nil
}

// splitDocument splits one document into overlapping word-window chunks,
// preserving the byte offset of each chunk start.
func (ing *Ingester) splitDocument(doc core.Document) []Chunk {
	words := splitWords(doc.Text)
	if len(words) == 0 {
		return nil
	}

	step := ing.chunkWords - ing.overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + ing.chunkWords
		if end > len(words) {
			end = len(words)
		}
		first := words[start]
		last := words[end-1]
		text := doc.Text[first.offset : last.offset+len(last.text)]

		chunk := Chunk{
			Document: doc.Id,
			Source:   doc.Source,
			Offset:   first.offset,
			Text:     text,
		}
		chunk.Type, chunk.Question, chunk.Answer = Classify(text)
		chunks = append(chunks, chunk)

		if end == len(words) {
			break
		}
	}
	return chunks
}

type word struct {
	text   string
	offset int
}

// splitWords splits text into whitespace-separated words, keeping the byte
// offset of each word's start.
func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: text[start:i], offset: start})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{text: text[start:], offset: start})
	}
	return words
}

// FingerprintDirectory computes a deterministic fingerprint of the readable
// documents in dir: names and contents in sorted name order. Unchanged input
// yields an identical fingerprint, which powers idempotent rebuild skips.
func FingerprintDirectory(dir string) (uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: reading source directory %s: %v", core.ErrConfig, dir, err)
	}

	var buf bytes.Buffer
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			// Mirrors ingestion: an unreadable document is not part of the build.
			continue
		}
		buf.WriteString(entry.Name())
		buf.WriteByte(0)
		buf.Write(data)
		buf.WriteByte(0)
	}
	return core.FingerprintContent(buf.Bytes()), nil
}
