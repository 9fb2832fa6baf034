// Package ingest turns a directory of text documents into embedded chunk
// descriptors ready for graph construction.
//
// The Ingester splits each document into overlapping word-window chunks,
// preserving byte offsets, and classifies every chunk as fact, procedure, or
// question/answer. The Pipeline then embeds chunks concurrently over a
// bounded worker pool, retrying transient embedder failures with exponential
// backoff.
//
// Both stages are partial-failure tolerant: an unreadable document or a
// chunk that fails to embed is recorded as a skip and the batch continues.
package ingest
