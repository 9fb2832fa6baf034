// Package graph constructs the weighted node/edge graph over embedded
// document chunks: deterministic node-id assignment plus same-document,
// semantic, and reference edge policies.
package graph
