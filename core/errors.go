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


package core

import "errors"

// Engine error taxonomy. Per-document and per-chunk failures
// (ErrDocumentUnreadable, ErrEmbedding) are recovered locally during a build
// and aggregated into ErrPartialBuild; the remaining errors are surfaced to
// the caller directly.
var (
	// ErrConfig indicates bad initialization arguments, such as an
	// unreadable source directory.
	ErrConfig = errors.New("configuration error")

	// ErrIO indicates the index could not be read or written.
	ErrIO = errors.New("index i/o error")

	// ErrIndexCorrupt indicates malformed or version-mismatched persisted
	// index data.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrDocumentUnreadable indicates a single document could not be read.
	// Non-fatal: the ingestion batch continues without it.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrEmbedding indicates embedding failed for a chunk.
	// Non-fatal: the chunk is excluded from the graph.
	ErrEmbedding = errors.New("embedding failed")

	// ErrPartialBuild indicates some documents or chunks were skipped but
	// the build still produced a usable index.
	ErrPartialBuild = errors.New("partial build")

	// ErrNotReady indicates a query was issued before the engine reached
	// the Ready state.
	ErrNotReady = errors.New("engine not ready")

	// ErrInvalidArgument indicates invalid caller input, such as a
	// non-positive maxResults.
	ErrInvalidArgument = errors.New("invalid argument")
)
