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


// Package search answers queries against a built document graph.
//
// The Processor implements a multi-stage algorithm:
//   - Seed selection by query/node embedding similarity
//   - Weighted multi-hop traversal with per-hop decay
//   - Ranking of all visited nodes by accumulated relevance
//   - A Q&A shortcut returning a stored answer verbatim when a visited
//     question node sufficiently matches the query
//
// Compose turns a result into the caller-facing response text.
package search
