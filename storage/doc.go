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


// Package storage provides the index persistence layer.
//
// It defines the IndexStore interface that decouples the engine from the
// storage implementation, plus the versioned MUS binary serialization of the
// persisted layout: a header (format version, node count, edge count), the
// node table, and the edge table. Serializers are written directly against
// the mus-go primitives since the layout is a fixed wire format.
//
// The badger subpackage implements IndexStore on BadgerDB. Use
// badger.NewMemoryStore in tests:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// All implementations must be safe for concurrent use.
package storage
