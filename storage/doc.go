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


// Package storage provides the storage abstraction layer for maniplib.
//
// This package defines repository interfaces that decouple storage from the
// manipulation algorithms, so fetched datasets, computed results and
// experiment progress can live in BadgerDB, in memory, or anywhere else.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DatasetRepository: election files fetched from PrefLib, keyed by URL
//   - ResultRepository: manipulation results keyed by a content ID, with a
//     recency index
//   - CheckpointRepository: number of completed runs per experiment
//
// Records are encoded with mus-format serializers (see serialization.go).
//
// # Usage
//
// Open a BadgerDB backend and create the repositories on top of it:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	results := badger.NewResultRepository(backend)
//
// Use in tests with in-memory storage:
//
//	datasets, results, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
