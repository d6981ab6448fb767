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


// Package storage provides the storage abstraction layer for filehawk.
//
// This package defines repository interfaces that decouple the index store
// from the indexing and search logic. The search pipeline never writes to
// storage; it reads a consistent snapshot of FileRecords and, when corpus
// scoped IDF is requested, document frequencies.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interfaces to keep callers
// decoupled from a specific engine:
//
//	repo, backend, err := badger.NewMemoryRepository()  // storage.FileRepository
//
// # Architecture
//
//   - Repository: transactions and lifecycle shared by all repositories
//   - FileRepository: indexed files, their chunks and term postings
//
// # Usage
//
// Open a persistent store:
//
//	backend, err := badger.OpenBackend("/path/to/db", false, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewFileRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
