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


// Package storage provides the storage abstraction layer for bookscan.
//
// This package defines repository interfaces that decouple the book library
// from its storage engine. The badger subpackage is the production
// implementation; it can also run fully in memory for tests.
//
// # Architecture
//
//   - Repository: transaction support and lifecycle shared by all repositories
//   - BookRepository: scanned books keyed by ISBN, kept in insertion order
//   - CheckpointRepository: digests of ingested source documents
//
// # Library Order
//
// Search results are reported in book input order, so the library keeps the
// order in which ISBNs were first added. Replacing a book's content does not
// move it.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	books, err := badger.NewBookRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer books.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
