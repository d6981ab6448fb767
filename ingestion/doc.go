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


// Package ingestion turns documents into searchable file records.
//
// The Indexer segments each document under every configured chunking mode,
// embeds the chunks in batches, derives the file centroid and a file-name
// vector, and stores the resulting FileRecord. Re-indexing a path replaces
// its records.
//
// IndexDocuments fans documents out over a worker pool. A failing document
// does not stop the others; all failures are returned together.
package ingestion
