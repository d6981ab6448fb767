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


// Package similarity holds the numeric primitives used by the retrieval
// pipeline: cosine similarity, distance calibration, soft top-k
// aggregation, BM25 keyword scoring and vector helpers.
//
// Every function here is pure and safe for concurrent use.
//
// Term extraction is deliberately simple: lowercase, split on anything
// that is not a letter or digit, drop a small English stop-word list.
package similarity
