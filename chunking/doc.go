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


// Package chunking splits document text into overlapping line-based chunks.
//
// Two regimes are supported:
//
//   - Gist: large chunks (target 35 lines) that close early on strong
//     structural boundaries such as paragraph breaks, markdown headings and
//     section markers. The boundary threshold drops as the chunk grows.
//   - Pinpoint: small chunks (target 10 lines) that close on the first
//     sentence-ending line once the minimum size is reached.
//
// Both regimes cap chunks at MaxLines, prefix each chunk after the first
// with the tail of the previous one, and never split a line.
//
// Segmentation is a pure function of the text and the parameters.
package chunking
