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


// Package search ranks files against a natural-language query.
//
// A request moves through a fixed sequence of stages:
//
//   - Filtering: every file centroid is compared with the query embedding;
//     files below Config.MinSimilarity are dropped and the survivors are
//     capped at Config.MaxCandidates.
//   - Scoring: each candidate gets a holistic score blending its best chunk,
//     a soft top-k mean over its chunks, centroid alignment, BM25 over its
//     text and a length factor, weighted by ScoringWeights. Files with
//     several strong chunks receive a quality boost.
//   - Calibrating: composites are boosted for filename and exact-term
//     matches and converted to confidence percentages. Results stay in
//     composite order; the boosts only change the reported confidence.
//
// Both parallel stages fan out over an ants worker pool. Each stage runs in
// an OpenTelemetry span, and a SearchMonitor can observe the whole request.
//
// Per-file failures (an empty file, mismatched vector dimensions) abort the
// request by default. With Config.SkipInvalidFiles they are collected in
// SearchReport.FileErrors and the remaining files are ranked.
package search
