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


// Package ai provides the embedding port used by filehawk.
//
// The ai package defines the Embedder interface that turns chunk text,
// file names and queries into vectors, and the AIProvider interface that
// owns it. Retrieval code depends only on these interfaces.
//
// # Implementation Packages
//
//   - ai/openai: implementation using OpenAI-compatible embedding APIs
//   - ai/mock: deterministic test doubles
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types. Test constructors (mock.NewMockEmbedder) return
// concrete types so tests can inject behavior and count calls.
//
// # Rate Limiting
//
// NewRateLimitedEmbedder wraps any Embedder with a token bucket so bulk
// indexing stays under a hosted service's request quota:
//
//	embedder = ai.NewRateLimitedEmbedder(embedder, 5, 2)
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("all-minilm"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "neural networks")
package ai
