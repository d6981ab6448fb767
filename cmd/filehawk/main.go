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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/filehawk"
	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/ai/openai"
	"github.com/poiesic/filehawk/chunking"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/ingestion"
	"github.com/poiesic/filehawk/reembed"
	"github.com/poiesic/filehawk/search"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB index directory",
		EnvVars:  []string{"FILEHAWK_DB"},
		Required: true,
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"FILEHAWK_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "all-minilm",
			EnvVars: []string{"FILEHAWK_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"FILEHAWK_API_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "dimension",
			Usage:   "Expected embedding dimension (0 accepts any)",
			Value:   384,
			EnvVars: []string{"FILEHAWK_DIMENSION"},
		},
		&cli.Float64Flag{
			Name:    "rate-limit",
			Usage:   "Maximum embedding requests per second (0 disables throttling)",
			EnvVars: []string{"FILEHAWK_RATE_LIMIT"},
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "filehawk",
		Usage: "Semantic file search with two-stage retrieval and holistic scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"FILEHAWK_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index the text files under one or more directories",
				ArgsUsage: "DIR...",
				Action:    indexCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to index",
						Value: cli.NewStringSlice(ingestion.DefaultExtensions...),
					},
					&cli.StringSliceFlag{
						Name:  "mode",
						Usage: "Chunking modes to index (gist, pinpoint)",
						Value: cli.NewStringSlice("gist", "pinpoint"),
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding request",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files indexed concurrently",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reindex documents whose content has not changed",
					},
				}, embeddingFlags()...),
			},
			{
				Name:      "search",
				Usage:     "Search the index",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Chunking mode to search (gist, pinpoint)",
						Value: "gist",
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "Scoring weight preset (" + strings.Join(search.PresetNames(), ", ") + ")",
						Value: "default",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-candidates",
						Usage: "Maximum files kept by the centroid filter",
						Value: 200,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum centroid similarity of a candidate",
						Value: 0.3,
					},
					&cli.StringFlag{
						Name:  "idf-scope",
						Usage: "Document frequency source (candidates, corpus)",
						Value: "candidates",
					},
					&cli.BoolFlag{
						Name:  "skip-invalid",
						Usage: "Report malformed files instead of failing the search",
					},
					&cli.IntFlag{
						Name:  "chunks",
						Usage: "Best chunks shown per result",
						Value: 1,
					},
				}, embeddingFlags()...),
			},
			{
				Name:      "chunk",
				Usage:     "Show how a file is segmented",
				ArgsUsage: "FILE",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Chunking mode (gist, pinpoint)",
						Value: "gist",
					},
					&cli.IntFlag{
						Name:  "target-lines",
						Usage: "Override the target chunk length in lines",
					},
					&cli.BoolFlag{
						Name:  "text",
						Usage: "Print chunk text",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all indexed files with new embeddings",
				Action: reembedCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Only reembed files of this chunking mode",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of files to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "embed-batch-size",
						Usage: "Maximum texts sent per embedding request",
						Value: reembed.DefaultEmbedBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "stats",
				Usage:  "Show what the index holds",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
		},
	}
}

func aiConfigFrom(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
		ai.WithDimension(c.Int("dimension")),
		ai.WithRateLimit(c.Float64("rate-limit"), 1),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

// openDatabase opens the index with a provider built from the
// embedding flags.
func openDatabase(c *cli.Context) (*filehawk.Database, error) {
	config, err := aiConfigFrom(c)
	if err != nil {
		return nil, err
	}
	db, err := filehawk.NewDatabase(c.String("db"), filehawk.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func parseModes(values []string) ([]core.ChunkMode, error) {
	var modes []core.ChunkMode
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			mode, err := core.ParseChunkMode(part)
			if err != nil {
				return nil, err
			}
			modes = append(modes, mode)
		}
	}
	if len(modes) == 0 {
		return nil, ingestion.ErrNoModes
	}
	return modes, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func indexCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one directory is required")
	}
	modes, err := parseModes(c.StringSlice("mode"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{
		ingestion.WithModes(modes...),
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithPoolSize(c.Int("workers")),
	}
	if c.Bool("force") {
		opts = append(opts, ingestion.WithCheckpoints(nil))
	}
	indexer, err := db.NewIndexer(opts...)
	if err != nil {
		return err
	}
	defer indexer.Release()

	ctx, cancel := signalContext(c)
	defer cancel()

	var docs []ingestion.Document
	for _, root := range c.Args().Slice() {
		loaded, err := ingestion.LoadDocuments(root, c.StringSlice("ext"))
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", root, err)
		}
		for _, doc := range loaded {
			doc.Path = filepath.ToSlash(filepath.Join(root, doc.Path))
			docs = append(docs, doc)
		}
	}
	slog.Info("loaded documents", "count", len(docs))

	start := time.Now()
	records, err := indexer.IndexDocuments(ctx, docs)
	fmt.Fprintf(c.App.Writer, "Indexed %d records from %d documents in %v\n",
		len(records), len(docs), time.Since(start).Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("indexing finished with errors: %w", err)
	}
	return nil
}

func searchConfigFrom(c *cli.Context) (search.Config, error) {
	mode, err := core.ParseChunkMode(c.String("mode"))
	if err != nil {
		return search.Config{}, err
	}
	weights, err := search.WeightsPreset(c.String("preset"))
	if err != nil {
		return search.Config{}, err
	}
	scope, err := search.ParseIDFScope(c.String("idf-scope"))
	if err != nil {
		return search.Config{}, err
	}

	cfg := search.NewConfig(
		search.WithMode(mode),
		search.WithWeights(weights),
		search.WithMaxResults(c.Int("max-results")),
		search.WithMaxCandidates(c.Int("max-candidates")),
		search.WithMinSimilarity(c.Float64("min-similarity")),
		search.WithIDFScope(scope),
		search.WithSkipInvalidFiles(c.Bool("skip-invalid")),
	)
	cfg.BestChunks = c.Int("chunks")
	return cfg, cfg.Validate()
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return search.ErrEmptyQuery
	}
	cfg, err := searchConfigFrom(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Release()

	ctx, cancel := signalContext(c)
	defer cancel()

	report, err := searcher.SearchStore(ctx, query, cfg)
	if err != nil {
		return err
	}
	printReport(c.App.Writer, report)
	return nil
}

func printReport(w io.Writer, report *search.SearchReport) {
	fmt.Fprintf(w, "Found %d results (%d scanned, %d candidates) in %v\n",
		len(report.Results), report.Scanned, report.Candidates, report.Elapsed.Round(time.Millisecond))
	for i, r := range report.Results {
		fmt.Fprintf(w, "%2d. %3d%%  %s\n", i+1, r.ConfidencePercent, r.Path)
		for _, cs := range r.BestChunks {
			fmt.Fprintf(w, "      lines %d-%d [%.3f] %s\n",
				cs.Chunk.StartLine, cs.Chunk.EndLine, cs.Similarity, firstLine(cs.Chunk.Text))
		}
	}
	for _, fe := range report.FileErrors {
		fmt.Fprintf(w, "skipped %s: %v\n", fe.Path, fe.Err)
	}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 72 {
		text = text[:72] + "..."
	}
	return text
}

func chunkCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file is required")
	}
	mode, err := core.ParseChunkMode(c.String("mode"))
	if err != nil {
		return err
	}
	var opts []chunking.Option
	if n := c.Int("target-lines"); n > 0 {
		opts = append(opts, chunking.WithTargetLines(n))
	}
	seg, err := chunking.NewSegmenter(mode, opts...)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	w := c.App.Writer
	chunks := seg.Segment(string(data))
	for i, chunk := range chunks {
		fmt.Fprintf(w, "#%d lines %d-%d (overlap %d)\n", i, chunk.StartLine, chunk.EndLine, chunk.Overlap)
		if c.Bool("text") {
			fmt.Fprintln(w, chunk.Text)
			fmt.Fprintln(w)
		}
	}

	st := chunking.Summarize(chunks)
	fmt.Fprintf(w, "%s: %d chunks, %d lines, min %d, max %d, avg %.1f\n",
		seg, st.Chunks, st.Lines, st.MinLines, st.MaxLines, st.AvgLines)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx, cancel := signalContext(c)
	defer cancel()

	aiConfig, err := aiConfigFrom(c)
	if err != nil {
		return err
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		EmbedBatchSize: c.Int("embed-batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if m := c.String("mode"); m != "" {
		mode, err := core.ParseChunkMode(m)
		if err != nil {
			return err
		}
		reembedConfig.Mode = mode
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed-batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	db, err := filehawk.NewDatabase(c.String("db"), filehawk.WithProvider(provider))
	if err != nil {
		provider.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(nil, reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	db, err := filehawk.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	stats, err := db.Stats(c.Context)
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Fprintf(c.App.Writer, "%-9s %6d files %8d chunks  dim %d\n", s.Mode, s.Files, s.Chunks, s.Dimension)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
