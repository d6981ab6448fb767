package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/ingestion"
	"github.com/poiesic/filehawk/reembed"
	"github.com/poiesic/filehawk/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findStringFlag(cmd *cli.Command, name string) *cli.StringFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"filehawk"}, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"index", "search", "chunk", "reembed", "stats"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestEmbeddingFlags(t *testing.T) {
	app := newApp()

	for _, name := range []string{"index", "search", "reembed"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(t, app, name)

			host := findStringFlag(cmd, "embedding-host")
			require.NotNil(t, host)
			assert.Equal(t, "http://localhost:11434/v1", host.Value)
			assert.Equal(t, []string{"FILEHAWK_EMBEDDING_HOST"}, host.EnvVars)

			model := findStringFlag(cmd, "embedding-model")
			require.NotNil(t, model)
			assert.Equal(t, []string{"FILEHAWK_EMBEDDING_MODEL"}, model.EnvVars)

			db := findStringFlag(cmd, "db")
			require.NotNil(t, db)
			assert.True(t, db.Required)
			assert.Equal(t, []string{"FILEHAWK_DB"}, db.EnvVars)
		})
	}
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")

	ints := map[string]int{}
	var retryDelay time.Duration
	for _, flag := range cmd.Flags {
		switch f := flag.(type) {
		case *cli.IntFlag:
			ints[f.Name] = f.Value
		case *cli.DurationFlag:
			if f.Name == "retry-delay" {
				retryDelay = f.Value
			}
		}
	}

	assert.Equal(t, 100, ints["batch-size"])
	assert.Equal(t, reembed.DefaultEmbedBatchSize, ints["embed-batch-size"])
	assert.Equal(t, 100, ints["report-interval"])
	assert.Equal(t, 3, ints["max-retries"])
	assert.Equal(t, time.Second, retryDelay)
}

func TestReembedCommand_Validation(t *testing.T) {
	t.Setenv("FILEHAWK_DB", "")

	_, err := runApp(t, "reembed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")

	dir := t.TempDir()
	_, err = runApp(t, "reembed", "--db", dir, "--batch-size", "0")
	assert.ErrorContains(t, err, "batch-size")

	_, err = runApp(t, "reembed", "--db", dir, "--embed-batch-size", "0")
	assert.ErrorContains(t, err, "embed-batch-size")

	_, err = runApp(t, "reembed", "--db", dir, "--max-retries", "0")
	assert.ErrorContains(t, err, "max-retries")

	_, err = runApp(t, "reembed", "--db", dir, "--mode", "paragraph")
	assert.ErrorIs(t, err, core.ErrInvalidChunkMode)

	_, err = runApp(t, "reembed", "--db", dir, "--embedding-model", "")
	assert.ErrorContains(t, err, "EmbeddingModel")
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	for _, level := range []string{"debug", "info", "WARN", "error"} {
		_, err := runApp(t, "--log-level", level, "chunk", "--help")
		assert.NoError(t, err, level)
	}

	_, err := runApp(t, "--log-level", "verbose", "chunk", "--help")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestChunkCommand(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Title\n\n")
	for i := 0; i < 30; i++ {
		b.WriteString("A sentence about indexing files.\n")
	}
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	out, err := runApp(t, "chunk", "--mode", "pinpoint", "--text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#0 lines 1-")
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "31 lines")

	out, err = runApp(t, "chunk", "--mode", "gist", path)
	require.NoError(t, err)
	assert.Contains(t, out, "gist(target=35")
	assert.NotContains(t, out, "# Title")

	_, err = runApp(t, "chunk", "--mode", "pinpoint", "--target-lines", "40", path)
	assert.Error(t, err)

	_, err = runApp(t, "chunk")
	assert.Error(t, err)
}

func TestSearchCommand_EmptyQuery(t *testing.T) {
	_, err := runApp(t, "search", "--db", t.TempDir(), "  ")
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestSearchCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := runApp(t, "search", "--db", dir, "--preset", "fuzzy", "query")
	assert.ErrorIs(t, err, core.ErrInvalidWeights)

	_, err = runApp(t, "search", "--db", dir, "--idf-scope", "global", "query")
	assert.ErrorIs(t, err, search.ErrInvalidConfig)

	_, err = runApp(t, "search", "--db", dir, "--max-candidates", "0", "query")
	assert.ErrorIs(t, err, search.ErrInvalidConfig)
}

func TestStatsCommand_EmptyIndex(t *testing.T) {
	out, err := runApp(t, "stats", "--db", filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	assert.Contains(t, out, "gist")
	assert.Contains(t, out, "pinpoint")
	assert.Contains(t, out, "0 files")
}

func TestIndexCommand_Validation(t *testing.T) {
	dir := t.TempDir()

	_, err := runApp(t, "index", "--db", dir)
	assert.ErrorContains(t, err, "directory")

	_, err = runApp(t, "index", "--db", dir, "--mode", "outline", t.TempDir())
	assert.ErrorIs(t, err, core.ErrInvalidChunkMode)
}

func TestParseModes(t *testing.T) {
	modes, err := parseModes([]string{"gist,pinpoint"})
	require.NoError(t, err)
	assert.Equal(t, []core.ChunkMode{core.ChunkModeGist, core.ChunkModePinpoint}, modes)

	modes, err = parseModes([]string{"Pinpoint"})
	require.NoError(t, err)
	assert.Equal(t, []core.ChunkMode{core.ChunkModePinpoint}, modes)

	_, err = parseModes([]string{"gist", "bogus"})
	assert.ErrorIs(t, err, core.ErrInvalidChunkMode)

	_, err = parseModes(nil)
	assert.ErrorIs(t, err, ingestion.ErrNoModes)
}

func TestPrintReport(t *testing.T) {
	chunk := &core.Chunk{StartLine: 3, EndLine: 9, Text: "Neural networks\nsecond line"}
	report := &search.SearchReport{
		Scanned:    6,
		Candidates: 2,
		Results: []core.RankedResult{
			{Path: "ml/nn.md", ConfidencePercent: 87, BestChunks: []core.ChunkScore{{Chunk: chunk, Similarity: 0.91}}},
			{Path: "ml/svm.md", ConfidencePercent: 54},
		},
		FileErrors: []*search.FileError{{Path: "broken.md", Err: core.ErrEmptyFile}},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "Found 2 results (6 scanned, 2 candidates)")
	assert.Contains(t, out, " 1.  87%  ml/nn.md")
	assert.Contains(t, out, "lines 3-9 [0.910] Neural networks")
	assert.NotContains(t, out, "second line")
	assert.Contains(t, out, "skipped broken.md")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo"))
	long := strings.Repeat("x", 100)
	assert.Equal(t, strings.Repeat("x", 72)+"...", firstLine(long))
}
