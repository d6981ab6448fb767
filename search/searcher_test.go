package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/poiesic/filehawk/ai/mock"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/poiesic/filehawk/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMonitor struct {
	started     int
	transitions []string
	candidates  int
	scored      int
	failed      []*FileError
	finished    []core.RankedResult
}

func (m *recordingMonitor) Start(_ *core.QueryContext) { m.started++ }
func (m *recordingMonitor) StageChanged(from, to Stage) {
	m.transitions = append(m.transitions, from.String()+">"+to.String())
}
func (m *recordingMonitor) AfterFiltering(c []Candidate)       { m.candidates = len(c) }
func (m *recordingMonitor) AfterScoring(s []FileScore)         { m.scored = len(s) }
func (m *recordingMonitor) FileFailed(err *FileError)          { m.failed = append(m.failed, err) }
func (m *recordingMonitor) Finish(results []core.RankedResult) { m.finished = results }

func newTestSearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()
	searcher, err := NewSearcher(mock.NewSemanticEmbedder(256), opts...)
	require.NoError(t, err)
	t.Cleanup(searcher.Release)
	return searcher
}

// embedded builds a gist file record by embedding each chunk text.
func embedded(t *testing.T, embedder *mock.MockEmbedder, path string, texts ...string) *core.FileRecord {
	t.Helper()
	vectors, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	vecs := make([]core.Vector, len(vectors))
	for i, v := range vectors {
		vecs[i] = core.Vector(v)
	}
	file := chunked(t, path, texts, vecs...)

	name, err := embedder.EmbedText(context.Background(), strings.Join(similarity.FilenameWords(path), " "))
	require.NoError(t, err)
	file.NameVector = core.Vector(name)
	return file
}

func TestNewSearcher(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(embedder)
		require.NoError(t, err)
		defer searcher.Release()
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		defer searcher.Release()
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(embedder, WithLogger(nil))
		require.NoError(t, err)
		defer searcher.Release()
		assert.NotNil(t, searcher.logger)
	})

	t.Run("with pool size and nil tracer", func(t *testing.T) {
		searcher, err := NewSearcher(embedder, WithPoolSize(2), WithTracer(nil))
		require.NoError(t, err)
		defer searcher.Release()
		assert.Equal(t, 2, searcher.pool.Cap())
		assert.NotNil(t, searcher.tracer)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestRun_MachineLearningScenario(t *testing.T) {
	searcher := newTestSearcher(t)
	query := queryFor("machine learning algorithms neural networks")

	corpus := []*core.FileRecord{
		chunked(t, "cooking.md",
			[]string{"Slow braised short ribs.", "Season generously."},
			unit(0.05), unit(0.05)),
		uniform(t, "history.md", "The printing press changed Europe.", 2, 0.25),
		uniform(t, "stats.md", "Regression and variance.", 3, 0.4),
		uniform(t, "data.md", "Learning from data sets.", 2, 0.55),
		uniform(t, "ai.md", "Algorithms for search and planning.", 4, 0.7),
		chunked(t, "ml.md",
			[]string{
				"Machine learning algorithms train neural networks.",
				"Neural networks are machine learning models.",
			},
			unit(0.95), unit(0.93)),
	}

	report, err := searcher.Run(context.Background(), query, corpus, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, StageDone, report.Stage)
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 4, report.Candidates)
	require.NotEmpty(t, report.Results)
	assert.Equal(t, "ml.md", report.Results[0].Path)

	paths := make([]string, len(report.Results))
	for i, r := range report.Results {
		paths[i] = r.Path
		assert.GreaterOrEqual(t, r.ConfidencePercent, 0)
		assert.LessOrEqual(t, r.ConfidencePercent, 100)
	}
	assert.NotContains(t, paths, "cooking.md")
	assert.NotContains(t, paths, "history.md")

	top := report.Results[0]
	assert.Equal(t, 2, top.Breakdown.HighQualityChunks)
	assert.Greater(t, top.Breakdown.SBM25, 0.0)
	assert.InDelta(t, 0.2, top.ExactTermBoost, 1e-9)
	assert.Len(t, top.BestChunks, 2)
	assert.Equal(t, "Machine learning algorithms train neural networks.", top.BestChunks[0].Chunk.Text)

	for i := 1; i < len(report.Results); i++ {
		assert.GreaterOrEqual(t, report.Results[i-1].Breakdown.Composite, report.Results[i].Breakdown.Composite)
	}
}

func TestRun_BoostsDoNotReorder(t *testing.T) {
	searcher := newTestSearcher(t)
	corpus := []*core.FileRecord{
		uniform(t, "docs/networks.md", "Graph theory primer.", 1, 0.7),
		uniform(t, "docs/alpha.md", "Layered models of perception.", 1, 0.8),
	}

	report, err := searcher.Run(context.Background(), queryFor("neural networks"), corpus, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	first, second := report.Results[0], report.Results[1]
	assert.Equal(t, "docs/alpha.md", first.Path)
	assert.Equal(t, "docs/networks.md", second.Path)
	assert.Greater(t, first.Breakdown.Composite, second.Breakdown.Composite)

	assert.Zero(t, first.FilenameBoost)
	assert.InDelta(t, 0.3, second.FilenameBoost, 1e-9)
	assert.Greater(t, second.ConfidencePercent, first.ConfidencePercent, "boosted confidence is display only")
}

func TestRun_StageSequence(t *testing.T) {
	searcher := newTestSearcher(t)
	monitor := &recordingMonitor{}

	corpus := []*core.FileRecord{
		uniform(t, "a.md", "alpha", 1, 0.9),
		uniform(t, "b.md", "beta", 1, 0.1),
	}

	report, err := searcher.RunWithMonitor(context.Background(), queryFor("alpha"), corpus, DefaultConfig(), monitor)
	require.NoError(t, err)

	assert.Equal(t, 1, monitor.started)
	assert.Equal(t, []string{
		"idle>filtering",
		"filtering>scoring",
		"scoring>calibrating",
		"calibrating>done",
	}, monitor.transitions)
	assert.Equal(t, 1, monitor.candidates)
	assert.Equal(t, 1, monitor.scored)
	assert.Equal(t, report.Results, monitor.finished)
}

func TestRun_NoCandidates(t *testing.T) {
	searcher := newTestSearcher(t)
	corpus := []*core.FileRecord{uniform(t, "a.md", "alpha", 1, 0.1)}

	report, err := searcher.Run(context.Background(), queryFor("alpha"), corpus, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StageDone, report.Stage)
	assert.Zero(t, report.Candidates)
	assert.Empty(t, report.Results)

	report, err = searcher.Run(context.Background(), queryFor("alpha"), nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestRun_FileErrorPolicy(t *testing.T) {
	searcher := newTestSearcher(t)

	good := uniform(t, "good.md", "alpha", 1, 0.9)
	empty := &core.FileRecord{Id: 5, Path: "empty.md", Mode: core.ChunkModeGist}

	// Centroid passes Stage 1, the chunk embedding fails Stage 2
	broken := uniform(t, "broken.md", "alpha", 1, 0.9)
	broken.Chunks[0].Embedding = core.Vector{1, 0}

	corpus := []*core.FileRecord{good, empty, broken}

	t.Run("abort", func(t *testing.T) {
		report, err := searcher.Run(context.Background(), queryFor("alpha"), corpus, DefaultConfig())
		assert.Nil(t, report)
		assert.ErrorIs(t, err, core.ErrEmptyFile)
	})

	t.Run("abort in scoring", func(t *testing.T) {
		_, err := searcher.Run(context.Background(), queryFor("alpha"), []*core.FileRecord{good, broken}, DefaultConfig())
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)

		var fileErr *FileError
		require.True(t, errors.As(err, &fileErr))
		assert.Equal(t, StageScoring, fileErr.Stage)
		assert.Equal(t, "broken.md", fileErr.Path)
	})

	t.Run("skip", func(t *testing.T) {
		monitor := &recordingMonitor{}
		cfg := NewConfig(WithSkipInvalidFiles(true))

		report, err := searcher.RunWithMonitor(context.Background(), queryFor("alpha"), corpus, cfg, monitor)
		require.NoError(t, err)

		require.Len(t, report.FileErrors, 2)
		assert.ErrorIs(t, report.FileErrors[0], core.ErrEmptyFile)
		assert.ErrorIs(t, report.FileErrors[1], core.ErrDimensionMismatch)
		assert.Len(t, monitor.failed, 2)

		require.Len(t, report.Results, 1)
		assert.Equal(t, "good.md", report.Results[0].Path)
	})
}

func TestRun_Limits(t *testing.T) {
	searcher := newTestSearcher(t)

	var corpus []*core.FileRecord
	for i, sim := range []float64{0.9, 0.8, 0.7, 0.6, 0.5} {
		corpus = append(corpus, uniform(t, string(rune('a'+i))+".md", "alpha", 4, sim))
	}

	cfg := NewConfig(WithMaxResults(2))
	cfg.BestChunks = 1

	report, err := searcher.Run(context.Background(), queryFor("alpha"), corpus, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Candidates)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "a.md", report.Results[0].Path)
	assert.Equal(t, "b.md", report.Results[1].Path)
	assert.Len(t, report.Results[0].BestChunks, 1)

	cfg = NewConfig(WithMaxCandidates(3), WithMaxResults(0))
	report, err = searcher.Run(context.Background(), queryFor("alpha"), corpus, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Candidates)
	assert.Len(t, report.Results, 3)
}

func TestRun_ModeSelection(t *testing.T) {
	searcher := newTestSearcher(t)

	gist := uniform(t, "same.md", "alpha", 1, 0.9)
	pinpoint := uniform(t, "same.md", "alpha", 1, 0.8)
	pinpoint.Id = core.FileIDFor("same.md", core.ChunkModePinpoint)
	pinpoint.Mode = core.ChunkModePinpoint
	corpus := []*core.FileRecord{gist, pinpoint}

	report, err := searcher.Run(context.Background(), queryFor("alpha"), corpus, NewConfig(WithMode(core.ChunkModePinpoint)))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	require.Len(t, report.Results, 1)
	assert.Equal(t, pinpoint.Id, report.Results[0].FileId)

	report, err = searcher.Run(context.Background(), queryFor("alpha"), corpus, NewConfig(WithMode(0)))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
}

func TestRun_InvalidInput(t *testing.T) {
	searcher := newTestSearcher(t)
	corpus := []*core.FileRecord{uniform(t, "a.md", "alpha", 1, 0.9)}

	cfg := DefaultConfig()
	cfg.Weights = ScoringWeights{Max: 0.5}
	_, err := searcher.Run(context.Background(), queryFor("alpha"), corpus, cfg)
	assert.ErrorIs(t, err, core.ErrInvalidWeights)

	_, err = searcher.Run(context.Background(), queryFor("alpha"), corpus, NewConfig(WithMaxCandidates(0)))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = searcher.Run(context.Background(), &core.QueryContext{RawText: "alpha"}, corpus, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRun_DoesNotModifyQuery(t *testing.T) {
	searcher := newTestSearcher(t)
	query := queryFor("alpha")
	query.RequestId = ""

	report, err := searcher.Run(context.Background(), query, nil, DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RequestId)
	assert.Empty(t, query.RequestId)
}

func TestRun_Cancelled(t *testing.T) {
	searcher := newTestSearcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	corpus := []*core.FileRecord{uniform(t, "a.md", "alpha", 1, 0.9)}
	_, err := searcher.Run(ctx, queryFor("alpha"), corpus, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewQuery(t *testing.T) {
	embedder := mock.NewSemanticEmbedder(32)
	searcher, err := NewSearcher(embedder)
	require.NoError(t, err)
	defer searcher.Release()

	q, err := searcher.NewQuery(context.Background(), "  How do neural networks learn?  ", true)
	require.NoError(t, err)
	assert.Equal(t, "How do neural networks learn?", q.RawText)
	assert.Equal(t, []string{"neural", "networks", "learn"}, q.Terms)
	assert.Len(t, q.Embedding, 32)
	assert.Len(t, q.TermEmbeddings, 3)
	assert.NotEmpty(t, q.RequestId)
	assert.Equal(t, 1, embedder.CallCount())

	q, err = searcher.NewQuery(context.Background(), "neural networks", false)
	require.NoError(t, err)
	assert.Empty(t, q.TermEmbeddings)

	_, err = searcher.NewQuery(context.Background(), "   ", true)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_SemanticEmbedder(t *testing.T) {
	embedder := mock.NewSemanticEmbedder(256)
	searcher, err := NewSearcher(embedder)
	require.NoError(t, err)
	defer searcher.Release()

	corpus := []*core.FileRecord{
		embedded(t, embedder, "bread.md", "Baking sourdough bread at home.", "Flour, water and salt."),
		embedded(t, embedder, "neural.md", "Neural networks training with backpropagation.", "Deep neural networks."),
		embedded(t, embedder, "graphs.md", "Graph traversal with breadth first search."),
	}

	report, err := searcher.Search(context.Background(), "neural networks training", corpus, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, report.Results)
	assert.Equal(t, "neural.md", report.Results[0].Path)
	for _, r := range report.Results {
		assert.NotEqual(t, "bread.md", r.Path)
	}
}

func TestSearch_EmbedderFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	boom := errors.New("service down")
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}
	searcher, err := NewSearcher(embedder)
	require.NoError(t, err)
	defer searcher.Release()

	_, err = searcher.Search(context.Background(), "query", nil, DefaultConfig())
	assert.ErrorIs(t, err, boom)
}

func TestSearchStore(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	embedder := mock.NewSemanticEmbedder(256)
	ctx := context.Background()

	_, err = repo.AddFiles(ctx,
		embedded(t, embedder, "neural.md", "Neural networks training with backpropagation.", "Deep neural networks."),
		embedded(t, embedder, "bread.md", "Baking sourdough bread at home."),
	)
	require.NoError(t, err)

	searcher, err := NewSearcher(embedder, WithFileRepository(repo))
	require.NoError(t, err)
	defer searcher.Release()

	for _, scope := range []IDFScope{IDFScopeCandidates, IDFScopeCorpus} {
		t.Run(scope.String(), func(t *testing.T) {
			report, err := searcher.SearchStore(ctx, "neural networks", NewConfig(WithIDFScope(scope)))
			require.NoError(t, err)
			assert.Equal(t, 2, report.Scanned)
			require.NotEmpty(t, report.Results)
			assert.Equal(t, "neural.md", report.Results[0].Path)
			assert.Greater(t, report.Results[0].Breakdown.SBM25, 0.0)
		})
	}

	t.Run("without repository", func(t *testing.T) {
		plain := newTestSearcher(t)
		_, err := plain.SearchStore(ctx, "neural", DefaultConfig())
		assert.ErrorIs(t, err, ErrFileRepositoryRequired)
	})
}

func TestIDF_CandidateScope(t *testing.T) {
	files := []*core.FileRecord{
		uniform(t, "a.md", "neural networks", 1, 0.9),
		uniform(t, "b.md", "neural nets", 1, 0.9),
		uniform(t, "c.md", "cooking", 1, 0.9),
	}

	df := CountDocFrequency(files)
	n, err := df(context.Background(), "neural")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	idf, err := BuildIDF(context.Background(), []string{"neural", "cooking", "absent"}, len(files), df)
	require.NoError(t, err)
	assert.InDelta(t, similarity.IDF(3, 2), idf("neural"), 1e-12)
	assert.Greater(t, idf("cooking"), idf("neural"))
	assert.Greater(t, idf("absent"), idf("cooking"))
	assert.Zero(t, idf("unknown"))
}

func TestStageMachine(t *testing.T) {
	m := newStageMachine(&noopMonitor{})
	assert.Equal(t, StageIdle, m.stage())

	assert.ErrorIs(t, m.advance(StageScoring), ErrInvalidTransition)
	require.NoError(t, m.advance(StageFiltering))
	assert.ErrorIs(t, m.advance(StageFiltering), ErrInvalidTransition)
	require.NoError(t, m.advance(StageScoring))
	require.NoError(t, m.advance(StageCalibrating))
	require.NoError(t, m.advance(StageDone))
	assert.ErrorIs(t, m.advance(StageDone+1), ErrInvalidTransition)

	assert.Equal(t, "stage(9)", Stage(9).String())
}
