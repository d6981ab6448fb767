package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/filehawk/ai"
	"github.com/poiesic/filehawk/core"
	"github.com/poiesic/filehawk/similarity"
	"github.com/poiesic/filehawk/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/poiesic/filehawk/search"

// Searcher runs the two-stage retrieval pipeline over a corpus of file records.
type Searcher struct {
	embedder ai.Embedder
	files    storage.FileRepository
	pool     *ants.Pool
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for the parallel stages.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithFileRepository sets the repository SearchStore reads its corpus from.
func WithFileRepository(files storage.FileRepository) Option {
	return func(s *Searcher) error {
		s.files = files
		return nil
	}
}

// WithTracer sets the tracer used for pipeline spans.
// Default is the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Searcher) error {
		if tracer != nil {
			s.tracer = tracer
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(defaultPoolSize())
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		embedder: embedder,
		pool:     pool,
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Release releases the worker pool. The searcher should not be used after
// calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// SearchReport is the outcome of one search request.
type SearchReport struct {
	RequestId string
	Query     *core.QueryContext

	// Results are ranked by composite score, best first.
	Results []core.RankedResult

	// Scanned is the number of corpus files of the requested mode.
	Scanned int

	// Candidates is the number of Stage 1 survivors.
	Candidates int

	// FileErrors lists files skipped because of per-file failures. It is
	// only populated when Config.SkipInvalidFiles is set.
	FileErrors []*FileError

	Stage   Stage
	Elapsed time.Duration
}

// NewQuery embeds query and its terms in one batch and returns the
// request's QueryContext. Term embeddings are only requested when
// withTerms is set.
func (s *Searcher) NewQuery(ctx context.Context, query string, withTerms bool) (*core.QueryContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	terms := similarity.Terms(query)

	texts := []string{query}
	if withTerms {
		texts = append(texts, terms...)
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed query: %w: got %d vectors for %d texts", ai.ErrEmbeddingFailed, len(vectors), len(texts))
	}

	q := &core.QueryContext{
		RequestId: uuid.NewString(),
		RawText:   query,
		Terms:     terms,
		Embedding: core.Vector(vectors[0]),
	}
	for _, v := range vectors[1:] {
		q.TermEmbeddings = append(q.TermEmbeddings, core.Vector(v))
	}
	return q, nil
}

// Search embeds query and runs the pipeline over corpus.
func (s *Searcher) Search(ctx context.Context, query string, corpus []*core.FileRecord, cfg Config) (*SearchReport, error) {
	return s.SearchWithMonitor(ctx, query, corpus, cfg, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each
// stage of the pipeline.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, corpus []*core.FileRecord, cfg Config, monitor SearchMonitor) (*SearchReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	q, err := s.NewQuery(ctx, query, cfg.FilenameBoost)
	if err != nil {
		s.logger.Error("error preparing query", "query", query, "err", err)
		return nil, err
	}
	return s.run(ctx, q, corpus, cfg, monitor, nil)
}

// SearchStore searches the files stored in the searcher's repository.
// With IDFScopeCorpus, document frequencies come from the repository's
// term postings.
func (s *Searcher) SearchStore(ctx context.Context, query string, cfg Config) (*SearchReport, error) {
	if s.files == nil {
		return nil, ErrFileRepositoryRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	corpus, err := s.files.GetAllFiles(ctx, cfg.Mode)
	if err != nil {
		s.logger.Error("error loading corpus", "mode", cfg.Mode, "err", err)
		return nil, err
	}

	var df DocFrequencyFunc
	if cfg.IDFScope == IDFScopeCorpus {
		df = func(ctx context.Context, term string) (int, error) {
			return s.files.DocFrequency(ctx, term, cfg.Mode)
		}
	}

	q, err := s.NewQuery(ctx, query, cfg.FilenameBoost)
	if err != nil {
		s.logger.Error("error preparing query", "query", query, "err", err)
		return nil, err
	}
	return s.run(ctx, q, corpus, cfg, nil, df)
}

// Run executes the pipeline for a query that is already embedded.
// The query is not modified.
func (s *Searcher) Run(ctx context.Context, query *core.QueryContext, corpus []*core.FileRecord, cfg Config) (*SearchReport, error) {
	return s.RunWithMonitor(ctx, query, corpus, cfg, nil)
}

// RunWithMonitor is Run with a monitor.
func (s *Searcher) RunWithMonitor(ctx context.Context, query *core.QueryContext, corpus []*core.FileRecord, cfg Config, monitor SearchMonitor) (*SearchReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, query, corpus, cfg, monitor, nil)
}

// run drives one request through Idle, Filtering, Scoring, Calibrating
// and Done. corpusDF, when set, supplies corpus-scope document frequencies.
func (s *Searcher) run(ctx context.Context, query *core.QueryContext, corpus []*core.FileRecord, cfg Config, monitor SearchMonitor, corpusDF DocFrequencyFunc) (*SearchReport, error) {
	if query == nil || len(query.Embedding) == 0 {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	started := time.Now()
	q := *query
	if q.RequestId == "" {
		q.RequestId = uuid.NewString()
	}
	logger := s.logger.With("request", q.RequestId)

	ctx, span := s.tracer.Start(ctx, "search.run", trace.WithAttributes(
		attribute.String("search.request_id", q.RequestId),
		attribute.String("search.mode", cfg.Mode.String()),
		attribute.Int("search.terms", len(q.Terms)),
	))
	defer span.End()

	report, err := s.pipeline(ctx, &q, corpus, cfg, monitor, corpusDF, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("search failed", "err", err)
		return nil, err
	}

	report.Elapsed = time.Since(started)
	span.SetAttributes(
		attribute.Int("search.candidates", report.Candidates),
		attribute.Int("search.results", len(report.Results)),
	)
	logger.Debug("search finished",
		"scanned", report.Scanned,
		"candidates", report.Candidates,
		"results", len(report.Results),
		"fileErrors", len(report.FileErrors),
		"elapsed", report.Elapsed)
	return report, nil
}

func (s *Searcher) pipeline(ctx context.Context, q *core.QueryContext, corpus []*core.FileRecord, cfg Config, monitor SearchMonitor, corpusDF DocFrequencyFunc, logger *slog.Logger) (*SearchReport, error) {
	machine := newStageMachine(monitor)
	report := &SearchReport{RequestId: q.RequestId, Query: q}
	monitor.Start(q)

	files := selectMode(corpus, cfg.Mode)
	report.Scanned = len(files)

	// Stage 1
	if err := machine.advance(StageFiltering); err != nil {
		return nil, err
	}
	candidates, err := s.filterStage(ctx, q, files, cfg, report, monitor)
	if err != nil {
		return nil, err
	}
	report.Candidates = len(candidates)
	monitor.AfterFiltering(candidates)
	logger.Debug("filtered candidates", "scanned", len(files), "candidates", len(candidates))

	// Stage 2
	if err := machine.advance(StageScoring); err != nil {
		return nil, err
	}
	scores, err := s.scoreStage(ctx, q, files, candidates, cfg, corpusDF, report, monitor)
	if err != nil {
		return nil, err
	}
	monitor.AfterScoring(scores)

	// Calibration
	if err := machine.advance(StageCalibrating); err != nil {
		return nil, err
	}
	results, err := s.calibrateStage(ctx, q, scores, cfg, report, monitor)
	if err != nil {
		return nil, err
	}
	report.Results = results

	if err := machine.advance(StageDone); err != nil {
		return nil, err
	}
	report.Stage = machine.stage()
	monitor.Finish(results)
	return report, nil
}

func (s *Searcher) filterStage(ctx context.Context, q *core.QueryContext, files []*core.FileRecord, cfg Config, report *SearchReport, monitor SearchMonitor) ([]Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "search.filter", trace.WithAttributes(
		attribute.Int("search.files", len(files)),
	))
	defer span.End()

	candidates, fileErrs, err := filterCandidates(ctx, s.pool, q, files, cfg.MaxCandidates, cfg.MinSimilarity)
	if err == nil {
		err = s.handleFileErrors(fileErrs, cfg, report, monitor)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.candidates", len(candidates)))
	return candidates, nil
}

func (s *Searcher) scoreStage(ctx context.Context, q *core.QueryContext, files []*core.FileRecord, candidates []Candidate, cfg Config, corpusDF DocFrequencyFunc, report *SearchReport, monitor SearchMonitor) ([]FileScore, error) {
	ctx, span := s.tracer.Start(ctx, "search.score", trace.WithAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.String("search.idf_scope", cfg.IDFScope.String()),
	))
	defer span.End()

	fail := func(err error) ([]FileScore, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	idf, err := s.idfFor(ctx, q, files, candidates, cfg, corpusDF)
	if err != nil {
		return fail(fmt.Errorf("document frequency: %w", err))
	}

	scores := make([]FileScore, len(candidates))
	errs := make([]error, len(candidates))
	err = fanOut(ctx, s.pool, len(candidates), func(i int) {
		scores[i], errs[i] = scoreFile(q, candidates[i].File, cfg.Weights, idf)
	})
	if err != nil {
		return fail(err)
	}

	var fileErrs []*FileError
	kept := scores[:0]
	for i := range scores {
		if errs[i] != nil {
			fileErrs = append(fileErrs, newFileError(candidates[i].File, StageScoring, errs[i]))
			continue
		}
		kept = append(kept, scores[i])
	}
	if err := s.handleFileErrors(fileErrs, cfg, report, monitor); err != nil {
		return fail(err)
	}

	slices.SortFunc(kept, func(a, b FileScore) int {
		if c := cmp.Compare(b.Breakdown.Composite, a.Breakdown.Composite); c != 0 {
			return c
		}
		return cmp.Compare(a.File.Id, b.File.Id)
	})
	return kept, nil
}

func (s *Searcher) calibrateStage(ctx context.Context, q *core.QueryContext, scores []FileScore, cfg Config, report *SearchReport, monitor SearchMonitor) ([]core.RankedResult, error) {
	_, span := s.tracer.Start(ctx, "search.calibrate", trace.WithAttributes(
		attribute.Int("search.scored", len(scores)),
	))
	defer span.End()

	var fileErrs []*FileError
	rankedResults := make([]core.RankedResult, 0, len(scores))
	for _, score := range scores {
		var fb, eb float64
		if cfg.FilenameBoost {
			fb = FilenameBoost(q, score.File)
		}
		if cfg.ExactTermBoost && len(score.Chunks) > 0 {
			eb = ExactTermBoost(q, score.Chunks[0].Chunk.Text)
		}

		conf, err := calibrate(score.Breakdown.Composite, fb, eb)
		if err != nil {
			fileErrs = append(fileErrs, newFileError(score.File, StageCalibrating, err))
			continue
		}

		best := score.Chunks
		if len(best) > cfg.BestChunks {
			best = best[:cfg.BestChunks]
		}
		rankedResults = append(rankedResults, core.RankedResult{
			FileId:            score.File.Id,
			Path:              score.File.Path,
			Breakdown:         score.Breakdown,
			ConfidencePercent: Percent(conf),
			FilenameBoost:     fb,
			ExactTermBoost:    eb,
			BestChunks:        slices.Clone(best),
		})
	}
	if err := s.handleFileErrors(fileErrs, cfg, report, monitor); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Boosts only affect the displayed confidence; composite decides rank.
	// scores arrive ordered by composite then file ID, which the stable
	// sort keeps for ties.
	slices.SortStableFunc(rankedResults, func(a, b core.RankedResult) int {
		return cmp.Compare(b.Breakdown.Composite, a.Breakdown.Composite)
	})
	if cfg.MaxResults > 0 && len(rankedResults) > cfg.MaxResults {
		rankedResults = rankedResults[:cfg.MaxResults]
	}

	return rankedResults, nil
}

// handleFileErrors aborts with the first error unless the configuration
// skips invalid files, in which case the errors are recorded.
func (s *Searcher) handleFileErrors(fileErrs []*FileError, cfg Config, report *SearchReport, monitor SearchMonitor) error {
	if len(fileErrs) == 0 {
		return nil
	}
	if !cfg.SkipInvalidFiles {
		return fileErrs[0]
	}
	for _, fe := range fileErrs {
		s.logger.Warn("skipping file", "request", report.RequestId, "path", fe.Path, "stage", fe.Stage, "err", fe.Err)
		monitor.FileFailed(fe)
	}
	report.FileErrors = append(report.FileErrors, fileErrs...)
	return nil
}

// idfFor builds the IDF function for the request's terms over the
// configured document set.
func (s *Searcher) idfFor(ctx context.Context, q *core.QueryContext, files []*core.FileRecord, candidates []Candidate, cfg Config, corpusDF DocFrequencyFunc) (similarity.IDFFunc, error) {
	if len(q.Terms) == 0 {
		return nil, nil
	}
	if cfg.IDFScope == IDFScopeCorpus {
		df := corpusDF
		if df == nil {
			df = CountDocFrequency(files)
		}
		return BuildIDF(ctx, q.Terms, len(files), df)
	}

	docs := make([]*core.FileRecord, len(candidates))
	for i, c := range candidates {
		docs[i] = c.File
	}
	return BuildIDF(ctx, q.Terms, len(docs), CountDocFrequency(docs))
}

// selectMode returns the files of mode, or every file when mode is zero.
func selectMode(corpus []*core.FileRecord, mode core.ChunkMode) []*core.FileRecord {
	files := make([]*core.FileRecord, 0, len(corpus))
	for _, file := range corpus {
		if file != nil && (mode == 0 || file.Mode == mode) {
			files = append(files, file)
		}
	}
	return files
}
