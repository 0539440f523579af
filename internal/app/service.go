// Package service runs the career pipeline: ingest the corpus into the
// relational store, compute the five metrics, and export the trimmed payload.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/trajectory/internal/adapters/artifact"
	"github.com/okian/trajectory/internal/adapters/corpus"
	"github.com/okian/trajectory/internal/adapters/repository"
	"github.com/okian/trajectory/internal/domain/analytics"
	"github.com/okian/trajectory/internal/domain/dedupe"
	"github.com/okian/trajectory/internal/domain/normalize"
	"github.com/okian/trajectory/internal/domain/payload"
	"github.com/okian/trajectory/pkg/logger"
	"github.com/okian/trajectory/pkg/metrics"
)

// Metric entry stages reported to Prometheus.
const (
	stageComputed = "computed"
	stageExported = "exported"
)

// IngestReport summarizes one load.
type IngestReport struct {
	// Files holds the base names of the input files, in load order.
	Files   []string
	Loaded  int64
	Skipped map[string]int64
}

// SkippedTotal returns the number of skipped lines and records.
func (r *IngestReport) SkippedTotal() int64 {
	var n int64
	for _, v := range r.Skipped {
		n += v
	}
	return n
}

// Service owns one pipeline run over a store.
type Service struct {
	mu sync.Mutex

	store      repository.Store
	normalizer *normalize.Normalizer
	deduper    dedupe.Deduper
	reader     *corpus.Reader
	shaper     *payload.Shaper

	// Configuration
	dataDir         string
	fileGlob        string
	outputPath      string
	metricsTextfile string
	engineOpts      []analytics.Option

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInput sets where input files are discovered.
func WithInput(dir, glob string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
		if glob != "" {
			s.fileGlob = glob
		}
	}
}

// WithOutputPath sets where the payload is written.
func WithOutputPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.outputPath = path
		}
	}
}

// WithMetricsTextfile makes Run write the Prometheus registry to path.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) { s.metricsTextfile = path }
}

// WithNormalizer sets the record normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithMaxLineBytes bounds one input line.
func WithMaxLineBytes(n int) Option {
	return func(s *Service) { s.reader = corpus.NewReader(n) }
}

// WithExpectedPersons pre-sizes the duplicate tracker for a corpus of about n persons.
func WithExpectedPersons(n int) Option {
	return func(s *Service) { s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithExpectedSize(n)) }
}

// WithEngineOptions configures the metrics engine.
func WithEngineOptions(opts ...analytics.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithShaper sets the payload shaper.
func WithShaper(sh *payload.Shaper) Option {
	return func(s *Service) {
		if sh != nil {
			s.shaper = sh
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		normalizer: normalize.New(),
		deduper:    dedupe.NewInMemoryDeduper(),
		reader:     corpus.NewReader(0),
		shaper:     payload.NewShaper(),
		dataDir:    ".",
		fileGlob:   "*.jsonl*",
		outputPath: "output.json",
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes ingest, analyze and export in order. Any phase failure aborts
// the run. Writing the metrics textfile is best effort.
func (s *Service) Run(ctx context.Context) (*payload.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runStart := time.Now()
	s.logger.Info(ctx, "pipeline starting",
		logger.String("data_dir", s.dataDir),
		logger.String("file_glob", s.fileGlob),
		logger.String("output", s.outputPath))

	var report *IngestReport
	err := s.phase(ctx, metrics.PhaseIngest, func() (err error) {
		report, err = s.ingest(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var res *analytics.Results
	if err := s.phase(ctx, metrics.PhaseAnalyze, func() (err error) {
		res, err = s.analyze(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	var out *payload.Payload
	if err := s.phase(ctx, metrics.PhaseExport, func() (err error) {
		out, err = s.export(ctx, report, res)
		return err
	}); err != nil {
		return nil, err
	}

	metrics.MarkRunSucceeded(time.Now())
	if s.metricsTextfile != "" {
		if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
			s.logger.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "pipeline complete",
		logger.String("run_id", out.Metadata.RunID),
		logger.Int64("loaded", report.Loaded),
		logger.Int64("skipped", report.SkippedTotal()),
		logger.Strings("degenerate_metrics", out.Metadata.DegenerateMetrics),
		logger.Any("took", time.Since(runStart)))
	return out, nil
}

func (s *Service) phase(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObservePhase(name, time.Since(start))
	if err != nil {
		metrics.RecordPhaseFailure(name)
		s.logger.Error(ctx, "phase failed", logger.String("phase", name), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Ingest loads every input file into the store.
func (s *Service) Ingest(ctx context.Context) (*IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingest(ctx)
}

func (s *Service) ingest(ctx context.Context) (*IngestReport, error) {
	files, err := corpus.Discover(s.dataDir, s.fileGlob)
	if err != nil {
		return nil, err
	}
	w, err := s.store.NewWriter(ctx)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{Skipped: make(map[string]int64)}
	for _, path := range files {
		name := filepath.Base(path)
		loadedBefore, skippedBefore := w.Loaded(), report.SkippedTotal()
		err := s.reader.Each(ctx, path, func(line corpus.Line) error {
			return s.load(ctx, w, report, line)
		})
		if err != nil {
			_ = w.Abort()
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		metrics.RecordFileRead()
		report.Files = append(report.Files, name)
		s.logger.Info(ctx, "file loaded",
			logger.String("file", name),
			logger.Int64("loaded", w.Loaded()-loadedBefore),
			logger.Int64("skipped", report.SkippedTotal()-skippedBefore))
	}
	if err := w.Commit(ctx); err != nil {
		return nil, err
	}
	report.Loaded = w.Loaded()
	s.logger.Info(ctx, "ingest complete",
		logger.Int("files", len(report.Files)),
		logger.Int64("loaded", report.Loaded),
		logger.Int64("distinct_persons", s.deduper.Size()))
	return report, nil
}

// load handles one line. Only store failures are returned; bad lines and
// records are counted and skipped.
func (s *Service) load(ctx context.Context, w repository.RecordWriter, report *IngestReport, line corpus.Line) error {
	metrics.RecordLineRead()
	skip := func(reason string, err error) {
		report.Skipped[reason]++
		metrics.RecordRecordSkipped(reason)
		s.logger.Warn(ctx, "record skipped",
			logger.String("reason", reason),
			logger.String("file", line.File),
			logger.Int("line", line.Number),
			logger.Error(err))
	}

	if line.Err != nil {
		skip(metrics.ReasonMalformedJSON, line.Err)
		return nil
	}
	obj, err := normalize.Decode(line.Data)
	if err != nil {
		skip(metrics.ReasonMalformedJSON, err)
		return nil
	}
	rec, err := s.normalizer.Normalize(obj)
	if err != nil {
		skip(metrics.ReasonMissingIdentity, err)
		return nil
	}
	if s.deduper.SeenAndRecord(ctx, rec.Person.ID) {
		skip(metrics.ReasonDuplicate, fmt.Errorf("person %s already loaded", rec.Person.ID))
		return nil
	}
	if err := w.Write(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrRecordRejected) {
			// A later copy of this person may still load.
			s.deduper.Unrecord(ctx, rec.Person.ID)
			skip(metrics.ReasonStoreError, err)
			return nil
		}
		return err
	}
	metrics.RecordRecordLoaded()
	return nil
}

// Analyze computes the five metrics from the store.
func (s *Service) Analyze(ctx context.Context) (*analytics.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyze(ctx)
}

func (s *Service) analyze(ctx context.Context) (*analytics.Results, error) {
	opts := append([]analytics.Option{analytics.WithLogger(s.logger.Named("analytics"))}, s.engineOpts...)
	res, err := analytics.NewEngine(s.store, opts...).Compute(ctx)
	if err != nil {
		return nil, err
	}
	for name, n := range res.Sizes() {
		metrics.UpdateMetricEntries(name, stageComputed, n)
	}
	return res, nil
}

// Export shapes res with run metadata and writes the artifact.
func (s *Service) Export(ctx context.Context, report *IngestReport, res *analytics.Results) (*payload.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.export(ctx, report, res)
}

func (s *Service) export(ctx context.Context, report *IngestReport, res *analytics.Results) (*payload.Payload, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	meta := payload.Metadata{
		TotalPersons: counts.Persons,
		TotalJobs:    counts.Jobs,
	}
	if report != nil {
		meta.DataFiles = report.Files
		meta.RecordsSkipped = report.SkippedTotal()
	}

	out, err := s.shaper.Shape(meta, res)
	if err != nil {
		return nil, err
	}
	doc, err := payload.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	if err := artifact.WriteFile(s.outputPath, doc); err != nil {
		return nil, err
	}
	for name, n := range out.Sizes() {
		metrics.UpdateMetricEntries(name, stageExported, n)
	}
	s.logger.Info(ctx, "payload exported",
		logger.String("path", s.outputPath),
		logger.Int("bytes", len(doc)))
	return out, nil
}
