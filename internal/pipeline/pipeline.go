package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	"github.com/couchcryptid/aviation-accident-etl/internal/observability"
)

// Extractor lists the raw files of a run and decodes one file at a time.
type Extractor interface {
	ListFiles(ctx context.Context) ([]string, error)
	Extract(ctx context.Context, path string) ([]domain.RawRecord, error)
}

// Transformer converts one raw record into its fact and dimension rows.
type Transformer interface {
	Transform(ctx context.Context, rec domain.RawRecord) (domain.RowSet, error)
}

// Loader persists the final tables and the run manifest.
type Loader interface {
	Save(ctx context.Context, t domain.Tables) error
	SaveManifest(m domain.Manifest) error
}

// Notifier announces a completed run.
type Notifier interface {
	Notify(ctx context.Context, m domain.Manifest) error
}

// Options tunes a Pipeline.
type Options struct {
	InputDir  string
	OutputDir string

	// Workers bounds how many files are extracted and transformed at once.
	Workers int
	// SkipMalformed logs and drops records that fail to transform instead of
	// aborting the run.
	SkipMalformed bool
	Deduplicate   bool
	Progress      bool

	// Notifier is optional.
	Notifier Notifier
}

// Pipeline orchestrates one extract-transform-load run over a directory.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options

	last atomic.Pointer[domain.Manifest]
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.last.Load() == nil {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastManifest returns the manifest of the last successful run.
func (p *Pipeline) LastManifest() (domain.Manifest, bool) {
	m := p.last.Load()
	if m == nil {
		return domain.Manifest{}, false
	}
	return *m, true
}

// fileBatch is the transformed content of one raw file.
type fileBatch struct {
	name    string
	tables  domain.Tables
	read    int
	skipped int
}

// Run processes every input file, merges the per-file tables in file order
// and persists the result.
func (p *Pipeline) Run(ctx context.Context) (domain.Manifest, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	manifest := domain.StartManifest(uuid.NewString(), p.opts.InputDir, p.opts.OutputDir)
	manifest.Deduplicated = p.opts.Deduplicate

	files, err := p.extractor.ListFiles(ctx)
	if err != nil {
		return manifest, fmt.Errorf("list input files: %w", err)
	}
	p.logger.Info("pipeline started",
		"run_id", manifest.RunID,
		"input_dir", p.opts.InputDir,
		"files", len(files),
		"workers", p.opts.Workers,
	)

	batches, err := p.processFiles(ctx, files)
	if err != nil {
		return manifest, err
	}

	acc := domain.NewAccumulator(p.opts.Deduplicate)
	for _, b := range batches {
		acc.Merge(b.tables)
		manifest.Files = append(manifest.Files, b.name)
		manifest.RecordsRead += b.read
		manifest.RecordsSkipped += b.skipped
	}
	tables := acc.Tables()

	if err := p.loader.Save(ctx, tables); err != nil {
		return manifest, fmt.Errorf("save tables: %w", err)
	}
	manifest.Finish(tables)
	if err := p.loader.SaveManifest(manifest); err != nil {
		return manifest, err
	}

	p.record(manifest)
	p.logger.Info("pipeline finished",
		"run_id", manifest.RunID,
		"records", humanize.Comma(int64(manifest.RecordsRead)),
		"skipped", humanize.Comma(int64(manifest.RecordsSkipped)),
		"facts", humanize.Comma(int64(len(tables.Facts))),
		"duration", manifest.Duration(),
	)

	if p.opts.Notifier != nil {
		if err := p.opts.Notifier.Notify(ctx, manifest); err != nil {
			// Output is already on disk; a failed notice is only logged.
			p.logger.Error("run notification failed", "run_id", manifest.RunID, "error", err)
		}
	}
	return manifest, nil
}

// processFiles extracts and transforms files with up to Workers goroutines.
// Results are indexed by file position so merge order never depends on
// scheduling.
func (p *Pipeline) processFiles(ctx context.Context, files []string) ([]fileBatch, error) {
	bar := p.newProgressBar(len(files))
	defer bar.finish()

	batches := make([]fileBatch, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			b, err := p.processFile(gCtx, path)
			if err != nil {
				return err
			}
			batches[i] = b
			bar.increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (p *Pipeline) processFile(ctx context.Context, path string) (fileBatch, error) {
	b := fileBatch{name: filepath.Base(path)}

	records, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return b, fmt.Errorf("extract %s: %w", b.name, err)
	}
	p.metrics.FilesProcessed.Inc()
	p.metrics.RecordsRead.Add(float64(len(records)))
	b.read = len(records)

	for _, rec := range records {
		rs, err := p.transformer.Transform(ctx, rec)
		if err != nil {
			p.metrics.TransformErrors.Inc()
			if !p.opts.SkipMalformed {
				return b, fmt.Errorf("transform: %w", err)
			}
			p.logger.Warn("transform failed, skipping record",
				"error", err,
				"file", rec.File,
				"record", rec.Index,
			)
			p.metrics.RecordsSkipped.Inc()
			b.skipped++
			continue
		}
		b.tables.Add(rs)
	}

	p.logger.Debug("file transformed", "file", b.name, "records", b.read, "skipped", b.skipped)
	return b, nil
}

func (p *Pipeline) record(m domain.Manifest) {
	for table, n := range m.Tables {
		p.metrics.TableRows.WithLabelValues(table).Set(float64(n))
	}
	p.metrics.RunDuration.Observe(m.Duration().Seconds())
	p.metrics.LastRunTimestamp.Set(float64(m.FinishedAt.Unix()))
	p.last.Store(&m)
}

// progressBar is a nil-safe wrapper so callers need not check whether
// progress output is enabled.
type progressBar struct {
	bar *pb.ProgressBar
}

func (p *Pipeline) newProgressBar(total int) progressBar {
	if !p.opts.Progress {
		return progressBar{}
	}
	bar := pb.Full.Start(total)
	bar.Set("prefix", "files ")
	bar.Set(pb.CleanOnFinish, true)
	return progressBar{bar: bar}
}

func (b progressBar) increment() {
	if b.bar != nil {
		b.bar.Increment()
	}
}

func (b progressBar) finish() {
	if b.bar != nil {
		b.bar.Finish()
	}
}
