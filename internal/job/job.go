// Package job runs a keyphrase counting job: segments from a manifest are spread
// over a worker pool, votes are reduced to per-phrase host counts and the counts
// are published.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/archive"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/db"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/manifest"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/mapreduce"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/sink"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/stopwords"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/votestore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Run executes one job. Segment and record failures are absorbed and reported in
// the summary; configuration, vote store and publish failures are returned.
func Run(ctx context.Context, logger *slog.Logger, config *models.JobConfig, deps Deps) (*manifest.SummaryManifest, error) {
	startTime := time.Now()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		deps.Store = storage.NewMux()
	}

	patterns, err := archive.CompilePatterns(config.URLPatterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	if deps.NewExtractor == nil {
		stop, err := stopwords.Load(config.StopwordDir, config.StopwordLang)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
		}
		logger.Info("Stop words resolved", "lang", config.StopwordLang, "words", stop.Len())
		deps.NewExtractor = NewKeyphraseFactory(config, stop)
	}

	locations, err := manifest.Load(ctx, deps.Store, config.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", config.Manifest, err)
	}

	if deps.Votes == nil {
		votes, err := votestore.Open(config.VoteStore, config.ShardCount)
		if err != nil {
			return nil, fmt.Errorf("failed to open vote store: %w", err)
		}
		defer votes.Close()
		deps.Votes = votes
	}

	runUUID := uuid.NewString()
	ledger := newLedgerRun(logger, deps.Ledger, runUUID, config)

	logger.Info("Starting segment phase",
		"run_id", runUUID,
		"segments", len(locations),
		"workers", config.WorkerCount,
		"model", config.Model,
		"ngram_length", config.NgramLength)

	results, workErr := process(ctx, logger, config, deps, patterns, locations, ledger)

	totals := db.RunTotals{Segments: len(results)}
	for _, r := range results {
		if r.Outcome.IsOK() {
			totals.OK++
			totals.Records += r.Records
			totals.Observations += r.Observations
		} else {
			totals.Skipped++
		}
	}

	if workErr != nil {
		ledger.finish(db.RunFailed, totals, workErr)
		return nil, workErr
	}

	counts, err := deps.Votes.Counts()
	if err != nil {
		err = fmt.Errorf("failed to reduce votes: %w", err)
		ledger.finish(db.RunFailed, totals, err)
		return nil, err
	}
	totals.Phrases = len(counts)

	target, err := sink.Publish(ctx, deps.Store, config.Output, counts)
	if err != nil {
		ledger.finish(db.RunFailed, totals, err)
		return nil, err
	}
	logger.Info("Published counts", "target", target, "phrases", len(counts))

	segmentResults := make([]models.SegmentResult, len(results))
	for i, r := range results {
		segmentResults[i] = r.SegmentResult
	}
	summary := manifest.BuildSummary(manifest.RunInfo{
		RunID:    runUUID,
		Manifest: config.Manifest,
		Output:   target,
	}, segmentResults, counts)

	if config.SummaryFile != "" {
		if err := manifest.WriteSummary(ctx, deps.Store, config.SummaryFile, summary); err != nil {
			logger.Warn("Failed to write summary", "path", config.SummaryFile, "error", err)
		}
	}
	if deps.Metrics != nil {
		deps.Metrics.SetPhrases(len(counts))
		if config.MetricsFile != "" {
			if err := deps.Metrics.WriteTextfile(config.MetricsFile); err != nil {
				logger.Warn("Failed to write metrics", "path", config.MetricsFile, "error", err)
			}
		}
	}

	ledger.finish(db.RunSucceeded, totals, nil)
	logger.Info("Run finished",
		"run_id", runUUID,
		"segments", totals.Segments,
		"skipped", totals.Skipped,
		"records", totals.Records,
		"phrases", totals.Phrases,
		"top_keywords", mapreduce.TopKeywords(counts, 5),
		"total_time_seconds", time.Since(startTime).Seconds())

	return &summary, nil
}

// process fans segments out to the worker pool and collects their results in
// completion order.
func process(ctx context.Context, logger *slog.Logger, config *models.JobConfig, deps Deps, patterns archive.Patterns, locations []string, ledger *ledgerRun) ([]Result, error) {
	workers := make([]*segmentWorker, 0, config.WorkerCount)
	for w := 1; w <= config.WorkerCount; w++ {
		worker, err := newSegmentWorker(w, logger, config, deps.Store, deps.NewExtractor, deps.Votes, patterns)
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan Job)
	results := make(chan Result, config.WorkerCount)

	g.Go(func() error {
		defer close(jobs)
		for i, location := range locations {
			select {
			case jobs <- Job{Index: i, Location: location}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for _, worker := range workers {
		worker := worker
		g.Go(func() error {
			return worker.run(gctx, jobs, results)
		})
	}

	var workErr error
	go func() {
		workErr = g.Wait()
		close(results)
	}()

	collected := make([]Result, 0, len(locations))
	for result := range results {
		collected = append(collected, result)
		ledger.recordSegment(result.SegmentResult)
		if deps.Metrics != nil {
			deps.Metrics.ObserveSegment(result.SegmentResult)
		}
		if deps.OnSegment != nil {
			deps.OnSegment(result)
		}
	}
	logger.Info("All segment workers finished", "segments", len(collected))

	if workErr == nil && ctx.Err() != nil {
		workErr = ctx.Err()
	}
	if errors.Is(workErr, context.Canceled) {
		workErr = fmt.Errorf("run canceled after %d of %d segments: %w", len(collected), len(locations), workErr)
	}
	return collected, workErr
}

// ledgerRun records a run in the ledger. Ledger failures are logged and never
// change the outcome of the run.
type ledgerRun struct {
	logger *slog.Logger
	db     *db.DB
	runID  int64
}

func newLedgerRun(logger *slog.Logger, database *db.DB, runUUID string, config *models.JobConfig) *ledgerRun {
	l := &ledgerRun{logger: logger, db: database}
	if database == nil {
		return l
	}

	snapshot, err := yaml.Marshal(config)
	if err != nil {
		logger.Warn("Failed to snapshot config", "error", err)
	}
	runID, err := database.CreateRun(runUUID, config.Manifest, config.Output, string(snapshot))
	if err != nil {
		logger.Warn("Failed to record run in ledger", "error", err)
		l.db = nil
		return l
	}
	l.runID = runID
	logger.Info("Run recorded in ledger", "ledger", database.Path(), "ledger_run_id", runID)
	return l
}

func (l *ledgerRun) recordSegment(res models.SegmentResult) {
	if l.db == nil {
		return
	}
	if err := l.db.RecordSegment(l.runID, res); err != nil {
		l.logger.Warn("Failed to record segment in ledger", "segment", res.Location, "error", err)
	}
}

func (l *ledgerRun) finish(status string, totals db.RunTotals, runErr error) {
	if l.db == nil {
		return
	}
	if err := l.db.FinishRun(l.runID, status, totals, runErr); err != nil {
		l.logger.Warn("Failed to finish run in ledger", "error", err)
	}
}
