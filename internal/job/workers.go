package job

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/archive"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/caching"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/embedder"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/keyphrase"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/parser"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/stopwords"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/votestore"
)

// NewKeyphraseFactory returns the production extractor factory: every worker gets
// its own content parser and its own model registry.
func NewKeyphraseFactory(config *models.JobConfig, stop stopwords.Set) ExtractorFactory {
	loader := embedder.NewLoader(embedder.LoaderConfig{
		Endpoint: config.EmbeddingURL,
		RPS:      config.EmbeddingRPS,
		Timeout:  config.InferenceTimeout,
	})
	return func(workerID int) (Extractor, error) {
		registry := embedder.NewRegistry(loader, config.ModelTimeout)
		return keyphrase.NewExtractor(&parser.Parser{}, registry, keyphrase.Options{
			NgramLength:      config.NgramLength,
			ModelID:          config.Model,
			StopWords:        stop,
			InferenceTimeout: config.InferenceTimeout,
		}), nil
	}
}

// segmentWorker processes jobs until the channel closes. Only an error that makes
// the run's output unreliable is returned; segment and record failures become
// skipped results.
type segmentWorker struct {
	id        int
	logger    *slog.Logger
	cache     *caching.SegmentCache
	extractor Extractor
	votes     votestore.Store
	opts      archive.Options
}

func newSegmentWorker(id int, logger *slog.Logger, config *models.JobConfig, store storage.Store, factory ExtractorFactory, votes votestore.Store, patterns archive.Patterns) (*segmentWorker, error) {
	cache, err := caching.NewSegmentCache(filepath.Join(config.ScratchDir, fmt.Sprintf("worker-%d", id)), store)
	if err != nil {
		return nil, err
	}
	extractor, err := factory(id)
	if err != nil {
		return nil, fmt.Errorf("worker %d: failed to build extractor: %w", id, err)
	}
	return &segmentWorker{
		id:        id,
		logger:    logger.With("worker_id", id),
		cache:     cache,
		extractor: extractor,
		votes:     votes,
		opts: archive.Options{
			Patterns:        patterns,
			DownloadTimeout: config.SegmentTimeout,
		},
	}, nil
}

func (w *segmentWorker) run(ctx context.Context, jobs <-chan Job, results chan<- Result) error {
	for job := range jobs {
		result, err := w.process(ctx, job)
		if err != nil {
			return err
		}
		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// process reads one segment and commits its votes only when the whole segment
// succeeded.
func (w *segmentWorker) process(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	w.logger.Debug("Worker started segment", "segment", job.Location, "index", job.Index)

	var observations []models.KeywordObservation
	recordSkips := make(map[string]int)

	res := archive.ForEach(ctx, w.cache, job.Location, w.opts, func(rec models.ArchiveRecord) error {
		obs, outcome := w.extractor.ExtractRecord(ctx, rec)
		if !outcome.IsOK() {
			recordSkips[outcome.Reason]++
			if outcome.Reason == models.ReasonModel {
				w.logger.Warn("Phrase extraction failed", "segment", job.Location, "url", rec.URL, "error", outcome.Err)
			}
			return ctx.Err()
		}
		observations = append(observations, obs)
		return nil
	})

	for reason, n := range recordSkips {
		res.Skipped[reason] += n
	}

	if res.Outcome.IsOK() {
		if err := w.votes.Add(observations); err != nil {
			return Result{}, fmt.Errorf("failed to store votes for %s: %w", job.Location, err)
		}
		res.Observations = len(observations)
		w.logger.Info("Worker finished segment",
			"segment", job.Location,
			"records", res.Records,
			"observations", res.Observations,
			"downloaded", humanize.Bytes(uint64(res.Bytes)),
			"duration", time.Since(start).Round(time.Millisecond).String())
	} else {
		w.logger.Warn("Segment skipped",
			"segment", job.Location,
			"reason", res.Outcome.Reason,
			"records_discarded", len(observations),
			"error", res.Outcome.Err)
	}

	return Result{SegmentResult: res, WorkerID: w.id, Duration: time.Since(start)}, nil
}
