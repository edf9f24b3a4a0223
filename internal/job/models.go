package job

import (
	"context"
	"time"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/db"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/metrics"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/votestore"
)

// Job is one archive segment to process.
type Job struct {
	Index    int
	Location string
}

// Result holds the outcome of a processed segment.
type Result struct {
	models.SegmentResult
	WorkerID int
	Duration time.Duration
}

// Extractor turns one archive record into a keyword observation.
type Extractor interface {
	ExtractRecord(ctx context.Context, rec models.ArchiveRecord) (models.KeywordObservation, models.Outcome)
}

// ExtractorFactory builds the extractor owned by one worker.
type ExtractorFactory func(workerID int) (Extractor, error)

// Deps are the collaborators of a run. Nil fields get defaults built from the config,
// except Ledger and Metrics which are simply skipped.
type Deps struct {
	Store        storage.Store
	NewExtractor ExtractorFactory
	Votes        votestore.Store
	Ledger       *db.DB
	Metrics      *metrics.Recorder
	// OnSegment is called from the collecting goroutine after each segment.
	OnSegment func(Result)
}
