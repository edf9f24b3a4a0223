package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/caching"
)

// Options control how one segment is fetched and filtered.
type Options struct {
	Patterns        Patterns
	DownloadTimeout time.Duration
}

// RecordFunc receives each emitted record. Returning an error stops the segment.
type RecordFunc func(rec models.ArchiveRecord) error

// ForEach fetches a segment into the cache, streams its filtered records into fn and
// releases the local copy afterwards, whether or not reading succeeded.
//
// Any fetch or framing failure yields a skipped outcome. Callers must then drop
// whatever they derived from the records already passed to fn.
func ForEach(ctx context.Context, cache *caching.SegmentCache, location string, opts Options, fn RecordFunc) models.SegmentResult {
	result := models.SegmentResult{Location: location, Skipped: map[string]int{}}

	fetchCtx := ctx
	if opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, opts.DownloadTimeout)
		defer cancel()
	}

	path, n, err := cache.Fetch(fetchCtx, location)
	if err != nil {
		result.Outcome = models.Skipped(models.ReasonDownload, err)
		return result
	}
	result.Bytes = n
	defer func() { _ = cache.Release(path) }()

	rd, err := Open(path, opts.Patterns)
	if err != nil {
		result.Outcome = models.Skipped(models.ReasonRead, err)
		return result
	}
	defer rd.Close()

	for {
		if err := ctx.Err(); err != nil {
			result.Outcome = models.Skipped(models.ReasonCanceled, err)
			return result
		}

		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Outcome = models.Skipped(models.ReasonRead, err)
			return result
		}

		result.Records++
		if err := fn(*rec); err != nil {
			reason := models.ReasonRead
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				reason = models.ReasonCanceled
			}
			result.Outcome = models.Skipped(reason, fmt.Errorf("record %s: %w", rec.URL, err))
			return result
		}
	}

	for reason, count := range rd.Stats().Skipped {
		result.Skipped[reason] += count
	}
	result.Outcome = models.OK()
	return result
}

// ReadSegment collects the (hostname, html) records of one segment.
// A failed segment contributes no records.
func ReadSegment(ctx context.Context, cache *caching.SegmentCache, location string, opts Options) ([]models.ArchiveRecord, models.SegmentResult) {
	var records []models.ArchiveRecord
	result := ForEach(ctx, cache, location, opts, func(rec models.ArchiveRecord) error {
		records = append(records, rec)
		return nil
	})
	if !result.Outcome.IsOK() {
		return nil, result
	}
	return records, result
}
