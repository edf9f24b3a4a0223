package manifest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/mapreduce"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"gopkg.in/yaml.v3"
)

// TopKeywordCount is the number of phrases listed in a summary.
const TopKeywordCount = 25

// RunInfo identifies the run a summary describes.
type RunInfo struct {
	RunID    string
	Manifest string
	Output   string
}

// BuildSummary aggregates segment results and the final counts into a summary.
func BuildSummary(info RunInfo, results []models.SegmentResult, counts []models.AggregateCount) SummaryManifest {
	summary := SummaryManifest{
		RunID:             info.RunID,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
		Manifest:          info.Manifest,
		Output:            info.Output,
		TotalSegments:     len(results),
		Phrases:           len(counts),
		AggregateKeywords: mapreduce.TopKeywords(counts, TopKeywordCount),
		Results:           make([]SegmentSummary, 0, len(results)),
	}

	var bytesDownloaded int64
	for _, result := range results {
		seg := SegmentSummary{
			Location:     result.Location,
			Status:       result.Outcome.Status,
			Reason:       result.Outcome.Reason,
			Records:      result.Records,
			Observations: result.Observations,
			SizeBytes:    result.Bytes,
		}
		if result.Outcome.Err != nil {
			seg.ErrorMessage = result.Outcome.Err.Error()
		}

		if result.Outcome.IsOK() {
			summary.Successful++
			summary.Records += result.Records
			summary.Observations += result.Observations
		} else {
			summary.Skipped++
		}
		for reason, n := range result.Skipped {
			if summary.SkipReasons == nil {
				summary.SkipReasons = make(map[string]int)
			}
			summary.SkipReasons[reason] += n
		}
		bytesDownloaded += result.Bytes

		summary.Results = append(summary.Results, seg)
	}
	summary.BytesDownloaded = humanize.Bytes(uint64(bytesDownloaded))

	return summary
}

// WriteSummary stores the summary as YAML at location.
func WriteSummary(ctx context.Context, store storage.Store, location string, summary SummaryManifest) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("error marshalling summary: %w", err)
	}
	if err := store.Put(ctx, location, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error saving summary: %w", err)
	}
	return nil
}
