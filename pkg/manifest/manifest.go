// Package manifest reads the list of archive segments for a run and writes the
// run summary.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
)

// SummaryManifest is the YAML run summary: what was processed, what was skipped and
// the most voted phrases.
type SummaryManifest struct {
	RunID             string           `yaml:"run_id"`
	GeneratedAt       string           `yaml:"generated_at"`
	Manifest          string           `yaml:"manifest"`
	Output            string           `yaml:"output"`
	TotalSegments     int              `yaml:"total_segments"`
	Successful        int              `yaml:"successful"`
	Skipped           int              `yaml:"skipped"`
	Records           int              `yaml:"records"`
	Observations      int              `yaml:"observations"`
	Phrases           int              `yaml:"phrases"`
	BytesDownloaded   string           `yaml:"bytes_downloaded"`
	SkipReasons       map[string]int   `yaml:"skip_reasons,omitempty"`
	AggregateKeywords []string         `yaml:"aggregate_keywords"`
	Results           []SegmentSummary `yaml:"results"`
}

// SegmentSummary represents summary information for a single segment.
type SegmentSummary struct {
	Location     string `yaml:"location"`
	Status       string `yaml:"status"` // "ok" or "skipped"
	Reason       string `yaml:"reason,omitempty"`
	ErrorMessage string `yaml:"error_message,omitempty"`
	Records      int    `yaml:"records"`
	Observations int    `yaml:"observations"`
	SizeBytes    int64  `yaml:"size_bytes,omitempty"`
}

// Parse reads segment locations, one per line. Blank lines and lines starting
// with '#' are ignored; surrounding whitespace is trimmed.
func Parse(r io.Reader) ([]string, error) {
	var locations []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		locations = append(locations, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return locations, nil
}

// Load fetches and parses the segment manifest at location.
func Load(ctx context.Context, store storage.Store, location string) ([]string, error) {
	rc, err := store.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("error opening manifest: %w", err)
	}
	defer rc.Close()

	return Parse(rc)
}
