// Package sink serializes the final phrase counts and publishes them.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
)

// DefaultObjectName is the file written when the output location is a prefix.
const DefaultObjectName = "output.csv"

// Write writes one "phrase,count" row per entry, without a header.
// Entries with an empty phrase are never written.
func Write(w io.Writer, counts []models.AggregateCount) error {
	cw := csv.NewWriter(w)
	for _, c := range counts {
		if c.Phrase == "" {
			continue
		}
		if err := cw.Write([]string{c.Phrase, strconv.Itoa(c.Count)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Target resolves the object location for an output location. A prefix (an s3 URI
// without a .csv key, a path ending in a slash, or an existing directory) gets
// DefaultObjectName appended.
func Target(location string) string {
	switch storage.Scheme(location) {
	case "s3":
		if strings.HasSuffix(strings.ToLower(location), ".csv") {
			return location
		}
		return strings.TrimRight(location, "/") + "/" + DefaultObjectName
	case "", "file":
		if strings.HasSuffix(location, "/") {
			return location + DefaultObjectName
		}
		if info, err := os.Stat(strings.TrimPrefix(location, "file://")); err == nil && info.IsDir() {
			return location + "/" + DefaultObjectName
		}
	}
	return location
}

// Publish serializes counts and writes them to location, replacing any earlier
// artifact. It returns the resolved object location. Every failure wraps models.ErrPublish.
func Publish(ctx context.Context, store storage.Store, location string, counts []models.AggregateCount) (string, error) {
	target := Target(location)

	var buf bytes.Buffer
	if err := Write(&buf, counts); err != nil {
		return target, fmt.Errorf("%w: %v", models.ErrPublish, err)
	}
	if err := store.Put(ctx, target, &buf); err != nil {
		return target, fmt.Errorf("%w: %s: %w", models.ErrPublish, target, err)
	}
	return target, nil
}
