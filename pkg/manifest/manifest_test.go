package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	input := "# crawl 2024-10\n" +
		"s3://commoncrawl/crawl-data/a.warc.gz\n" +
		"\n" +
		"   s3://commoncrawl/crawl-data/b.warc.gz  \r\n" +
		"  # indented comment\n" +
		"/local/c.warc"

	locations, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://commoncrawl/crawl-data/a.warc.gz",
		"s3://commoncrawl/crawl-data/b.warc.gz",
		"/local/c.warc",
	}, locations)

	locations, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warc.paths")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	locations, err := Load(context.Background(), &storage.FileStore{}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, locations)

	_, err = Load(context.Background(), &storage.FileStore{}, path+".missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBuildSummary(t *testing.T) {
	results := []models.SegmentResult{
		{
			Location: "a.warc.gz", Outcome: models.OK(), Records: 10, Observations: 4, Bytes: 2048,
			Skipped: map[string]int{"not_html": 3},
		},
		{
			Location: "b.warc.gz", Outcome: models.Skipped(models.ReasonDownload, errors.New("404")),
			Records: 2, Observations: 1,
		},
	}
	counts := []models.AggregateCount{{Phrase: "climate change policy", Count: 2}}

	s := BuildSummary(RunInfo{RunID: "run-1", Manifest: "m", Output: "o"}, results, counts)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 2, s.TotalSegments)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 10, s.Records, "skipped segments contribute nothing")
	assert.Equal(t, 4, s.Observations)
	assert.Equal(t, 1, s.Phrases)
	assert.Equal(t, "2.0 kB", s.BytesDownloaded)
	assert.Equal(t, map[string]int{"not_html": 3}, s.SkipReasons)
	assert.Equal(t, []string{"climate change policy:2"}, s.AggregateKeywords)
	require.Len(t, s.Results, 2)
	assert.Equal(t, "download_error", s.Results[1].Reason)
	assert.Equal(t, "404", s.Results[1].ErrorMessage)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.yaml")
	s := BuildSummary(RunInfo{RunID: "r"}, nil, nil)

	require.NoError(t, WriteSummary(context.Background(), &storage.FileStore{}, path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back SummaryManifest
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "r", back.RunID)
	assert.Equal(t, 0, back.TotalSegments)
}
