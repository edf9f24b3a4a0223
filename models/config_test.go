package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	content := `manifest: s3://commoncrawl/crawl-data/CC-MAIN-2023-50/warc.paths
output: s3://results/run-1/
url_patterns:
  - '.*\.fr$'
  - '.*\.de$'
ngram_length: 2
workers: 8
segment_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "s3://commoncrawl/crawl-data/CC-MAIN-2023-50/warc.paths", config.Manifest)
	assert.Equal(t, []string{`.*\.fr$`, `.*\.de$`}, config.URLPatterns)
	assert.Equal(t, 2, config.NgramLength)
	assert.Equal(t, 8, config.WorkerCount)
	assert.Equal(t, 30*time.Second, config.SegmentTimeout)

	// untouched fields keep their defaults
	assert.Equal(t, DefaultModel, config.Model)
	assert.Equal(t, DefaultShardCount, config.ShardCount)
	assert.Equal(t, time.Minute, config.InferenceTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not, a, number]\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{`.*\.fr$`, []string{`.*\.fr$`}},
		{`.*\.fr$; .*\.de$;`, []string{`.*\.fr$`, `.*\.de$`}},
		{" ; ;", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SplitPatterns(tt.input), "input %q", tt.input)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *JobConfig {
		c := DefaultConfig()
		c.Manifest = "paths.txt"
		c.Output = "out.csv"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*JobConfig)
	}{
		{"no manifest", func(c *JobConfig) { c.Manifest = "" }},
		{"no output", func(c *JobConfig) { c.Output = "" }},
		{"negative ngram", func(c *JobConfig) { c.NgramLength = -1 }},
		{"no workers", func(c *JobConfig) { c.WorkerCount = 0 }},
		{"no shards", func(c *JobConfig) { c.ShardCount = 0 }},
		{"no model", func(c *JobConfig) { c.Model = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestKeywordObservation_IsSentinel(t *testing.T) {
	assert.True(t, SentinelObservation.IsSentinel())
	assert.False(t, KeywordObservation{Hostname: "a.com"}.IsSentinel())
	assert.False(t, KeywordObservation{Phrase: "x"}.IsSentinel())
}
