// Package models defines data structures for configuration and pipeline records.
package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNgramLength = 3
	DefaultModel       = "sentence-transformers/distiluse-base-multilingual-cased-v1"
	DefaultWorkerCount = 4
	DefaultShardCount  = 16
	DefaultLedgerPath  = "keyphrase.db"
)

// JobConfig holds runtime configuration for a keyphrase counting run.
// Values come from an optional YAML file and are then overridden by CLI flags.
type JobConfig struct {
	Manifest     string   `yaml:"manifest"`
	Output       string   `yaml:"output"`
	URLPatterns  []string `yaml:"url_patterns"`
	NgramLength  int      `yaml:"ngram_length"`
	Model        string   `yaml:"model"`
	EmbeddingURL string   `yaml:"embedding_url"`
	EmbeddingRPS float64  `yaml:"embedding_rps"`

	StopwordLang string `yaml:"stopword_lang"`
	StopwordDir  string `yaml:"stopword_dir"`

	WorkerCount int    `yaml:"workers"`
	ShardCount  int    `yaml:"shards"`
	ScratchDir  string `yaml:"scratch_dir"`
	VoteStore   string `yaml:"vote_store"` // empty keeps votes in memory, otherwise a bbolt file path

	LedgerPath  string `yaml:"ledger"`
	MetricsFile string `yaml:"metrics_file"`
	SummaryFile string `yaml:"summary_file"`

	SegmentTimeout   time.Duration `yaml:"segment_timeout"`
	ModelTimeout     time.Duration `yaml:"model_timeout"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`
}

// DefaultConfig returns a JobConfig with every optional field set.
func DefaultConfig() *JobConfig {
	return &JobConfig{
		NgramLength:      DefaultNgramLength,
		Model:            DefaultModel,
		WorkerCount:      DefaultWorkerCount,
		ShardCount:       DefaultShardCount,
		ScratchDir:       filepath.Join(os.TempDir(), "keyphrase-segments"),
		LedgerPath:       DefaultLedgerPath,
		SegmentTimeout:   10 * time.Minute,
		ModelTimeout:     2 * time.Minute,
		InferenceTimeout: time.Minute,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (*JobConfig, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// SplitPatterns splits a ';'-separated pattern list, dropping empty entries.
func SplitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ";") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// Validate checks the fields a run cannot start without.
func (c *JobConfig) Validate() error {
	switch {
	case c.Manifest == "":
		return fmt.Errorf("%w: manifest location is required", ErrInvalidConfig)
	case c.Output == "":
		return fmt.Errorf("%w: output location is required", ErrInvalidConfig)
	case c.NgramLength <= 0:
		return fmt.Errorf("%w: ngram length must be positive, got %d", ErrInvalidConfig, c.NgramLength)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.ShardCount <= 0:
		return fmt.Errorf("%w: shard count must be positive, got %d", ErrInvalidConfig, c.ShardCount)
	case c.Model == "":
		return fmt.Errorf("%w: model identifier is required", ErrInvalidConfig)
	}
	return nil
}
