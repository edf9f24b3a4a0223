// Package votestore holds the (phrase, hostname) votes of a run until they are
// reduced to counts. Votes live in memory by default or in a bbolt file when the
// vote set is too large for RAM.
package votestore

import (
	"github.com/rafaelsntn/keywords-common-crawl/models"
	"github.com/rafaelsntn/keywords-common-crawl/pkg/mapreduce"
)

// Store accumulates votes. Implementations are safe for concurrent use and
// deduplicate (hostname, phrase) pairs; sentinels are ignored.
type Store interface {
	// Add commits the observations of one segment together.
	Add(observations []models.KeywordObservation) error
	// Counts returns one entry per phrase, sorted by count then phrase.
	Counts() ([]models.AggregateCount, error)
	Close() error
}

// Open returns a bbolt store at path, or an in-memory store with the given
// number of shards when path is empty.
func Open(path string, shards int) (Store, error) {
	if path == "" {
		return NewMemory(shards), nil
	}
	return OpenBolt(path, shards)
}

// Memory keeps votes in a sharded in-memory aggregator.
type Memory struct {
	agg *mapreduce.Aggregator
}

// NewMemory creates an in-memory store.
func NewMemory(shards int) *Memory {
	return &Memory{agg: mapreduce.NewAggregator(shards)}
}

func (m *Memory) Add(observations []models.KeywordObservation) error {
	m.agg.AddPartial(mapreduce.Map(observations))
	return nil
}

func (m *Memory) Counts() ([]models.AggregateCount, error) {
	return m.agg.Counts(), nil
}

func (m *Memory) Close() error { return nil }
