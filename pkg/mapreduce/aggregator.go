package mapreduce

import (
	"sync"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

type shard struct {
	mu    sync.Mutex
	votes Partial
}

// Aggregator is a vote set split into shards by phrase. Add is safe for concurrent
// use; observations for different shards never contend.
type Aggregator struct {
	shards []*shard
}

// NewAggregator creates an aggregator with n shards (at least one).
func NewAggregator(n int) *Aggregator {
	if n < 1 {
		n = 1
	}
	a := &Aggregator{shards: make([]*shard, n)}
	for i := range a.shards {
		a.shards[i] = &shard{votes: make(Partial)}
	}
	return a
}

// Add records one observation and reports whether it was a new vote.
func (a *Aggregator) Add(obs models.KeywordObservation) bool {
	if obs.IsSentinel() || obs.Phrase == "" {
		return false
	}
	s := a.shards[PartitionKey(obs.Phrase, len(a.shards))]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes.Add(obs)
}

// AddPartial merges a whole vote set.
func (a *Aggregator) AddPartial(p Partial) {
	for phrase, hosts := range p {
		for host := range hosts {
			a.Add(models.KeywordObservation{Hostname: host, Phrase: phrase})
		}
	}
}

// Counts returns the final counts across all shards. A phrase lives in exactly one
// shard, so the per-shard counts are final.
func (a *Aggregator) Counts() []models.AggregateCount {
	var counts []models.AggregateCount
	for _, s := range a.shards {
		s.mu.Lock()
		for phrase, hosts := range s.votes {
			counts = append(counts, models.AggregateCount{Phrase: phrase, Count: len(hosts)})
		}
		s.mu.Unlock()
	}
	SortCounts(counts)
	return counts
}
