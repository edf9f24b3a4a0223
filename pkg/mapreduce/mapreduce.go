// Package mapreduce counts, for every keyphrase, the number of distinct hosts that
// voted for it. Partial results merge by set union, so the final counts do not
// depend on how observations were partitioned or in which order they were merged.
package mapreduce

import (
	"sort"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// Partial is a vote set: for each phrase, the hostnames that chose it.
type Partial map[string]map[string]struct{}

// Add records one observation. Sentinels and empty phrases are ignored, and a
// repeated (hostname, phrase) pair is stored once. Add reports whether the vote was new.
func (p Partial) Add(obs models.KeywordObservation) bool {
	if obs.IsSentinel() || obs.Phrase == "" {
		return false
	}
	hosts, ok := p[obs.Phrase]
	if !ok {
		hosts = make(map[string]struct{})
		p[obs.Phrase] = hosts
	}
	if _, dup := hosts[obs.Hostname]; dup {
		return false
	}
	hosts[obs.Hostname] = struct{}{}
	return true
}

// Map builds the vote set of a batch of observations.
func Map(observations []models.KeywordObservation) Partial {
	p := make(Partial)
	for _, obs := range observations {
		p.Add(obs)
	}
	return p
}

// Merge unions src into dst and returns dst. A nil dst is allocated.
func Merge(dst, src Partial) Partial {
	if dst == nil {
		dst = make(Partial, len(src))
	}
	for phrase, hosts := range src {
		for host := range hosts {
			dst.Add(models.KeywordObservation{Hostname: host, Phrase: phrase})
		}
	}
	return dst
}

// Counts projects the vote set to one (phrase, count) pair per phrase.
func (p Partial) Counts() []models.AggregateCount {
	counts := make([]models.AggregateCount, 0, len(p))
	for phrase, hosts := range p {
		if len(hosts) == 0 {
			continue
		}
		counts = append(counts, models.AggregateCount{Phrase: phrase, Count: len(hosts)})
	}
	SortCounts(counts)
	return counts
}

// Reduce merges partials and returns the final counts.
func Reduce(partials ...Partial) []models.AggregateCount {
	var all Partial
	for _, p := range partials {
		all = Merge(all, p)
	}
	return all.Counts()
}

// SortCounts orders counts by count descending, then phrase ascending.
func SortCounts(counts []models.AggregateCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Phrase < counts[j].Phrase
	})
}
