package mapreduce

import (
	"fmt"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// TopKeywords returns the first n counts as formatted strings.
// Each string is formatted as "phrase:count" (e.g., "climate change policy:12").
// counts must already be sorted, as returned by Reduce or Aggregator.Counts.
func TopKeywords(counts []models.AggregateCount, n int) []string {
	limit := min(max(n, 0), len(counts))

	keywords := make([]string, limit)
	for i := 0; i < limit; i++ {
		keywords[i] = fmt.Sprintf("%s:%d", counts[i].Phrase, counts[i].Count)
	}
	return keywords
}
