package models

// ArchiveRecord is one HTML response pulled out of an archive segment.
type ArchiveRecord struct {
	Hostname    string
	HTML        string
	ContentType string
	URL         string
}

// ExtractedText is the plain main-content text of a record. Text is empty when extraction failed.
type ExtractedText struct {
	Hostname string
	Text     string
}

// KeywordObservation is one host's vote for a phrase.
// The zero value is the sentinel for "not evaluated" and never reaches output.
type KeywordObservation struct {
	Hostname string
	Phrase   string
}

// SentinelObservation marks a record that was not evaluated.
var SentinelObservation = KeywordObservation{}

// IsSentinel reports whether o is the not-evaluated placeholder.
func (o KeywordObservation) IsSentinel() bool {
	return o.Hostname == "" && o.Phrase == ""
}

// AggregateCount is the number of distinct hostnames that voted for Phrase.
type AggregateCount struct {
	Phrase string `yaml:"phrase"`
	Count  int    `yaml:"count"`
}
