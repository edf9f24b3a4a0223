package models

// Status values for an Outcome.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

// Skip reasons recorded for segments and records.
const (
	ReasonDownload     = "download_error"
	ReasonRead         = "read_error"
	ReasonEmptyText    = "empty_text"
	ReasonShortText    = "short_text"
	ReasonNoCandidates = "no_candidates"
	ReasonModel        = "model_error"
	ReasonCanceled     = "canceled"
)

// Outcome is the explicit result of processing a segment or a record.
// Failures below the sink are absorbed into Skipped outcomes instead of errors.
type Outcome struct {
	Status string
	Reason string
	Err    error
}

// OK returns a successful outcome.
func OK() Outcome {
	return Outcome{Status: StatusOK}
}

// Skipped returns an outcome for work that was dropped with the given reason.
func Skipped(reason string, err error) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason, Err: err}
}

// IsOK reports whether the work succeeded.
func (o Outcome) IsOK() bool {
	return o.Status == StatusOK
}

// SegmentResult summarizes one processed archive segment.
type SegmentResult struct {
	Location     string
	Outcome      Outcome
	Records      int            // HTML records emitted by the archive reader
	Observations int            // non-sentinel observations kept
	Skipped      map[string]int // record skip counts by reason
	Bytes        int64          // downloaded size, 0 when served from scratch
}
