package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rafaelsntn/keywords-common-crawl/models"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run represents a keyphrase counting run
type Run struct {
	RunID            int64
	RunUUID          string
	Manifest         string
	Output           string
	Config           string
	Status           string
	SegmentCount     int
	OKCount          int
	SkippedCount     int
	RecordCount      int
	ObservationCount int
	PhraseCount      int
	ErrorMessage     string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Segment is the ledger row of one processed segment.
type Segment struct {
	SegmentID        int64
	Location         string
	Status           string
	Reason           string
	ErrorMessage     string
	RecordCount      int
	ObservationCount int
	BytesDownloaded  int64
	ProcessedAt      time.Time
}

// RunTotals are the final counters of a run.
type RunTotals struct {
	Segments     int
	OK           int
	Skipped      int
	Records      int
	Observations int
	Phrases      int
}

// CreateRun inserts a run in the running state and returns its run_id.
func (db *DB) CreateRun(runUUID, manifest, output, config string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (run_uuid, manifest, output, config, status)
		VALUES (?, ?, ?, ?, ?)
	`, runUUID, manifest, output, config, RunRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// RecordSegment stores the outcome of one segment and its record skip counts.
func (db *DB) RecordSegment(runID int64, res models.SegmentResult) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var errMsg any
	if res.Outcome.Err != nil {
		errMsg = res.Outcome.Err.Error()
	}

	result, err := tx.Exec(`
		INSERT INTO segments (run_id, location, status, reason, error_message, record_count, observation_count, bytes_downloaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, res.Location, res.Outcome.Status, res.Outcome.Reason, errMsg, res.Records, res.Observations, res.Bytes)
	if err != nil {
		return fmt.Errorf("failed to insert segment: %w", err)
	}

	segmentID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get segment ID: %w", err)
	}

	for reason, count := range res.Skipped {
		if count == 0 {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO segment_skips (segment_id, reason, count) VALUES (?, ?, ?)
		`, segmentID, reason, count); err != nil {
			return fmt.Errorf("failed to insert segment skip: %w", err)
		}
	}

	return tx.Commit()
}

// FinishRun sets the final status and totals of a run. runErr is stored as the
// error message when not nil.
func (db *DB) FinishRun(runID int64, status string, totals RunTotals, runErr error) error {
	var errMsg any
	if runErr != nil {
		errMsg = runErr.Error()
	}

	result, err := db.Exec(`
		UPDATE runs
		SET status = ?, segment_count = ?, ok_count = ?, skipped_count = ?,
		    record_count = ?, observation_count = ?, phrase_count = ?,
		    error_message = ?, finished_at = ?
		WHERE run_id = ?
	`, status, totals.Segments, totals.OK, totals.Skipped, totals.Records, totals.Observations, totals.Phrases,
		errMsg, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: run %d", models.ErrNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, run_uuid, manifest, output, COALESCE(config, ''), status,
	segment_count, ok_count, skipped_count, record_count, observation_count, phrase_count,
	COALESCE(error_message, ''), started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	err := row.Scan(
		&run.RunID,
		&run.RunUUID,
		&run.Manifest,
		&run.Output,
		&run.Config,
		&run.Status,
		&run.SegmentCount,
		&run.OKCount,
		&run.SkippedCount,
		&run.RecordCount,
		&run.ObservationCount,
		&run.PhraseCount,
		&run.ErrorMessage,
		&run.StartedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs ORDER BY run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun looks a run up by numeric run_id or by run UUID.
func (db *DB) GetRun(ref string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_uuid = ?`
	var arg any = ref
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		query = `SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`
		arg = id
	}

	run, err := scanRun(db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", models.ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetRunSegments returns the segments of a run in processing order.
func (db *DB) GetRunSegments(runID int64) ([]Segment, error) {
	rows, err := db.Query(`
		SELECT segment_id, location, status, COALESCE(reason, ''), COALESCE(error_message, ''),
		       record_count, observation_count, bytes_downloaded, processed_at
		FROM segments
		WHERE run_id = ?
		ORDER BY segment_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var s Segment
		if err := rows.Scan(&s.SegmentID, &s.Location, &s.Status, &s.Reason, &s.ErrorMessage,
			&s.RecordCount, &s.ObservationCount, &s.BytesDownloaded, &s.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// GetRunSkipReasons sums record skip counts over all segments of a run.
func (db *DB) GetRunSkipReasons(runID int64) (map[string]int, error) {
	rows, err := db.Query(`
		SELECT ss.reason, SUM(ss.count)
		FROM segment_skips ss
		JOIN segments s ON s.segment_id = ss.segment_id
		WHERE s.run_id = ?
		GROUP BY ss.reason
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get skip reasons: %w", err)
	}
	defer rows.Close()

	reasons := make(map[string]int)
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan skip reason: %w", err)
		}
		reasons[reason] = count
	}
	return reasons, rows.Err()
}
