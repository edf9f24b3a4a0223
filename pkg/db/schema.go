package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per keyphrase counting job
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_uuid TEXT NOT NULL UNIQUE,
    manifest TEXT NOT NULL,
    output TEXT NOT NULL,
    config TEXT,                          -- YAML snapshot of the effective configuration
    status TEXT NOT NULL DEFAULT 'running', -- running, succeeded, failed
    segment_count INTEGER DEFAULT 0,
    ok_count INTEGER DEFAULT 0,
    skipped_count INTEGER DEFAULT 0,
    record_count INTEGER DEFAULT 0,
    observation_count INTEGER DEFAULT 0,
    phrase_count INTEGER DEFAULT 0,
    error_message TEXT,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

-- Segments: the outcome of every archive segment of a run
CREATE TABLE IF NOT EXISTS segments (
    segment_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    location TEXT NOT NULL,
    status TEXT NOT NULL,                 -- ok, skipped
    reason TEXT,
    error_message TEXT,
    record_count INTEGER DEFAULT 0,
    observation_count INTEGER DEFAULT 0,
    bytes_downloaded INTEGER DEFAULT 0,
    processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_segments_run ON segments(run_id);
CREATE INDEX IF NOT EXISTS idx_segments_status ON segments(status);

-- Record skips: per segment counts of records dropped before phrase extraction
CREATE TABLE IF NOT EXISTS segment_skips (
    segment_id INTEGER NOT NULL,
    reason TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (segment_id, reason),
    FOREIGN KEY (segment_id) REFERENCES segments(segment_id) ON DELETE CASCADE
);
`
