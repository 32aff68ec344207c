package store

// schemaVersion1 is the current schema.
const schemaVersion1 = 1

var schema1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	kind         TEXT NOT NULL,
	dataset_path TEXT,
	model_path   TEXT,
	args         TEXT NOT NULL,
	status       TEXT NOT NULL,
	error        TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
