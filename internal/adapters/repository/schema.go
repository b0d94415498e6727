package repository

// Score columns are nullable and camelCase-quoted so rows written by other
// clients of the hosted table stay readable.
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS leaderboard (
    id UUID PRIMARY KEY,
    team TEXT,
    model TEXT,
    "fullContext" DOUBLE PRECISION,
    "goldEvidence" DOUBLE PRECISION,
    "date" DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_full_context ON leaderboard("fullContext" DESC);
`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS leaderboard (
    id TEXT PRIMARY KEY,
    team TEXT,
    model TEXT,
    "fullContext" REAL,
    "goldEvidence" REAL,
    "date" TEXT,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_full_context ON leaderboard("fullContext" DESC);
`

const dateLayout = "2006-01-02"
