package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	liveTable    = "postings"
	stagingTable = "postings_staging"
)

// postingColumns is the column order used by every insert and select.
const postingColumns = `id, title, description, labels, agency_short, agency_long,
	duty_station, duty_country, duty_continent, grade, posting_date, apply_until,
	archived, url, primary_category, secondary_categories, classification_confidence,
	classification_reasoning, classification_flags, seniority_level, location_type,
	status, is_active, is_expired, days_remaining, urgency, application_window_days,
	processed_at`

const postingTableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
	id                        INTEGER PRIMARY KEY,
	title                     TEXT NOT NULL DEFAULT '',
	description               TEXT NOT NULL DEFAULT '',
	labels                    TEXT NOT NULL DEFAULT '[]',
	agency_short              TEXT NOT NULL DEFAULT '',
	agency_long               TEXT NOT NULL DEFAULT '',
	duty_station              TEXT NOT NULL DEFAULT '',
	duty_country              TEXT NOT NULL DEFAULT '',
	duty_continent            TEXT NOT NULL DEFAULT '',
	grade                     TEXT NOT NULL DEFAULT '',
	posting_date              TEXT,
	apply_until               TEXT,
	archived                  INTEGER NOT NULL DEFAULT 0,
	url                       TEXT NOT NULL DEFAULT '',
	primary_category          TEXT NOT NULL,
	secondary_categories      TEXT NOT NULL DEFAULT '[]',
	classification_confidence INTEGER NOT NULL DEFAULT 0,
	classification_reasoning  TEXT NOT NULL DEFAULT '[]',
	classification_flags      TEXT NOT NULL DEFAULT '{}',
	seniority_level           TEXT NOT NULL DEFAULT '',
	location_type             TEXT NOT NULL DEFAULT '',
	status                    TEXT NOT NULL DEFAULT '',
	is_active                 INTEGER NOT NULL DEFAULT 0,
	is_expired                INTEGER NOT NULL DEFAULT 0,
	days_remaining            INTEGER NOT NULL DEFAULT 0,
	urgency                   TEXT NOT NULL DEFAULT '',
	application_window_days   INTEGER NOT NULL DEFAULT 0,
	processed_at              TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_url ON %[1]s(url) WHERE url <> '';`

// Access paths used by the query layer. Only the live table needs them.
const postingIndexesDDL = `
CREATE INDEX IF NOT EXISTS idx_postings_agency ON postings(agency_short);
CREATE INDEX IF NOT EXISTS idx_postings_category ON postings(primary_category);
CREATE INDEX IF NOT EXISTS idx_postings_status ON postings(status);
CREATE INDEX IF NOT EXISTS idx_postings_posting_date ON postings(posting_date);
CREATE INDEX IF NOT EXISTS idx_postings_country ON postings(duty_country);
CREATE INDEX IF NOT EXISTS idx_postings_grade ON postings(grade);`

const supportDDL = `
CREATE TABLE IF NOT EXISTS sync_metadata (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	status       TEXT NOT NULL,
	run_id       TEXT NOT NULL DEFAULT '',
	started_at   TEXT,
	last_sync_at TEXT,
	total_jobs   INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	last_error   TEXT NOT NULL DEFAULT ''
);
INSERT OR IGNORE INTO sync_metadata (id, status) VALUES (1, 'never_synced');

CREATE TABLE IF NOT EXISTS analytics_cache (
	cache_key  TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_cache_expires ON analytics_cache(expires_at);

CREATE TABLE IF NOT EXISTS sync_lease (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	holder     TEXT NOT NULL DEFAULT '',
	expires_at INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO sync_lease (id) VALUES (1);`

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(postingTableDDL, liveTable),
		fmt.Sprintf(postingTableDDL, stagingTable),
		postingIndexesDDL,
		supportDDL,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating cache schema: %w", err)
		}
	}
	return nil
}
