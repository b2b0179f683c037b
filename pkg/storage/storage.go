package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS intent_values (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS search_passes (
  id            INTEGER PRIMARY KEY,
  occurred_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  test_id       TEXT NOT NULL,
  start_date    TEXT,
  end_date      TEXT,
  outcome       TEXT NOT NULL CHECK (outcome IN ('idle','inactive','exhausted','found','cancelled')),
  dates_checked INTEGER NOT NULL DEFAULT 0,
  slots_seen    INTEGER NOT NULL DEFAULT 0,
  fetch_errors  INTEGER NOT NULL DEFAULT 0,
  match_link    TEXT
);
CREATE INDEX IF NOT EXISTS idx_passes_time ON search_passes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_passes_test ON search_passes(test_id, occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get returns the stored values for keys. Keys that were never written are
// absent from the result.
func (d *DB) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]interface{}, len(keys))
	placeholders := make([]byte, 0, len(keys)*2)
	for i, k := range keys {
		args[i] = k
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT key, value FROM intent_values WHERE key IN ("+string(placeholders)+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Set upserts values. Each call runs in one transaction, but readers must not
// rely on that.
func (d *DB) Set(ctx context.Context, values map[string]string) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for k, v := range values {
		_, err = tx.ExecContext(ctx, `INSERT INTO intent_values(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, k, v)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LogPass appends a pass to the history.
func (d *DB) LogPass(ctx context.Context, p PassRecord) error {
	occurredAt := p.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO search_passes(occurred_at, test_id, start_date, end_date, outcome, dates_checked, slots_seen, fetch_errors, match_link) VALUES(?,?,?,?,?,?,?,?,?)`,
		occurredAt.UTC().Format(timestampLayout), p.TestID, nullIfEmpty(p.StartDate), nullIfEmpty(p.EndDate), p.Outcome, p.DatesChecked, p.SlotsSeen, p.FetchErrors, nullIfEmpty(p.MatchLink))
	return err
}

// ListRecentPasses returns the most recent N passes, newest first.
func (d *DB) ListRecentPasses(ctx context.Context, limit int) ([]PassRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, test_id, start_date, end_date, outcome, dates_checked, slots_seen, fetch_errors, match_link FROM search_passes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passes := []PassRecord{}
	for rows.Next() {
		var p PassRecord
		var occurredAtStr string
		var startDate, endDate, link sql.NullString
		if err := rows.Scan(&occurredAtStr, &p.TestID, &startDate, &endDate, &p.Outcome, &p.DatesChecked, &p.SlotsSeen, &p.FetchErrors, &link); err != nil {
			return nil, err
		}
		p.OccurredAt = parseTimestamp(occurredAtStr)
		p.StartDate = startDate.String
		p.EndDate = endDate.String
		p.MatchLink = link.String
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return passes, nil
}

func (d *DB) GetStats(ctx context.Context) ([]PassStats, error) {
	query := `
		SELECT
			test_id,
			COUNT(*),
			SUM(CASE WHEN outcome = 'found' THEN 1 ELSE 0 END),
			SUM(fetch_errors),
			MAX(occurred_at)
		FROM
			search_passes
		GROUP BY
			test_id
		ORDER BY
			test_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PassStats
	for rows.Next() {
		var s PassStats
		var last string
		if err := rows.Scan(&s.TestID, &s.Passes, &s.Found, &s.Errors, &last); err != nil {
			return nil, err
		}
		s.LastPass = parseTimestamp(last)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
