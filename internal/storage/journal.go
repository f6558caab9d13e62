package storage

import (
	"fmt"
	"time"
)

// timeLayout is fixed-width so recorded_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one served request
type Entry struct {
	ID         string        `json:"id"`
	Remote     string        `json:"remote"`
	Method     string        `json:"method"`
	Target     string        `json:"target"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"durationNs"`
	RecordedAt time.Time     `json:"recordedAt"`
}

// Summary aggregates journal entries sharing method, target and status
type Summary struct {
	Method      string    `json:"method"`
	Target      string    `json:"target"`
	Status      int       `json:"status"`
	Count       int64     `json:"count"`
	AvgDuration float64   `json:"avgDurationMs"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Record appends an entry. A zero RecordedAt is set to now.
func (db *DB) Record(e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO requests (id, remote, method, target, status, duration_us, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Remote, e.Method, e.Target, e.Status, e.Duration.Microseconds(),
		e.RecordedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record request %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. limit <= 0 means no limit.
func (db *DB) Recent(limit int) ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT id, remote, method, target, status, duration_us, recorded_at
		FROM requests
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationUs int64
		var recordedAt string
		if err := rows.Scan(&e.ID, &e.Remote, &e.Method, &e.Target, &e.Status, &durationUs, &recordedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationUs) * time.Microsecond
		if e.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("request %s: parse recorded_at %q: %w", e.ID, recordedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summarize groups entries by method, target and status, busiest first.
// limit <= 0 means no limit.
func (db *DB) Summarize(limit int) ([]Summary, error) {
	rows, err := db.conn.Query(`
		SELECT
			method,
			target,
			status,
			COUNT(*) as request_count,
			AVG(duration_us) as avg_us,
			MAX(recorded_at) as last_seen
		FROM requests
		GROUP BY method, target, status
		ORDER BY request_count DESC, method, target, status
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var avgUs float64
		var lastSeen string
		if err := rows.Scan(&s.Method, &s.Target, &s.Status, &s.Count, &avgUs, &lastSeen); err != nil {
			return nil, err
		}
		s.AvgDuration = avgUs / 1000
		if s.LastSeen, err = time.Parse(timeLayout, lastSeen); err != nil {
			return nil, fmt.Errorf("summary %s %s: parse recorded_at %q: %w", s.Method, s.Target, lastSeen, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of journal entries
func (db *DB) Count() (int64, error) {
	var n int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM requests").Scan(&n)
	return n, err
}

// sqlLimit maps a non-positive limit to SQLite's "no limit"
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
