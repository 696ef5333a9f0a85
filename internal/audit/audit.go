// Package audit persists a durable record of every nudge herd sends, to a
// local sqlite database, so a user can review what herd did to a pane after
// the fact even once the in-memory herd registry has moved on.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded nudge.
type Entry struct {
	ID          int64
	PaneID      string
	SessionName string
	HerdID      *uint8
	Command     string
	RuleID      string
	SentAtUnix  int64
}

// Log wraps a sqlite-backed audit trail of nudges sent to herded panes.
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening audit log %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed initializing audit log schema: %w", err)
	}
	return &Log{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS nudges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pane_id TEXT NOT NULL,
	session_name TEXT NOT NULL,
	herd_id INTEGER,
	command TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	sent_at_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nudges_pane_id ON nudges(pane_id);
`

// RecordNudge appends one nudge record.
func (l *Log) RecordNudge(entry Entry) error {
	_, err := l.db.Exec(
		`INSERT INTO nudges (pane_id, session_name, herd_id, command, rule_id, sent_at_unix) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.PaneID, entry.SessionName, herdIDValue(entry.HerdID), entry.Command, entry.RuleID, entry.SentAtUnix,
	)
	if err != nil {
		return fmt.Errorf("failed recording nudge for %s: %w", entry.PaneID, err)
	}
	return nil
}

// RecentForPane returns the most recent limit nudges for paneID, newest
// first.
func (l *Log) RecentForPane(paneID string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, pane_id, session_name, herd_id, command, rule_id, sent_at_unix FROM nudges WHERE pane_id = ? ORDER BY sent_at_unix DESC LIMIT ?`,
		paneID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed querying audit log for %s: %w", paneID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var herdID sql.NullInt64
		if err := rows.Scan(&entry.ID, &entry.PaneID, &entry.SessionName, &herdID, &entry.Command, &entry.RuleID, &entry.SentAtUnix); err != nil {
			return nil, fmt.Errorf("failed scanning audit log row: %w", err)
		}
		if herdID.Valid {
			v := uint8(herdID.Int64)
			entry.HerdID = &v
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// PruneOlderThan deletes nudges recorded before cutoff.
func (l *Log) PruneOlderThan(cutoff time.Time) error {
	_, err := l.db.Exec(`DELETE FROM nudges WHERE sent_at_unix < ?`, cutoff.Unix())
	if err != nil {
		return fmt.Errorf("failed pruning audit log: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

func herdIDValue(herdID *uint8) any {
	if herdID == nil {
		return nil
	}
	return int64(*herdID)
}
