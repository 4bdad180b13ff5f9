// Package usage persists rule usage events in SQLite so usage counts
// and success rates survive server restarts.
//
// The journal is append-only and strictly optional: when it cannot be
// opened the server logs a warning and runs with in-memory stats only.
package usage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rulehub/internal/corpus"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Totals is the aggregated usage for one rule.
type Totals struct {
	RuleID      string  `json:"rule_id"`
	Uses        int     `json:"uses"`
	SuccessRate float64 `json:"success_rate"`
}

// Journal is the append-only usage event log backed by SQLite.
type Journal struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens SQLite with WAL
// mode, and runs migrations.
func Open(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("usage: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "usage.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("usage: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("usage: pragma %q: %w", p, err)
		}
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("usage: migration: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS usage_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_id    TEXT    NOT NULL,
			success    INTEGER NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_usage_rule    ON usage_events(rule_id);
		CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_events(created_at DESC);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one usage event.
func (j *Journal) Record(ruleID string, success bool) error {
	flag := 0
	if success {
		flag = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO usage_events (rule_id, success) VALUES (?, ?)`,
		ruleID, flag,
	)
	if err != nil {
		return fmt.Errorf("usage: record %s: %w", ruleID, err)
	}
	return nil
}

// RuleTotals returns the aggregated usage for one rule. A rule with no
// events reports zero uses.
func (j *Journal) RuleTotals(ruleID string) (Totals, error) {
	t := Totals{RuleID: ruleID}
	err := j.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(success), 0) FROM usage_events WHERE rule_id = ?`,
		ruleID,
	).Scan(&t.Uses, &t.SuccessRate)
	if err != nil {
		return Totals{}, fmt.Errorf("usage: totals %s: %w", ruleID, err)
	}
	return t, nil
}

// AllTotals returns aggregated usage for every rule with events.
func (j *Journal) AllTotals() ([]Totals, error) {
	rows, err := j.db.Query(
		`SELECT rule_id, COUNT(*), AVG(success)
		 FROM usage_events
		 GROUP BY rule_id
		 ORDER BY rule_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("usage: all totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Totals
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.RuleID, &t.Uses, &t.SuccessRate); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Hydrate applies persisted totals onto a freshly loaded corpus.
// Events for rules no longer in the corpus are skipped; the journal
// keeps them in case the rule comes back in a later import.
func (j *Journal) Hydrate(store *corpus.Store) (int, error) {
	totals, err := j.AllTotals()
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, t := range totals {
		if err := store.SetUsage(t.RuleID, t.Uses, t.SuccessRate); err != nil {
			continue
		}
		applied++
	}
	return applied, nil
}
