package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const decisionSchema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	stage       TEXT NOT NULL,
	action      TEXT NOT NULL,
	reasoning   TEXT,
	confidence  REAL NOT NULL,
	score       REAL NOT NULL,
	retry_count INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_run ON decision_log(run_id);
`

// EnsureSchema creates the decision_log table if missing.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(decisionSchema); err != nil {
		return fmt.Errorf("create decision_log schema: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-decision
// LogDecision writes one decision entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (run_id, stage, action, reasoning, confidence, score, retry_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Stage,
		entry.Action,
		nullIfEmpty(entry.Reasoning),
		entry.Confidence,
		entry.Score,
		entry.RetryCount,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region list
// ListByRun returns a run's decisions in insertion order.
func ListByRun(db *sql.DB, runID string) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, stage, action, reasoning, confidence, score, retry_count, created_at
		 FROM decision_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var reasoning sql.NullString
		var created string
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Action, &reasoning, &e.Confidence, &e.Score, &e.RetryCount, &created); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		if reasoning.Valid {
			e.Reasoning = reasoning.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
