package orchestrator

// #region imports
import (
	"database/sql"
	"fmt"
	"time"
)

// #endregion

// #region schema

const attemptSchema = `
CREATE TABLE IF NOT EXISTS retry_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	request_id TEXT NOT NULL,
	attempt_num INTEGER NOT NULL,
	original_request TEXT NOT NULL,
	transformed_request TEXT NOT NULL,
	strategy TEXT NOT NULL,
	failure_type TEXT NOT NULL,
	error_message TEXT NOT NULL,
	success INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retry_attempts_request ON retry_attempts(request_id, attempt_num);
CREATE INDEX IF NOT EXISTS idx_retry_attempts_run ON retry_attempts(run_id);
`

// #endregion schema

// #region history

// AttemptHistory persists every generation attempt for post-run inspection.
// Append-only; rows are never updated or deleted.
type AttemptHistory struct {
	db *sql.DB
}

// NewAttemptHistory binds the history to an open database and ensures its
// schema exists.
func NewAttemptHistory(db *sql.DB) (*AttemptHistory, error) {
	if _, err := db.Exec(attemptSchema); err != nil {
		return nil, fmt.Errorf("create retry_attempts schema: %w", err)
	}
	return &AttemptHistory{db: db}, nil
}

// StoredAttempt is one persisted attempt row.
type StoredAttempt struct {
	RequestID string
	RetryAttempt
}

// Record appends one attempt row.
func (h *AttemptHistory) Record(runID, requestID string, att RetryAttempt) error {
	success := 0
	if att.Success {
		success = 1
	}
	_, err := h.db.Exec(
		`INSERT INTO retry_attempts
			(run_id, request_id, attempt_num, original_request, transformed_request,
			 strategy, failure_type, error_message, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, requestID, att.AttemptNumber, att.OriginalRequest, att.TransformedRequest,
		att.Strategy.String(), string(att.FailureType), att.ErrorMessage, success,
		att.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record attempt %d for %s: %w", att.AttemptNumber, requestID, err)
	}
	return nil
}

// ListByRequest returns the attempts for one request in attempt order.
func (h *AttemptHistory) ListByRequest(requestID string) ([]StoredAttempt, error) {
	rows, err := h.db.Query(
		`SELECT request_id, attempt_num, original_request, transformed_request,
			strategy, failure_type, error_message, success, created_at
		 FROM retry_attempts WHERE request_id = ? ORDER BY attempt_num`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts for %s: %w", requestID, err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListByRun returns all attempts made during one run in insertion order.
func (h *AttemptHistory) ListByRun(runID string) ([]StoredAttempt, error) {
	rows, err := h.db.Query(
		`SELECT request_id, attempt_num, original_request, transformed_request,
			strategy, failure_type, error_message, success, created_at
		 FROM retry_attempts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts for run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]StoredAttempt, error) {
	var out []StoredAttempt
	for rows.Next() {
		var a StoredAttempt
		var strategy, failure, created string
		var success int
		if err := rows.Scan(
			&a.RequestID, &a.AttemptNumber, &a.OriginalRequest, &a.TransformedRequest,
			&strategy, &failure, &a.ErrorMessage, &success, &created,
		); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		a.Strategy = strategyFromString(strategy)
		a.FailureType = FailureType(failure)
		a.Success = success == 1
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.CreatedAt = ts
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// #endregion history
