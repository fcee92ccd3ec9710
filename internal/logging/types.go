package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table. One row is written
// per gate decision so a run's reasoning can be audited after the fact.
type DecisionEntry struct {
	RunID      string
	Stage      string
	Action     string // "proceed" | "retry" | "enhance" | "abort"
	Reasoning  string
	Confidence float64
	Score      float64
	RetryCount int
	CreatedAt  time.Time
}

// #endregion decision-entry
