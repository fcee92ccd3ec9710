package orchestrator

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func tempHistory(t *testing.T) *AttemptHistory {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h, err := NewAttemptHistory(db)
	if err != nil {
		t.Fatalf("NewAttemptHistory: %v", err)
	}
	return h
}

func TestRecordAndListByRequest(t *testing.T) {
	h := tempHistory(t)
	now := time.Now().UTC()

	attempts := []RetryAttempt{
		{AttemptNumber: 1, OriginalRequest: "orig", TransformedRequest: "orig", Strategy: StrategyMinorAdjustment, FailureType: FailureSafetyBlock, ErrorMessage: "blocked", CreatedAt: now},
		{AttemptNumber: 2, OriginalRequest: "orig", TransformedRequest: "softer", Strategy: StrategyModerateChange, Success: true, CreatedAt: now.Add(time.Second)},
	}
	for _, att := range attempts {
		if err := h.Record("run-1", "req-1", att); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := h.ListByRequest("req-1")
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got))
	}
	if got[0].AttemptNumber != 1 || got[0].FailureType != FailureSafetyBlock {
		t.Fatalf("first attempt mismatch: %+v", got[0])
	}
	if got[0].Success {
		t.Fatal("first attempt should be a failure")
	}
	if !got[1].Success || got[1].Strategy != StrategyModerateChange {
		t.Fatalf("second attempt mismatch: %+v", got[1])
	}
	if got[1].TransformedRequest != "softer" {
		t.Fatalf("transformed request lost: %q", got[1].TransformedRequest)
	}
	if !got[0].CreatedAt.Equal(now) {
		t.Fatalf("timestamp mismatch: %v vs %v", got[0].CreatedAt, now)
	}
}

func TestListByRun(t *testing.T) {
	h := tempHistory(t)

	now := time.Now().UTC()
	h.Record("run-1", "req-a", RetryAttempt{AttemptNumber: 1, Strategy: StrategyMinorAdjustment, CreatedAt: now})
	h.Record("run-1", "req-b", RetryAttempt{AttemptNumber: 1, Strategy: StrategyMinorAdjustment, Success: true, CreatedAt: now})
	h.Record("run-2", "req-c", RetryAttempt{AttemptNumber: 1, Strategy: StrategyMinorAdjustment, CreatedAt: now})

	got, err := h.ListByRun("run-1")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attempts for run-1, got %d", len(got))
	}
	if got[0].RequestID != "req-a" || got[1].RequestID != "req-b" {
		t.Fatalf("unexpected order: %s, %s", got[0].RequestID, got[1].RequestID)
	}

	empty, err := h.ListByRun("run-missing")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no attempts, got %d", len(empty))
	}
}
