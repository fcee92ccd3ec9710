package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:               3,
		InitialDelay:              time.Millisecond,
		MaxDelay:                  2 * time.Millisecond,
		ExponentialBase:           2.0,
		Jitter:                    false,
		ProgressiveSimplification: true,
	}
}

// failNTimes fails with msg for the first n calls, then succeeds.
func failNTimes(n int, msg string) GenerateFunc {
	calls := 0
	return func(ctx context.Context, request string) (string, error) {
		calls++
		if calls <= n {
			return "", errors.New(msg)
		}
		return "artifact://" + request, nil
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	o := NewOrchestrator(fastConfig(), "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "a calm lake", failNTimes(0, ""))
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	if res.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", res.Attempts)
	}
	if res.FinalRequest != "a calm lake" {
		t.Fatalf("first attempt must send the original request, got %q", res.FinalRequest)
	}
	if len(res.FailureTypes) != 0 {
		t.Fatalf("expected no failures, got %v", res.FailureTypes)
	}
}

func TestExecuteEscalatesOnSafetyBlock(t *testing.T) {
	o := NewOrchestrator(fastConfig(), "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "soldiers in a battle scene",
		failNTimes(2, "request blocked by safety policy"))
	if !res.Success {
		t.Fatalf("expected eventual success: %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", res.Attempts)
	}

	// Each safety block escalates exactly one level.
	if o.EscalationLevel("req-1") != StrategyAbstractVersion {
		t.Fatalf("expected abstract_version after two blocks, got %s", o.EscalationLevel("req-1"))
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i].Strategy <= res.History[i-1].Strategy {
			t.Fatalf("strategies must escalate monotonically: %+v", res.History)
		}
	}

	// The winning request was transformed away from the blocked vocabulary.
	lower := strings.ToLower(res.FinalRequest)
	if strings.Contains(lower, "soldier") || strings.Contains(lower, "battle") {
		t.Fatalf("final request still carries blocked vocabulary: %q", res.FinalRequest)
	}
}

func TestExecuteQuotaNeverRetries(t *testing.T) {
	o := NewOrchestrator(fastConfig(), "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "anything",
		failNTimes(99, "quota exceeded for project"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Attempts != 1 {
		t.Fatalf("quota failures must not retry, got %d attempts", res.Attempts)
	}
	if res.FailureTypes[0] != FailureQuotaExceeded {
		t.Fatalf("unexpected failure type %s", res.FailureTypes[0])
	}
}

func TestExecuteTimeoutCapsAtTwoRetries(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 10
	o := NewOrchestrator(cfg, "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "anything",
		failNTimes(99, "request timed out"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Attempts != 3 {
		t.Fatalf("timeouts retry at most twice, got %d attempts", res.Attempts)
	}
}

func TestExecuteSafetyBlockWithoutSimplificationStops(t *testing.T) {
	cfg := fastConfig()
	cfg.ProgressiveSimplification = false
	o := NewOrchestrator(cfg, "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "anything",
		failNTimes(99, "blocked by safety policy"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Attempts != 1 {
		t.Fatalf("safety block without simplification must not retry, got %d", res.Attempts)
	}
}

func TestExecuteNonSafetyDoesNotEscalate(t *testing.T) {
	o := NewOrchestrator(fastConfig(), "run-1", nil)

	res := o.Execute(context.Background(), "req-1", "anything",
		failNTimes(99, "500 internal server error"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Attempts != 3 {
		t.Fatalf("api errors retry to the attempt budget, got %d", res.Attempts)
	}
	if o.EscalationLevel("req-1") != StrategyMinorAdjustment {
		t.Fatalf("non-safety failures must not escalate, got %s", o.EscalationLevel("req-1"))
	}
}

func TestExecuteCachesSuccess(t *testing.T) {
	o := NewOrchestrator(fastConfig(), "run-1", nil)

	first := o.Execute(context.Background(), "req-1", "a calm lake", failNTimes(0, ""))
	if !first.Success || first.Attempts != 1 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	calls := 0
	second := o.Execute(context.Background(), "req-1", "a calm lake",
		func(ctx context.Context, request string) (string, error) {
			calls++
			return "fresh", nil
		})
	if !second.Success {
		t.Fatal("cache hit should succeed")
	}
	if second.Attempts != 0 {
		t.Fatalf("cache hit should report zero attempts, got %d", second.Attempts)
	}
	if second.Result != first.Result {
		t.Fatalf("cache should return the original artifact: %q vs %q", second.Result, first.Result)
	}
	if calls != 0 {
		t.Fatal("cache hit must not call the backend")
	}

	// A different request id misses the cache.
	third := o.Execute(context.Background(), "req-2", "a calm lake", failNTimes(0, ""))
	if third.Attempts != 1 {
		t.Fatalf("different request id should regenerate, got %d attempts", third.Attempts)
	}
}

func TestExecutePersistsHistory(t *testing.T) {
	h := tempHistory(t)
	o := NewOrchestrator(fastConfig(), "run-9", h)

	res := o.Execute(context.Background(), "req-1", "soldiers marching",
		failNTimes(1, "blocked by safety policy"))
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}

	stored, err := h.ListByRun("run-9")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 persisted attempts, got %d", len(stored))
	}
	if stored[0].Success || !stored[1].Success {
		t.Fatalf("persisted success flags wrong: %+v", stored)
	}
	if stored[0].FailureType != FailureSafetyBlock {
		t.Fatalf("unexpected failure type %s", stored[0].FailureType)
	}
}

func TestExecuteConcurrentRequests(t *testing.T) {
	cfg := fastConfig()
	cfg.Jitter = true
	o := NewOrchestrator(cfg, "run-1", nil)

	var wg sync.WaitGroup
	results := make([]RetryResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reqID := fmt.Sprintf("req-%d", i)
			msg := "500 internal server error"
			if i%2 == 0 {
				msg = "blocked by safety policy"
			}
			results[i] = o.Execute(context.Background(), reqID, "soldiers in a battle scene",
				failNTimes(99, msg))
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res.Success {
			t.Fatalf("request %d: expected failure", i)
		}
		if res.Attempts != 3 {
			t.Fatalf("request %d: expected 3 attempts, got %d", i, res.Attempts)
		}
	}

	// Escalation state stays per request id under contention.
	for i := range results {
		reqID := fmt.Sprintf("req-%d", i)
		want := StrategyMinorAdjustment
		if i%2 == 0 {
			want = StrategyMetaphorical // three safety blocks, three escalations
		}
		if got := o.EscalationLevel(reqID); got != want {
			t.Fatalf("request %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = time.Minute
	cfg.MaxDelay = time.Minute
	o := NewOrchestrator(cfg, "run-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	res := o.Execute(ctx, "req-1", "anything", failNTimes(99, "server error"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Attempts != 1 {
		t.Fatalf("cancelled context should stop after the in-flight attempt, got %d", res.Attempts)
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancelled context must not wait out the backoff")
	}
}
