package orchestrator

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func TestBackoffGrowth(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    2 * time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second}, // capped
		{10, 60 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt, cfg, nil); got != tc.want {
			t.Errorf("attempt %d: got %v, expected %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoffJitterRange(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:    2 * time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		d := backoffDelay(2, cfg, rng)
		if d < 2*time.Second || d >= 6*time.Second {
			t.Fatalf("jittered delay %v outside [2s, 6s)", d)
		}
	}
}

func TestBackoffBadInputs(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 10 * time.Second, ExponentialBase: 0}

	// Zero attempt and non-sense base fall back to sane behavior.
	if got := backoffDelay(0, cfg, nil); got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}
	if got := backoffDelay(2, cfg, nil); got != 2*time.Second {
		t.Fatalf("default base should be 2, got %v", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Minute); err == nil {
		t.Fatal("expected context error")
	}

	start := time.Now()
	if err := sleep(context.Background(), 5*time.Millisecond); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("sleep returned too early")
	}
}
