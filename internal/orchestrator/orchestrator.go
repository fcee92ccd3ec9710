package orchestrator

// #region imports
import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"
)

// #endregion

// #region orchestrator-struct

// cachePrefixLen bounds how much of the original request participates in the
// success cache key.
const cachePrefixLen = 50

type cacheEntry struct {
	result       string
	finalRequest string
}

// Orchestrator drives generation attempts through classification, content
// transformation, prompt optimization, and capped exponential backoff.
// Escalation levels and the success cache are keyed per request id and live
// for the orchestrator's lifetime. Safe for concurrent Execute calls.
type Orchestrator struct {
	config      RetryConfig
	transformer *Transformer
	optimizer   *Optimizer
	history     *AttemptHistory
	runID       string

	mu     sync.Mutex
	levels map[string]Strategy
	cache  map[string]cacheEntry
	rng    *rand.Rand
}

// NewOrchestrator creates an orchestrator for one run. history may be nil
// when persistence is not wanted.
func NewOrchestrator(config RetryConfig, runID string, history *AttemptHistory) *Orchestrator {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Orchestrator{
		config:      config,
		transformer: NewTransformer(),
		optimizer:   NewOptimizer(),
		history:     history,
		runID:       runID,
		levels:      make(map[string]Strategy),
		cache:       make(map[string]cacheEntry),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Transformer exposes the orchestrator's transformer for pattern inspection.
func (o *Orchestrator) Transformer() *Transformer {
	return o.transformer
}

// #endregion orchestrator-struct

// #region execute

// Execute runs the retry loop for one logical generation request. A
// previously successful identical request short-circuits via the cache with
// zero attempts. The first attempt always sends the original request
// unchanged; later attempts apply the request's current escalation level when
// progressive simplification is enabled.
func (o *Orchestrator) Execute(ctx context.Context, requestID, request string, generate GenerateFunc) RetryResult {
	start := time.Now()

	key := cacheKey(requestID, request)
	o.mu.Lock()
	if hit, ok := o.cache[key]; ok {
		o.mu.Unlock()
		log.Printf("[RETRY] %s cache hit, skipping generation", requestID)
		return RetryResult{
			Success:      true,
			Result:       hit.result,
			Attempts:     0,
			TotalTime:    time.Since(start),
			FinalRequest: hit.finalRequest,
		}
	}
	o.mu.Unlock()

	var history []RetryAttempt
	var failures []FailureType
	current := request
	timeouts := 0

	for k := 1; k <= o.config.MaxAttempts; k++ {
		if k > 1 && o.config.ProgressiveSimplification {
			level := o.levelFor(requestID)
			current = o.transformer.Rephrase(request, level)
			opt := o.optimizer.Optimize(current, level)
			current = opt.OptimizedRequest
			if v := o.optimizer.Validate(current); !v.IsSafe {
				log.Printf("[RETRY] %s attempt %d request still unsafe after optimization: %v", requestID, k, v.Issues)
			}
			log.Printf("[RETRY] %s attempt %d level=%s p=%.2f", requestID, k, level, opt.SuccessProbability)
		}

		result, err := generate(ctx, current)
		att := RetryAttempt{
			AttemptNumber:      k,
			OriginalRequest:    request,
			TransformedRequest: current,
			Strategy:           o.levelFor(requestID),
			Success:            err == nil,
			CreatedAt:          time.Now().UTC(),
		}

		if err == nil {
			o.record(requestID, att)
			history = append(history, att)
			o.transformer.RecordSuccess(current)
			o.mu.Lock()
			o.cache[key] = cacheEntry{result: result, finalRequest: current}
			o.mu.Unlock()
			log.Printf("[RETRY] %s succeeded on attempt %d", requestID, k)
			return RetryResult{
				Success:      true,
				Result:       result,
				Attempts:     k,
				TotalTime:    time.Since(start),
				FailureTypes: failures,
				FinalRequest: current,
				History:      history,
			}
		}

		failure := Classify(err.Error())
		att.FailureType = failure
		att.ErrorMessage = err.Error()
		o.record(requestID, att)
		history = append(history, att)
		failures = append(failures, failure)
		log.Printf("[RETRY] %s attempt %d failed: %s (%v)", requestID, k, failure, err)

		switch failure {
		case FailureSafetyBlock:
			o.escalate(requestID)
			o.transformer.RecordBlocked(denylistHits(current))
		case FailureTimeout:
			timeouts++
		}

		if !o.shouldContinue(failure, timeouts) {
			log.Printf("[RETRY] %s giving up after attempt %d: %s is not retryable", requestID, k, failure)
			break
		}
		if k == o.config.MaxAttempts {
			break
		}
		if err := sleep(ctx, o.nextDelay(k)); err != nil {
			log.Printf("[RETRY] %s cancelled during backoff: %v", requestID, err)
			break
		}
	}

	return RetryResult{
		Success:      false,
		Attempts:     len(history),
		TotalTime:    time.Since(start),
		FailureTypes: failures,
		FinalRequest: current,
		History:      history,
	}
}

// shouldContinue applies the per-failure retry policy. Quota failures never
// retry. Timeouts retry at most twice. Safety blocks only retry when
// progressive simplification can change the request.
func (o *Orchestrator) shouldContinue(failure FailureType, timeouts int) bool {
	switch failure {
	case FailureQuotaExceeded:
		return false
	case FailureTimeout:
		return timeouts <= 2
	case FailureSafetyBlock:
		return o.config.ProgressiveSimplification
	default:
		return true
	}
}

// #endregion execute

// #region escalation

// levelFor returns the request's current escalation level. Levels start at
// minor adjustment and only move up.
func (o *Orchestrator) levelFor(requestID string) Strategy {
	o.mu.Lock()
	defer o.mu.Unlock()
	if lvl, ok := o.levels[requestID]; ok {
		return lvl
	}
	return StrategyMinorAdjustment
}

func (o *Orchestrator) escalate(requestID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	current, ok := o.levels[requestID]
	if !ok {
		current = StrategyMinorAdjustment
	}
	next := current.Escalate()
	o.levels[requestID] = next
	if next != current {
		log.Printf("[RETRY] %s escalated %s → %s", requestID, current, next)
	}
}

// EscalationLevel reports the current level for a request id.
func (o *Orchestrator) EscalationLevel(requestID string) Strategy {
	return o.levelFor(requestID)
}

// #endregion escalation

// #region helpers

// nextDelay draws the jittered backoff delay for attempt k. The rng is not
// concurrency safe, so the draw happens under the lock; the sleep itself
// never does.
func (o *Orchestrator) nextDelay(attempt int) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return backoffDelay(attempt, o.config, o.rng)
}

func (o *Orchestrator) record(requestID string, att RetryAttempt) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(o.runID, requestID, att); err != nil {
		log.Printf("[RETRY] failed to record attempt: %v", err)
	}
}

func cacheKey(requestID, request string) string {
	prefix := request
	if len(prefix) > cachePrefixLen {
		prefix = prefix[:cachePrefixLen]
	}
	return requestID + "|" + prefix
}

// #endregion helpers
