package quality

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yzamari/viral-videos-sub000/internal/oracle"
	"github.com/yzamari/viral-videos-sub000/internal/stage"
)

// #endregion

// #region gate-struct

// Gate scores a stage's artifacts against a threshold and decides the
// stage's fate. One Gate instance serves one run; its evaluation history and
// decision log are append-only. Safe for concurrent evaluations of
// independent stages, though within a run stages are evaluated in order.
type Gate struct {
	config GateConfig
	scorer oracle.Scorer

	mu          sync.Mutex
	history     map[stage.Stage][]StepResult
	decisions   []Decision
	retryCounts map[stage.Stage]int
}

// NewGate creates a gate backed by the given evaluation oracle.
func NewGate(config GateConfig, scorer oracle.Scorer) *Gate {
	return &Gate{
		config:      config,
		scorer:      scorer,
		history:     make(map[stage.Stage][]StepResult),
		retryCounts: make(map[stage.Stage]int),
	}
}

// #endregion gate-struct

// #region evaluate

// Evaluate scores the artifacts produced by one stage. Oracle failures
// degrade to a conservative fallback score and never fail the run.
func (g *Gate) Evaluate(ctx context.Context, st stage.Stage, art Artifacts) StepResult {
	rubric := BuildRubric(st, art)

	score, err := g.scorer.Score(ctx, rubric)
	if err != nil {
		log.Printf("[GATE] oracle failure for %s, using fallback score: %v", st, err)
		score = oracle.Fallback(fallbackScoreFor(st), fmt.Sprintf("oracle unavailable: %v", err))
	}

	metrics := score.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}

	g.mu.Lock()
	count := g.retryCounts[st]
	g.mu.Unlock()

	res := StepResult{
		Stage:       st,
		Level:       LevelForScore(score.Score),
		Score:       score.Score,
		Issues:      score.Issues,
		Suggestions: score.Suggestions,
		Metrics:     metrics,
		CanProceed:  score.Score >= 0.3,
		ShouldRetry: score.Score < g.config.QualityThreshold && !st.Terminal(),
		RetryCount:  count,
		Source:      score.Source,
		CreatedAt:   time.Now().UTC(),
	}

	g.mu.Lock()
	g.history[st] = append(g.history[st], res)
	g.mu.Unlock()

	log.Printf("[GATE] %s score=%.2f level=%s source=%s", st, res.Score, res.Level, res.Source)
	return res
}

// #endregion evaluate

// #region decide

// Decide applies the decision rule to an evaluation result, appends the
// decision to the run's log, and consumes retry budget on a retry verdict.
// Exactly one action is returned for every input.
func (g *Gate) Decide(res StepResult) Decision {
	d := g.decide(res)
	d.Stage = res.Stage
	d.CreatedAt = time.Now().UTC()

	g.mu.Lock()
	g.decisions = append(g.decisions, d)
	if d.Action == ActionRetry {
		g.retryCounts[res.Stage]++
	}
	g.mu.Unlock()

	log.Printf("[GATE] %s → %s (%s)", res.Stage, d.Action, d.Reasoning)
	return d
}

func (g *Gate) decide(res StepResult) Decision {
	thr := g.config.QualityThreshold
	switch {
	case res.Score >= thr:
		return Decision{
			Action:     ActionProceed,
			Reasoning:  fmt.Sprintf("score %.2f meets threshold %.2f", res.Score, thr),
			Confidence: res.Score,
		}

	case res.ShouldRetry && res.RetryCount < g.config.MaxRetries && !res.Stage.Terminal():
		return Decision{
			Action:     ActionRetry,
			Reasoning:  fmt.Sprintf("score %.2f below threshold %.2f, retry %d/%d", res.Score, thr, res.RetryCount+1, g.config.MaxRetries),
			Confidence: 0.5,
			RetryParams: map[string]string{
				"retry": fmt.Sprintf("%d", res.RetryCount+1),
			},
		}

	case res.Score >= 0.5:
		needed := res.Suggestions
		if len(needed) == 0 {
			needed = res.Issues
		}
		return Decision{
			Action:             ActionEnhance,
			Reasoning:          fmt.Sprintf("score %.2f below threshold with retries exhausted, applying enhancements", res.Score),
			Confidence:         res.Score,
			EnhancementsNeeded: needed,
		}

	case res.CanProceed:
		// The stage produced something usable; never silently block the run.
		log.Printf("[GATE] warning: %s proceeding at low score %.2f", res.Stage, res.Score)
		return Decision{
			Action:     ActionProceed,
			Reasoning:  fmt.Sprintf("low score %.2f but artifact usable, proceeding with warning", res.Score),
			Confidence: res.Score,
		}

	default:
		return Decision{
			Action:     ActionAbort,
			Reasoning:  fmt.Sprintf("score %.2f unusable after exhausting retries", res.Score),
			Confidence: 1 - res.Score,
		}
	}
}

// #endregion decide

// #region accessors

// History returns a copy of the evaluation history, keyed by stage.
func (g *Gate) History() map[stage.Stage][]StepResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[stage.Stage][]StepResult, len(g.history))
	for st, results := range g.history {
		out[st] = append([]StepResult(nil), results...)
	}
	return out
}

// Decisions returns a copy of the ordered decision log.
func (g *Gate) Decisions() []Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Decision(nil), g.decisions...)
}

// RetryCount returns the retries consumed by one stage.
func (g *Gate) RetryCount(st stage.Stage) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.retryCounts[st]
}

// TotalRetries returns the retries consumed across all stages.
func (g *Gate) TotalRetries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.retryCounts {
		total += n
	}
	return total
}

// Threshold returns the configured quality threshold.
func (g *Gate) Threshold() float64 {
	return g.config.QualityThreshold
}

// #endregion accessors
