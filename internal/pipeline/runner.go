package pipeline

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/yzamari/viral-videos-sub000/internal/logging"
	"github.com/yzamari/viral-videos-sub000/internal/quality"
	"github.com/yzamari/viral-videos-sub000/internal/stage"
	"github.com/yzamari/viral-videos-sub000/internal/store"
)

// #endregion

// #region producer

// Producer builds the artifacts for each pipeline stage. Produce is called
// once per attempt; attempt is 0 for the first production and counts up on
// gate-ordered retries. Enhance applies the gate's suggested improvements to
// the stage's latest artifacts.
type Producer interface {
	Produce(ctx context.Context, st stage.Stage, attempt int) (quality.Artifacts, error)
	Enhance(ctx context.Context, st stage.Stage, needed []string) (quality.Artifacts, error)
}

// #endregion producer

// #region runner-struct

// Options configures a pipeline runner.
type Options struct {
	RunID      string // generated when empty
	Gate       *quality.Gate
	Producer   Producer
	Store      *store.Store // optional
	ReportsDir string
}

// Runner walks the stage sequence in order, evaluating each stage's output
// through the quality gate and acting on its decision. One Runner serves one
// run.
type Runner struct {
	runID      string
	gate       *quality.Gate
	producer   Producer
	store      *store.Store
	db         *sql.DB
	reportsDir string
}

// NewRunner validates options and builds a runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Gate == nil {
		return nil, fmt.Errorf("gate is required")
	}
	if opts.Producer == nil {
		return nil, fmt.Errorf("producer is required")
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	r := &Runner{
		runID:      runID,
		gate:       opts.Gate,
		producer:   opts.Producer,
		store:      opts.Store,
		reportsDir: opts.ReportsDir,
	}
	if opts.Store != nil {
		r.db = opts.Store.DB()
	}
	return r, nil
}

// RunID returns the run's identifier.
func (r *Runner) RunID() string {
	return r.runID
}

// #endregion runner-struct

// #region outcome

// Outcome is the result of one full pipeline run.
type Outcome struct {
	RunID        string
	Passed       bool
	Aborted      bool
	AbortedStage stage.Stage
	Report       quality.RunReport
	ReportPath   string
}

// #endregion outcome

// #region run

// Run executes every stage in order. A retry decision re-produces the stage
// and re-evaluates; enhance applies the gate's suggestions once and then
// proceeds; abort stops the pipeline at the failing stage. The quality report
// is written and the run record finalized regardless of outcome.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	var aborted bool
	var abortedAt stage.Stage

stages:
	for _, st := range stage.All() {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("run cancelled before %s: %w", st, err)
		}

		attempt := 0
		art, err := r.producer.Produce(ctx, st, attempt)
		if err != nil {
			return Outcome{}, fmt.Errorf("produce %s: %w", st, err)
		}

		for {
			res := r.gate.Evaluate(ctx, st, art)
			d := r.gate.Decide(res)
			r.logDecision(res, d)

			switch d.Action {
			case quality.ActionProceed:
				continue stages

			case quality.ActionRetry:
				attempt++
				log.Printf("[PIPE] %s retrying, attempt %d", st, attempt)
				art, err = r.producer.Produce(ctx, st, attempt)
				if err != nil {
					return Outcome{}, fmt.Errorf("produce %s attempt %d: %w", st, attempt, err)
				}

			case quality.ActionEnhance:
				log.Printf("[PIPE] %s applying enhancements: %v", st, d.EnhancementsNeeded)
				enhanced, err := r.producer.Enhance(ctx, st, d.EnhancementsNeeded)
				if err != nil {
					log.Printf("[PIPE] %s enhancement failed, proceeding with original: %v", st, err)
					continue stages
				}
				art = enhanced
				res = r.gate.Evaluate(ctx, st, art)
				log.Printf("[PIPE] %s enhanced score=%.2f", st, res.Score)
				continue stages

			case quality.ActionAbort:
				aborted = true
				abortedAt = st
				log.Printf("[PIPE] aborting run at %s", st)
				break stages

			default:
				return Outcome{}, fmt.Errorf("unknown gate action %q at %s", d.Action, st)
			}
		}
	}

	return r.finish(aborted, abortedAt)
}

// finish builds the report, writes it, and finalizes the run record.
func (r *Runner) finish(aborted bool, abortedAt stage.Stage) (Outcome, error) {
	rep := quality.BuildRunReport(r.runID, r.gate)
	if aborted {
		rep.Passed = false
		rep.Verdict = fmt.Sprintf("ABORTED at %s: %s", abortedAt, rep.Verdict)
	}

	var reportPath string
	if r.reportsDir != "" {
		path, err := quality.WriteRunReport(rep, r.reportsDir)
		if err != nil {
			log.Printf("[PIPE] failed to write report: %v", err)
		} else {
			reportPath = path
			log.Printf("[PIPE] report written to %s", path)
		}
	}

	if r.store != nil {
		if err := r.store.FinishRun(r.runID, rep.OverallScore, rep.Passed, rep.Verdict, reportPath); err != nil {
			log.Printf("[PIPE] failed to finalize run record: %v", err)
		}
	}

	log.Printf("[PIPE] run %s finished: %s", r.runID, rep.Verdict)
	return Outcome{
		RunID:        r.runID,
		Passed:       rep.Passed,
		Aborted:      aborted,
		AbortedStage: abortedAt,
		Report:       rep,
		ReportPath:   reportPath,
	}, nil
}

func (r *Runner) logDecision(res quality.StepResult, d quality.Decision) {
	if r.db == nil {
		return
	}
	err := logging.LogDecision(r.db, logging.DecisionEntry{
		RunID:      r.runID,
		Stage:      string(res.Stage),
		Action:     string(d.Action),
		Reasoning:  d.Reasoning,
		Confidence: d.Confidence,
		Score:      res.Score,
		RetryCount: res.RetryCount,
		CreatedAt:  d.CreatedAt,
	})
	if err != nil {
		log.Printf("[PIPE] failed to log decision: %v", err)
	}
}

// #endregion run
