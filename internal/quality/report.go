package quality

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yzamari/viral-videos-sub000/internal/oracle"
	"github.com/yzamari/viral-videos-sub000/internal/stage"
)

// #endregion

// #region report-types

// RunReport is the JSON document written once per run.
type RunReport struct {
	RunID        string           `json:"run_id"`
	CreatedAt    time.Time        `json:"created_at"`
	OverallScore float64          `json:"overall_score"`
	Threshold    float64          `json:"threshold"`
	Passed       bool             `json:"passed"`
	Verdict      string           `json:"verdict"`
	Stages       []StageReport    `json:"stages"`
	Decisions    []DecisionReport `json:"decisions"`
	TotalRetries int              `json:"total_retries"`
}

// StageReport summarizes the latest evaluation of one stage.
type StageReport struct {
	Stage        string   `json:"stage"`
	Score        float64  `json:"score"`
	Level        string   `json:"level"`
	Issues       []string `json:"issues,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
	FallbackUsed bool     `json:"fallback_used,omitempty"`
}

// DecisionReport is one entry of the run's decision log.
type DecisionReport struct {
	Stage      string  `json:"stage"`
	Action     string  `json:"action"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// #endregion report-types

// #region build-report

// BuildRunReport summarizes a completed run from the gate's history. The
// overall score averages the latest result of each evaluated stage.
func BuildRunReport(runID string, g *Gate) RunReport {
	history := g.History()

	var stages []StageReport
	var sum float64
	var evaluated int
	for _, st := range stage.All() {
		results, ok := history[st]
		if !ok || len(results) == 0 {
			continue
		}
		latest := results[len(results)-1]
		stages = append(stages, StageReport{
			Stage:        string(st),
			Score:        latest.Score,
			Level:        string(latest.Level),
			Issues:       latest.Issues,
			Suggestions:  latest.Suggestions,
			FallbackUsed: latest.Source == oracle.SourceFallback,
		})
		sum += latest.Score
		evaluated++
	}

	var overall float64
	if evaluated > 0 {
		overall = sum / float64(evaluated)
	}

	var decisions []DecisionReport
	for _, d := range g.Decisions() {
		decisions = append(decisions, DecisionReport{
			Stage:      string(d.Stage),
			Action:     string(d.Action),
			Reasoning:  d.Reasoning,
			Confidence: d.Confidence,
		})
	}

	threshold := g.Threshold()
	passed := overall >= threshold

	return RunReport{
		RunID:        runID,
		CreatedAt:    time.Now().UTC(),
		OverallScore: overall,
		Threshold:    threshold,
		Passed:       passed,
		Verdict:      verdictString(overall, threshold, passed),
		Stages:       stages,
		Decisions:    decisions,
		TotalRetries: g.TotalRetries(),
	}
}

func verdictString(overall, threshold float64, passed bool) string {
	level := LevelForScore(overall)
	if passed {
		return fmt.Sprintf("PASSED: overall quality %.2f (%s) meets the %.2f threshold", overall, level, threshold)
	}
	return fmt.Sprintf("FAILED: overall quality %.2f (%s) is below the %.2f threshold; review stage issues and suggestions", overall, level, threshold)
}

// #endregion build-report

// #region write-report

// WriteRunReport writes the report under dir as <runID>_quality_report.json
// and returns the written path.
func WriteRunReport(rep RunReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, rep.RunID+"_quality_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// #endregion write-report
