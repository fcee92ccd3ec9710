package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/yzamari/viral-videos-sub000/internal/logging"
	"github.com/yzamari/viral-videos-sub000/internal/orchestrator"
	"github.com/yzamari/viral-videos-sub000/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to reliability.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/reliability.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *runID != "" {
		err = runDetailMode(st, *runID, *jsonOut)
	} else {
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID        string  `json:"run_id"`
	Topic        string  `json:"topic"`
	OverallScore float64 `json:"overall_score"`
	Passed       bool    `json:"passed"`
	Finished     bool    `json:"finished"`
	CreatedAt    string  `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:        r.RunID,
			Topic:        r.Topic,
			OverallScore: r.OverallScore,
			Passed:       r.Passed,
			Finished:     r.Finished,
			CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-24s  %7s  %-8s  %s\n", "Run", "Topic", "Score", "Status", "Time")
	fmt.Printf("%-12s  %-24s  %7s  %-8s  %s\n", "------------", "------------------------", "-------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-24s  %7.2f  %-8s  %s\n",
			shortID(r.RunID), truncate(r.Topic, 24), r.OverallScore, statusWord(r), r.CreatedAt)
	}
	return nil
}

func statusWord(r listRow) string {
	switch {
	case !r.Finished:
		return "running"
	case r.Passed:
		return "passed"
	default:
		return "failed"
	}
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string          `json:"run_id"`
	Topic      string          `json:"topic"`
	CreatedAt  string          `json:"created_at"`
	Score      float64         `json:"overall_score"`
	Passed     bool            `json:"passed"`
	Verdict    string          `json:"verdict"`
	ReportPath string          `json:"report_path,omitempty"`
	Decisions  []decisionRow   `json:"decisions"`
	Attempts   []attemptDetail `json:"attempts"`
}

type decisionRow struct {
	Stage      string  `json:"stage"`
	Action     string  `json:"action"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type attemptDetail struct {
	RequestID   string `json:"request_id"`
	Attempt     int    `json:"attempt"`
	Strategy    string `json:"strategy"`
	FailureType string `json:"failure_type,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

func runDetailMode(st *store.Store, runID string, jsonOut bool) error {
	run, err := st.GetRun(runID)
	if err != nil {
		return err
	}

	decisions, err := logging.ListByRun(st.DB(), runID)
	if err != nil {
		return err
	}

	history, err := orchestrator.NewAttemptHistory(st.DB())
	if err != nil {
		return err
	}
	attempts, err := history.ListByRun(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:      run.RunID,
		Topic:      run.Topic,
		CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Score:      run.OverallScore,
		Passed:     run.Passed,
		Verdict:    run.Verdict,
		ReportPath: run.ReportPath,
	}
	for _, d := range decisions {
		out.Decisions = append(out.Decisions, decisionRow{
			Stage:      d.Stage,
			Action:     d.Action,
			Score:      d.Score,
			Confidence: d.Confidence,
			Reasoning:  d.Reasoning,
		})
	}
	for _, a := range attempts {
		failure := string(a.FailureType)
		if a.Success {
			failure = ""
		}
		out.Attempts = append(out.Attempts, attemptDetail{
			RequestID:   a.RequestID,
			Attempt:     a.AttemptNumber,
			Strategy:    a.Strategy.String(),
			FailureType: failure,
			Success:     a.Success,
			Error:       a.ErrorMessage,
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:     %s\n", out.RunID)
	fmt.Printf("Topic:   %s\n", out.Topic)
	fmt.Printf("Created: %s\n", out.CreatedAt)
	fmt.Printf("Score:   %.2f\n", out.Score)
	fmt.Printf("Verdict: %s\n", out.Verdict)
	if out.ReportPath != "" {
		fmt.Printf("Report:  %s\n", out.ReportPath)
	}

	fmt.Printf("\nDecisions:\n")
	for _, d := range out.Decisions {
		fmt.Printf("  %-20s %-8s score=%.2f conf=%.2f  %s\n", d.Stage, d.Action, d.Score, d.Confidence, d.Reasoning)
	}

	if len(out.Attempts) > 0 {
		fmt.Printf("\nGeneration attempts:\n")
		for _, a := range out.Attempts {
			status := "ok"
			if !a.Success {
				status = a.FailureType
			}
			fmt.Printf("  %-40s #%d %-18s %-14s %s\n", truncate(a.RequestID, 40), a.Attempt, a.Strategy, status, truncate(a.Error, 60))
		}
	}

	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// #endregion output
