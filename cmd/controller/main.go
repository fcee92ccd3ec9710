package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yzamari/viral-videos-sub000/internal/backend"
	"github.com/yzamari/viral-videos-sub000/internal/config"
	"github.com/yzamari/viral-videos-sub000/internal/oracle"
	"github.com/yzamari/viral-videos-sub000/internal/orchestrator"
	"github.com/yzamari/viral-videos-sub000/internal/pipeline"
	"github.com/yzamari/viral-videos-sub000/internal/quality"
	"github.com/yzamari/viral-videos-sub000/internal/store"
)

// #region main
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("RELIABILITY_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	history, err := orchestrator.NewAttemptHistory(st.DB())
	if err != nil {
		log.Fatalf("failed to open attempt history: %v", err)
	}

	scorer, err := oracle.NewClient(oracle.Options{
		APIKey:  cfg.OracleAPIKey,
		Model:   cfg.OracleModel,
		BaseURL: cfg.OracleAddr,
	})
	if err != nil {
		log.Fatalf("failed to create oracle client: %v", err)
	}

	gen, err := backend.NewClient(backend.Options{
		BaseURL: cfg.BackendAddr,
		APIKey:  cfg.BackendAPIKey,
	})
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	fmt.Println("Generation Reliability Controller ready.")
	fmt.Printf("  DB: %s | Reports: %s | Threshold: %.2f\n", cfg.DBPath, cfg.ReportsDir, cfg.QualityThreshold)
	fmt.Println("Type a video topic (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		topic := strings.TrimSpace(scanner.Text())
		if topic == "" {
			continue
		}
		if topic == "quit" || topic == "exit" {
			break
		}

		if err := runOnce(cfg, st, history, scorer, gen, topic); err != nil {
			log.Printf("run error: %v", err)
		}
	}
}

// #endregion main

// #region run-once
func runOnce(cfg config.Config, st *store.Store, history *orchestrator.AttemptHistory, scorer oracle.Scorer, gen backend.Generator, topic string) error {
	runID := uuid.New().String()
	if err := st.CreateRun(runID, topic); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	orch := orchestrator.NewOrchestrator(orchestrator.RetryConfig{
		MaxAttempts:               cfg.MaxAttempts,
		InitialDelay:              cfg.InitialDelay(),
		MaxDelay:                  cfg.MaxDelay(),
		ExponentialBase:           cfg.ExponentialBase,
		Jitter:                    cfg.Jitter,
		ProgressiveSimplification: cfg.ProgressiveSimplification,
	}, runID, history)

	gate := quality.NewGate(quality.GateConfig{
		QualityThreshold: cfg.QualityThreshold,
		MaxRetries:       cfg.MaxRetries,
	}, scorer)

	producer, err := pipeline.NewClipProducer(pipeline.ClipOptions{
		Orchestrator: orch,
		Generator:    gen,
		Topic:        topic,
	})
	if err != nil {
		return fmt.Errorf("create producer: %w", err)
	}

	runner, err := pipeline.NewRunner(pipeline.Options{
		RunID:      runID,
		Gate:       gate,
		Producer:   producer,
		Store:      st,
		ReportsDir: cfg.ReportsDir,
	})
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	outcome, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	fmt.Printf("\n[%s] %s\n", outcome.RunID, outcome.Report.Verdict)
	if outcome.ReportPath != "" {
		fmt.Printf("Report: %s\n", outcome.ReportPath)
	}
	return nil
}

// #endregion run-once
