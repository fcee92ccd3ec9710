package quality

// #region imports
import (
	"time"

	"github.com/yzamari/viral-videos-sub000/internal/oracle"
	"github.com/yzamari/viral-videos-sub000/internal/stage"
)

// #endregion

// #region level

// Level is the ordinal quality band derived from a score.
type Level string

const (
	LevelFailed     Level = "failed"
	LevelPoor       Level = "poor"
	LevelAcceptable Level = "acceptable"
	LevelGood       Level = "good"
	LevelExcellent  Level = "excellent"
	LevelPerfect    Level = "perfect"
)

// LevelForScore maps a score in [0,1] to its quality band using fixed
// thresholds.
func LevelForScore(score float64) Level {
	switch {
	case score >= 0.95:
		return LevelPerfect
	case score >= 0.85:
		return LevelExcellent
	case score >= 0.70:
		return LevelGood
	case score >= 0.50:
		return LevelAcceptable
	case score >= 0.30:
		return LevelPoor
	default:
		return LevelFailed
	}
}

// #endregion level

// #region action

// Action is the gate's verdict on a stage evaluation.
type Action string

const (
	ActionProceed Action = "proceed"
	ActionRetry   Action = "retry"
	ActionEnhance Action = "enhance"
	ActionAbort   Action = "abort"
)

// #endregion action

// #region step-result

// StepResult is one evaluation of one stage's artifacts. Immutable after
// creation; owned by the run's evaluation history.
type StepResult struct {
	Stage       stage.Stage
	Level       Level
	Score       float64
	Issues      []string
	Suggestions []string
	Metrics     map[string]float64
	CanProceed  bool
	ShouldRetry bool
	RetryCount  int
	Source      oracle.ScoreSource
	CreatedAt   time.Time
}

// #endregion step-result

// #region decision

// Decision is the gate's resolution for one stage evaluation. Decisions form
// an ordered log for the run.
type Decision struct {
	Stage              stage.Stage
	Action             Action
	Reasoning          string
	Confidence         float64
	EnhancementsNeeded []string
	RetryParams        map[string]string
	CreatedAt          time.Time
}

// #endregion decision

// #region gate-config

// GateConfig holds the thresholds driving stage decisions.
type GateConfig struct {
	QualityThreshold float64
	MaxRetries       int
}

// DefaultGateConfig returns the standard thresholds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		QualityThreshold: 0.7,
		MaxRetries:       2,
	}
}

// #endregion gate-config

// #region artifacts

// Artifacts bundles the stage-specific inputs handed to the evaluator.
// Not every field is populated for every stage.
type Artifacts struct {
	ScriptText         string
	MediaRefs          []string
	TargetDurationSecs float64
	ActualDurationSecs float64
	Notes              string
}

// #endregion artifacts
