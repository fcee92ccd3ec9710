package orchestrator

// #region imports
import (
	"context"
	"time"
)

// #endregion

// #region failure-type

// FailureType categorizes why a generation attempt failed.
type FailureType string

const (
	FailureSafetyBlock   FailureType = "safety_block"
	FailureTimeout       FailureType = "timeout"
	FailureAPIError      FailureType = "api_error"
	FailureQuotaExceeded FailureType = "quota_exceeded"
	FailureInvalidPrompt FailureType = "invalid_prompt"
	FailureUnknown       FailureType = "unknown"
)

// #endregion failure-type

// #region strategy

// Strategy is the ordinal escalation level of content abstraction applied to
// reduce policy-rejection risk. Higher levels are more abstract; applying
// level n always applies the substitutions of levels 1..n.
type Strategy int

const (
	StrategyMinorAdjustment Strategy = iota + 1
	StrategyModerateChange
	StrategyAbstractVersion
	StrategyMetaphorical
	StrategyArtisticOnly
)

func (s Strategy) String() string {
	switch s {
	case StrategyMinorAdjustment:
		return "minor_adjustment"
	case StrategyModerateChange:
		return "moderate_change"
	case StrategyAbstractVersion:
		return "abstract_version"
	case StrategyMetaphorical:
		return "metaphorical"
	case StrategyArtisticOnly:
		return "artistic_only"
	default:
		return "unknown"
	}
}

// Clamp bounds s to the valid strategy range.
func (s Strategy) Clamp() Strategy {
	if s < StrategyMinorAdjustment {
		return StrategyMinorAdjustment
	}
	if s > StrategyArtisticOnly {
		return StrategyArtisticOnly
	}
	return s
}

// Escalate advances exactly one level. ArtisticOnly is a fixed point.
func (s Strategy) Escalate() Strategy {
	return (s + 1).Clamp()
}

func strategyFromString(v string) Strategy {
	switch v {
	case "minor_adjustment":
		return StrategyMinorAdjustment
	case "moderate_change":
		return StrategyModerateChange
	case "abstract_version":
		return StrategyAbstractVersion
	case "metaphorical":
		return StrategyMetaphorical
	case "artistic_only":
		return StrategyArtisticOnly
	default:
		return StrategyMinorAdjustment
	}
}

// #endregion strategy

// #region retry-config

// RetryConfig is the immutable retry policy supplied at construction.
type RetryConfig struct {
	MaxAttempts               int
	InitialDelay              time.Duration
	MaxDelay                  time.Duration
	ExponentialBase           float64
	Jitter                    bool
	ProgressiveSimplification bool
}

// DefaultRetryConfig returns the standard retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:               3,
		InitialDelay:              2 * time.Second,
		MaxDelay:                  60 * time.Second,
		ExponentialBase:           2.0,
		Jitter:                    true,
		ProgressiveSimplification: true,
	}
}

// #endregion retry-config

// #region retry-attempt

// RetryAttempt records one generation attempt. Append-only.
type RetryAttempt struct {
	AttemptNumber      int
	OriginalRequest    string
	TransformedRequest string
	Strategy           Strategy
	FailureType        FailureType // empty on success
	ErrorMessage       string
	Success            bool
	CreatedAt          time.Time
}

// #endregion retry-attempt

// #region retry-result

// RetryResult is the outcome of executing one logical generation request.
// On exhaustion the caller substitutes a placeholder artifact; the full
// failure history lets it decide how.
type RetryResult struct {
	Success      bool
	Result       string // artifact reference on success
	Attempts     int
	TotalTime    time.Duration
	FailureTypes []FailureType
	FinalRequest string
	History      []RetryAttempt
}

// #endregion retry-result

// #region optimization-result

// OptimizationResult describes one pass of the prompt optimizer.
type OptimizationResult struct {
	OriginalRequest    string
	OptimizedRequest   string
	Level              Strategy
	OriginalLength     int
	OptimizedLength    int
	RemovedElements    []string
	SuccessProbability float64
}

// ValidationResult is the safety validator's verdict on a request.
type ValidationResult struct {
	IsSafe bool
	Issues []string
}

// #endregion optimization-result

// #region generate-func

// GenerateFunc invokes the external generation backend with a request prompt
// and returns an artifact reference, or an error carrying a human-readable
// message used for failure classification.
type GenerateFunc func(ctx context.Context, request string) (string, error)

// #endregion generate-func
