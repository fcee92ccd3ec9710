package orchestrator

// #region imports
import "strings"

// #endregion

// #region rule-table

// classifierRule maps error-text keywords to a failure type. Rules are
// checked in order; the first matching keyword wins, so safety vocabulary
// outranks the generic transport vocabulary further down.
type classifierRule struct {
	failure  FailureType
	keywords []string
}

var classifierRules = []classifierRule{
	{FailureSafetyBlock, []string{
		"safety", "policy", "blocked", "violat", "inappropriate",
		"harmful", "content filter", "prohibited", "sensitive content",
		"refused", "rejected by",
	}},
	{FailureTimeout, []string{
		"timeout", "timed out", "deadline exceeded", "took too long",
	}},
	{FailureQuotaExceeded, []string{
		"quota", "rate limit", "too many requests", "resource exhausted", "429",
	}},
	{FailureInvalidPrompt, []string{
		"invalid prompt", "invalid request", "malformed", "bad request",
		"unsupported", "400",
	}},
	{FailureAPIError, []string{
		"connection", "unavailable", "internal error", "server error",
		"network", "service", "500", "502", "503", "api error", "api call",
	}},
}

// #endregion rule-table

// #region classify

// Classify assigns a failure type to a backend error message via keyword
// heuristics. Best effort, not exhaustive; unmatched text maps to
// FailureUnknown.
func Classify(errText string) FailureType {
	lower := strings.ToLower(errText)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.failure
			}
		}
	}
	return FailureUnknown
}

// #endregion classify
