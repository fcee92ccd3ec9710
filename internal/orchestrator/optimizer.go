package orchestrator

// #region imports
import (
	"fmt"
	"regexp"
	"strings"
)

// #endregion

// #region limits

// maxPromptLength is the hard ceiling the safety validator enforces
// regardless of level.
const maxPromptLength = 800

// oversizedTokenLen marks tokens long enough to be noise (URLs, ids) at the
// abstract levels.
const oversizedTokenLen = 24

// maxLengths is the per-level prompt budget. Higher levels get shorter
// prompts; shorter prompts carry less policy-rejection surface.
var maxLengths = map[Strategy]int{
	StrategyMinorAdjustment: 800,
	StrategyModerateChange:  500,
	StrategyAbstractVersion: 350,
	StrategyMetaphorical:    250,
	StrategyArtisticOnly:    150,
}

// #endregion limits

// #region vocab

// denylist holds single words whose presence fails safety validation. Kept to
// single words so that token-level stripping in Optimize guarantees a clean
// Validate afterwards.
var denylist = []string{
	"weapon", "gun", "knife", "bomb", "soldier", "combat", "war",
	"battle", "blood", "kill", "death", "violence", "gore", "terror",
	"attack", "explosion", "corpse", "murder", "hostage", "riot",
}

// safeKeywords raise the estimated acceptance probability when present.
var safeKeywords = []string{
	"artistic", "abstract", "cinematic", "peaceful", "gentle",
	"soft", "colorful", "landscape", "serene", "light",
}

var (
	parentheticalRE = regexp.MustCompile(`\([^)]*\)`)
	quotedAsideRE   = regexp.MustCompile(`"[^"]*"`)
	datePatternRE   = regexp.MustCompile(`\b(?:19|20)\d{2}\b|\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
)

// minimalTemplate replaces a prompt that collapses to nothing at the top
// level.
const minimalTemplate = "abstract artistic scene, soft cinematic light, gentle movement"

// #endregion vocab

// #region optimizer

// Optimizer strips risky content from generation requests and sizes them to
// the per-level budget. Stateless; safe for concurrent use.
type Optimizer struct{}

// NewOptimizer creates an optimizer.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize rewrites request for the given escalation level. Denylisted terms
// are always dropped at the token level; parenthetical and quoted asides plus
// explicit dates go at moderate and above; oversized tokens go at abstract
// and above; metaphorical keeps only the leading clauses; artistic falls back
// to the minimal template when nothing survives. Output always fits the
// level's budget.
func (o *Optimizer) Optimize(request string, level Strategy) OptimizationResult {
	level = level.Clamp()
	budget := maxLengths[level]

	var removed []string
	out := request

	out, dropped := stripDenylisted(out)
	removed = append(removed, dropped...)

	if level >= StrategyModerateChange {
		if parentheticalRE.MatchString(out) {
			removed = append(removed, "parenthetical asides")
		}
		out = parentheticalRE.ReplaceAllString(out, "")
		if quotedAsideRE.MatchString(out) {
			removed = append(removed, "quoted asides")
		}
		out = quotedAsideRE.ReplaceAllString(out, "")
		if datePatternRE.MatchString(out) {
			removed = append(removed, "dates")
		}
		out = datePatternRE.ReplaceAllString(out, "")
	}

	if level >= StrategyAbstractVersion {
		out = dropOversizedTokens(out, &removed)
	}

	if level >= StrategyMetaphorical {
		out = leadingClauses(out, 3)
	}

	out = strings.Join(strings.Fields(out), " ")

	if level == StrategyArtisticOnly && (out == "" || len(out) > budget) {
		out = minimalTemplate
		removed = append(removed, "original content replaced by minimal template")
	}

	if len(out) > budget {
		out = truncateWords(out, budget)
		removed = append(removed, fmt.Sprintf("content beyond %d chars", budget))
	}

	return OptimizationResult{
		OriginalRequest:    request,
		OptimizedRequest:   out,
		Level:              level,
		OriginalLength:     len(request),
		OptimizedLength:    len(out),
		RemovedElements:    removed,
		SuccessProbability: successProbability(out, budget),
	}
}

// #endregion optimizer

// #region validate

// Validate checks a request against the hard safety rules. It never mutates
// the request; callers re-optimize on failure.
func (o *Optimizer) Validate(request string) ValidationResult {
	var issues []string
	if len(request) > maxPromptLength {
		issues = append(issues, fmt.Sprintf("prompt length %d exceeds maximum %d", len(request), maxPromptLength))
	}
	lower := strings.ToLower(request)
	for _, term := range denylist {
		if strings.Contains(lower, term) {
			issues = append(issues, fmt.Sprintf("contains blocked term %q", term))
		}
	}
	if datePatternRE.MatchString(request) {
		issues = append(issues, "contains explicit date")
	}
	return ValidationResult{IsSafe: len(issues) == 0, Issues: issues}
}

// #endregion validate

// #region probability

// successProbability estimates acceptance odds from simple surface features.
// A heuristic for ranking candidate rewrites, not a calibrated probability.
func successProbability(request string, budget int) float64 {
	p := 0.5
	if len(request) > budget {
		p -= 0.2
	}
	lower := strings.ToLower(request)
	for _, term := range denylist {
		if strings.Contains(lower, term) {
			p -= 0.15
		}
	}
	bonus := 0.0
	for _, kw := range safeKeywords {
		if strings.Contains(lower, kw) {
			bonus += 0.1
		}
	}
	if bonus > 0.3 {
		bonus = 0.3
	}
	p += bonus
	if p < 0.1 {
		p = 0.1
	}
	if p > 1.0 {
		p = 1.0
	}
	return p
}

// #endregion probability

// #region helpers

// stripDenylisted drops any whitespace token containing a denylisted term.
// Dropping the whole token rather than the matched substring means the output
// can never fail the validator's substring check.
func stripDenylisted(request string) (string, []string) {
	var removed []string
	fields := strings.Fields(request)
	kept := fields[:0]
	for _, tok := range fields {
		lower := strings.ToLower(tok)
		hit := ""
		for _, term := range denylist {
			if strings.Contains(lower, term) {
				hit = term
				break
			}
		}
		if hit != "" {
			removed = append(removed, fmt.Sprintf("blocked term %q", hit))
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " "), removed
}

// denylistHits returns the denylisted terms present in request, for blocked
// pattern telemetry.
func denylistHits(request string) []string {
	lower := strings.ToLower(request)
	var hits []string
	for _, term := range denylist {
		if strings.Contains(lower, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

func dropOversizedTokens(request string, removed *[]string) string {
	fields := strings.Fields(request)
	kept := fields[:0]
	dropped := false
	for _, tok := range fields {
		if len(tok) > oversizedTokenLen {
			dropped = true
			continue
		}
		kept = append(kept, tok)
	}
	if dropped {
		*removed = append(*removed, "oversized tokens")
	}
	return strings.Join(kept, " ")
}

// leadingClauses keeps the first n comma-or-period separated clauses.
func leadingClauses(request string, n int) string {
	parts := strings.FieldsFunc(request, func(r rune) bool {
		return r == ',' || r == '.' || r == ';'
	})
	if len(parts) > n {
		parts = parts[:n]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// truncateWords cuts at the last word boundary that fits the budget.
func truncateWords(request string, budget int) string {
	if len(request) <= budget {
		return request
	}
	cut := request[:budget]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// #endregion helpers
