package orchestrator

// #region imports
import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// #endregion

// #region substitutions

// substitution rewrites one risky term to a safer equivalent. Matching is
// whole-word, case-insensitive, and tolerates a plural s, so "soldiers"
// rewrites while "toward" survives a "war" rule.
type substitution struct {
	from string
	to   string
}

// substitutions holds the per-level term tables. Applying level n always
// applies the tables of levels 1..n first (cumulative).
var substitutions = map[Strategy][]substitution{
	StrategyMinorAdjustment: {
		{"weapon", "equipment"},
		{"gun", "device"},
		{"attack", "advance"},
		{"fight", "contest"},
		{"destroy", "transform"},
		{"explosion", "burst of light"},
		{"blood", "crimson"},
		{"kill", "overcome"},
	},
	StrategyModerateChange: {
		{"soldier", "individual"},
		{"combat", "engagement"},
		{"battle", "confrontation"},
		{"war", "struggle"},
		{"army", "group"},
		{"military", "uniformed"},
		{"enemy", "opponent"},
		{"violence", "intensity"},
		{"death", "stillness"},
	},
	StrategyAbstractVersion: {
		{"engagement", "dynamic scene"},
		{"confrontation", "meeting of forces"},
		{"struggle", "tension"},
		{"individual", "figure"},
		{"opponent", "counterpart"},
		{"injury", "mark"},
		{"wound", "mark"},
	},
	StrategyMetaphorical: {
		{"tension", "a gathering storm"},
		{"meeting of forces", "a dance of opposing currents"},
		{"dynamic scene", "swirling movement"},
		{"figure", "silhouette"},
	},
}

type compiledSub struct {
	re *regexp.Regexp
	to string
}

var compiledSubs = compileSubstitutions()

func compileSubstitutions() map[Strategy][]compiledSub {
	out := make(map[Strategy][]compiledSub, len(substitutions))
	for lvl, subs := range substitutions {
		compiled := make([]compiledSub, len(subs))
		for i, s := range subs {
			compiled[i] = compiledSub{
				re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s.from) + `s?\b`),
				to: s.to,
			}
		}
		out[lvl] = compiled
	}
	return out
}

// #endregion substitutions

// #region themes

// themeMoods map detected thematic keywords in the original request to the
// mood phrase used by the artistic synthesis at the top level.
var themeMoods = []struct {
	keywords []string
	mood     string
}{
	{[]string{"combat", "battle", "war", "conflict", "fight", "struggle", "engagement", "confrontation", "storm"}, "tension and resolution"},
	{[]string{"love", "heart", "family", "together", "friend"}, "tenderness and connection"},
	{[]string{"journey", "travel", "road", "voyage", "path"}, "movement through open space"},
	{[]string{"loss", "alone", "night", "dark", "sorrow"}, "shadow giving way to light"},
}

const artisticPrefix = "Abstract artistic composition:"

// #endregion themes

// #region transformer-struct

const maxPatterns = 64

// Transformer rewrites generation requests at escalating abstraction levels
// and keeps bounded per-instance lists of learned patterns. The pattern
// lists exist for reporting and telemetry only; they never alter future
// runs and are not persisted across runs.
type Transformer struct {
	mu          sync.Mutex
	successful  []string
	blocked     []string
	maxPatterns int
}

// NewTransformer creates a transformer with empty pattern memory.
func NewTransformer() *Transformer {
	return &Transformer{maxPatterns: maxPatterns}
}

// #endregion transformer-struct

// #region rephrase

// Rephrase applies all substitution tables up to level. At
// StrategyArtisticOnly the request is replaced wholesale by a short
// synthesized artistic description; that output is a fixed point, so
// rephrasing it again at any level is a no-op.
func (t *Transformer) Rephrase(request string, level Strategy) string {
	level = level.Clamp()
	if strings.HasPrefix(request, artisticPrefix) {
		return request
	}
	if level == StrategyArtisticOnly {
		return synthesizeArtistic(request)
	}

	out := request
	for lvl := StrategyMinorAdjustment; lvl <= level; lvl++ {
		for _, sub := range compiledSubs[lvl] {
			out = sub.re.ReplaceAllString(out, sub.to)
		}
	}
	return strings.Join(strings.Fields(out), " ")
}

// synthesizeArtistic builds a purely abstract description from the emotional
// and thematic keywords detected in the original request.
func synthesizeArtistic(request string) string {
	lower := strings.ToLower(request)
	mood := "light and shadow in motion"
detect:
	for _, theme := range themeMoods {
		for _, kw := range theme.keywords {
			if strings.Contains(lower, kw) {
				mood = theme.mood
				break detect
			}
		}
	}
	return fmt.Sprintf("%s flowing color and %s, soft cinematic light", artisticPrefix, mood)
}

// #endregion rephrase

// #region pattern-memory

// RecordSuccess appends an accepted request to the bounded success list.
func (t *Transformer) RecordSuccess(request string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successful = appendBounded(t.successful, request, t.maxPatterns)
}

// RecordBlocked appends denylist terms found in a safety-rejected request.
func (t *Transformer) RecordBlocked(terms []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, term := range terms {
		t.blocked = appendBounded(t.blocked, term, t.maxPatterns)
	}
}

// SuccessfulPatterns returns a copy of the accepted-request list.
func (t *Transformer) SuccessfulPatterns() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.successful...)
}

// BlockedPatterns returns a copy of the blocked-term list.
func (t *Transformer) BlockedPatterns() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.blocked...)
}

func appendBounded(list []string, v string, limit int) []string {
	list = append(list, v)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

// #endregion pattern-memory
