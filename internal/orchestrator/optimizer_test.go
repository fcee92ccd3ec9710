package orchestrator

import (
	"strings"
	"testing"
)

func TestOptimizeDropsBlockedTokens(t *testing.T) {
	o := NewOptimizer()

	res := o.Optimize("a soldier with a gun at dawn", StrategyMinorAdjustment)
	out := strings.ToLower(res.OptimizedRequest)
	if strings.Contains(out, "soldier") || strings.Contains(out, "gun") {
		t.Fatalf("blocked terms must be stripped: %q", res.OptimizedRequest)
	}
	if len(res.RemovedElements) == 0 {
		t.Fatal("removed elements should list the stripped terms")
	}
	if res.OriginalLength != len("a soldier with a gun at dawn") {
		t.Fatalf("unexpected original length %d", res.OriginalLength)
	}
}

func TestOptimizeRespectsBudgets(t *testing.T) {
	o := NewOptimizer()
	long := strings.Repeat("gentle waves rolling over a quiet shore ", 40)

	for lvl, budget := range maxLengths {
		res := o.Optimize(long, lvl)
		if res.OptimizedLength > budget {
			t.Errorf("level %s: length %d exceeds budget %d", lvl, res.OptimizedLength, budget)
		}
		if res.OptimizedLength != len(res.OptimizedRequest) {
			t.Errorf("level %s: length field out of sync", lvl)
		}
	}
}

func TestOptimizeModerateStripsAsidesAndDates(t *testing.T) {
	o := NewOptimizer()
	in := `a parade (very loud) held in 2003 with "historic flags" on 12/05/2003`

	res := o.Optimize(in, StrategyModerateChange)
	out := res.OptimizedRequest
	if strings.Contains(out, "(") || strings.Contains(out, "very loud") {
		t.Fatalf("parentheticals should be removed: %q", out)
	}
	if strings.Contains(out, "historic flags") {
		t.Fatalf("quoted asides should be removed: %q", out)
	}
	if strings.Contains(out, "2003") {
		t.Fatalf("dates should be removed: %q", out)
	}

	// Minor keeps them.
	res = o.Optimize(in, StrategyMinorAdjustment)
	if !strings.Contains(res.OptimizedRequest, "very loud") {
		t.Fatalf("minor level should keep asides: %q", res.OptimizedRequest)
	}
}

func TestOptimizeAbstractDropsOversizedTokens(t *testing.T) {
	o := NewOptimizer()
	in := "scenic view https://example.com/a/very/long/path/to/asset.mp4 at sunset"

	res := o.Optimize(in, StrategyAbstractVersion)
	if strings.Contains(res.OptimizedRequest, "https://") {
		t.Fatalf("oversized tokens should be dropped: %q", res.OptimizedRequest)
	}

	res = o.Optimize(in, StrategyModerateChange)
	if !strings.Contains(res.OptimizedRequest, "https://") {
		t.Fatalf("moderate level should keep long tokens: %q", res.OptimizedRequest)
	}
}

func TestOptimizeMetaphoricalKeepsLeadingClauses(t *testing.T) {
	o := NewOptimizer()
	in := "first clause, second clause, third clause, fourth clause, fifth clause"

	res := o.Optimize(in, StrategyMetaphorical)
	if strings.Contains(res.OptimizedRequest, "fourth") || strings.Contains(res.OptimizedRequest, "fifth") {
		t.Fatalf("only the first three clauses should survive: %q", res.OptimizedRequest)
	}
	if !strings.Contains(res.OptimizedRequest, "third clause") {
		t.Fatalf("third clause should survive: %q", res.OptimizedRequest)
	}
}

func TestOptimizeArtisticFallsBackToTemplate(t *testing.T) {
	o := NewOptimizer()

	// Everything is blocked, nothing survives.
	res := o.Optimize("war battle blood gore", StrategyArtisticOnly)
	if res.OptimizedRequest != minimalTemplate {
		t.Fatalf("expected minimal template, got %q", res.OptimizedRequest)
	}
}

func TestOptimizedOutputValidatesAtModerateAndAbove(t *testing.T) {
	o := NewOptimizer()
	inputs := []string{
		"a soldier with a gun in a battle (graphic) from 1944",
		strings.Repeat("war and violence everywhere ", 60),
		`"explosions" and combat on 03/15/2022`,
	}
	levels := []Strategy{StrategyModerateChange, StrategyAbstractVersion, StrategyMetaphorical, StrategyArtisticOnly}

	for _, in := range inputs {
		for _, lvl := range levels {
			res := o.Optimize(in, lvl)
			if v := o.Validate(res.OptimizedRequest); !v.IsSafe {
				t.Errorf("level %s: optimized output still unsafe: %v (%q)", lvl, v.Issues, res.OptimizedRequest)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	o := NewOptimizer()

	if v := o.Validate("a gentle landscape at dusk"); !v.IsSafe {
		t.Fatalf("clean prompt flagged: %v", v.Issues)
	}

	v := o.Validate("a war scene")
	if v.IsSafe {
		t.Fatal("blocked term should fail validation")
	}
	if len(v.Issues) != 1 || !strings.Contains(v.Issues[0], "war") {
		t.Fatalf("unexpected issues: %v", v.Issues)
	}

	if v := o.Validate("celebration in 1999"); v.IsSafe {
		t.Fatal("explicit date should fail validation")
	}

	if v := o.Validate(strings.Repeat("x", maxPromptLength+1)); v.IsSafe {
		t.Fatal("overlong prompt should fail validation")
	}
}

func TestSuccessProbability(t *testing.T) {
	if p := successProbability("war blood kill death violence gore", 800); p != 0.1 {
		t.Fatalf("heavy denylist hits should floor at 0.1, got %.2f", p)
	}
	base := successProbability("a plain description", 800)
	boosted := successProbability("abstract artistic cinematic gentle description", 800)
	if boosted <= base {
		t.Fatalf("safe keywords should raise probability: %.2f vs %.2f", boosted, base)
	}
	if boosted > base+0.3 {
		t.Fatalf("keyword bonus should cap at 0.3: %.2f vs %.2f", boosted, base)
	}
	if p := successProbability(strings.Repeat("x", 900), 800); p < 0.29 || p > 0.31 {
		t.Fatalf("over-budget penalty expected near 0.3, got %.2f", p)
	}
}

func TestDenylistHits(t *testing.T) {
	hits := denylistHits("a War scene with BLOOD")
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %v", hits)
	}
	if hits := denylistHits("a peaceful meadow"); len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hits)
	}
}
