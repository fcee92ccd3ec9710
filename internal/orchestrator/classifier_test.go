package orchestrator

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		errText string
		want    FailureType
	}{
		{"request blocked by safety policy", FailureSafetyBlock},
		{"content violates usage guidelines", FailureSafetyBlock},
		{"prompt rejected by content filter", FailureSafetyBlock},
		{"generation refused: sensitive content", FailureSafetyBlock},
		{"context deadline exceeded", FailureTimeout},
		{"request timed out after 120s", FailureTimeout},
		{"quota exceeded for project", FailureQuotaExceeded},
		{"429 too many requests", FailureQuotaExceeded},
		{"resource exhausted", FailureQuotaExceeded},
		{"invalid prompt: empty text", FailureInvalidPrompt},
		{"400 bad request", FailureInvalidPrompt},
		{"unsupported aspect ratio", FailureInvalidPrompt},
		{"internal error, please retry", FailureAPIError},
		{"connection reset by peer", FailureAPIError},
		{"503 service unavailable", FailureAPIError},
		{"api error while generating", FailureAPIError},
		{"something completely different happened", FailureUnknown},
		{"rapid scene changes not rendered", FailureUnknown},
		{"capital letters rejected silently", FailureUnknown},
		{"", FailureUnknown},
	}

	for _, tc := range cases {
		if got := Classify(tc.errText); got != tc.want {
			t.Errorf("Classify(%q) = %s, expected %s", tc.errText, got, tc.want)
		}
	}
}

func TestClassifySafetyOutranksTransport(t *testing.T) {
	// Messages mentioning both safety and transport vocabulary classify as
	// safety so escalation still happens.
	got := Classify("api error: blocked by safety system")
	if got != FailureSafetyBlock {
		t.Fatalf("expected safety_block, got %s", got)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("QUOTA EXCEEDED"); got != FailureQuotaExceeded {
		t.Fatalf("expected quota_exceeded, got %s", got)
	}
}
