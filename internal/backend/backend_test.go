package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateSuccess(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos:generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" {
			t.Error("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"artifact":{"url":"https://cdn.example/v.mp4","format":"mp4","duration_secs":30}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	art, err := c.Generate(context.Background(), Request{Prompt: "a calm lake", Style: "cinematic", DurationSecs: 30, AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if art.URL != "https://cdn.example/v.mp4" {
		t.Fatalf("unexpected artifact %+v", art)
	}
	if gotReq.Prompt != "a calm lake" || gotReq.AspectRatio != "16:9" {
		t.Fatalf("request body mismatch: %+v", gotReq)
	}
}

func TestGeneratePropagatesPolicyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"prompt blocked by content policy"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	_, err := c.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	// The service's own wording must survive for failure classification.
	if !strings.Contains(err.Error(), "blocked by content policy") {
		t.Fatalf("policy message lost: %v", err)
	}
}

func TestGenerateNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	_, err := c.Generate(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "upstream unavailable") {
		t.Fatalf("expected status and body in error: %v", err)
	}
}

func TestGenerateMissingArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{BaseURL: srv.URL, APIKey: "k", HTTPClient: srv.Client()})
	if _, err := c.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error for empty artifact")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(Options{BaseURL: "http://x"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
