package backend

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #endregion

// #region types

// Request describes one generation job sent to the backend.
type Request struct {
	Prompt       string  `json:"prompt"`
	Style        string  `json:"style,omitempty"`
	DurationSecs float64 `json:"duration_secs,omitempty"`
	AspectRatio  string  `json:"aspect_ratio,omitempty"`
}

// ArtifactRef points at a generated artifact.
type ArtifactRef struct {
	URL          string  `json:"url"`
	Format       string  `json:"format,omitempty"`
	DurationSecs float64 `json:"duration_secs,omitempty"`
}

// Generator is the generation backend seen by the rest of the system.
type Generator interface {
	Generate(ctx context.Context, req Request) (ArtifactRef, error)
}

// #endregion types

// #region client

// Options configures the HTTP backend client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls a policy-gated generation service over HTTP. Error messages
// from the service are passed through verbatim so failure classification can
// see the service's own vocabulary.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient validates options and builds a client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("backend api key is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    hc,
	}, nil
}

var _ Generator = (*Client)(nil)

// #endregion client

// #region generate

type generateResponse struct {
	Artifact ArtifactRef `json:"artifact"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate submits a generation request and waits for the artifact.
func (c *Client) Generate(ctx context.Context, req Request) (ArtifactRef, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ArtifactRef{}, fmt.Errorf("marshal generate request: %w", err)
	}

	url := c.baseURL + "/v1/videos:generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ArtifactRef{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ArtifactRef{}, fmt.Errorf("generate call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ArtifactRef{}, fmt.Errorf("read generate response: %w", err)
	}

	var out generateResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if err := json.Unmarshal(data, &out); err == nil && out.Error.Message != "" {
			return ArtifactRef{}, fmt.Errorf("backend status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return ArtifactRef{}, fmt.Errorf("backend status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return ArtifactRef{}, fmt.Errorf("decode generate response: %w", err)
	}
	if out.Artifact.URL == "" {
		return ArtifactRef{}, fmt.Errorf("backend returned no artifact")
	}
	return out.Artifact, nil
}

// #endregion generate
