package oracle

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// #endregion

// #region options

const defaultTimeout = 30 * time.Second

// Options configure the oracle HTTP client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// #endregion options

// #region wire-types

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// scorePayload is the JSON shape the rubric prompt asks the oracle to emit.
type scorePayload struct {
	Score        float64            `json:"score"`
	QualityLevel string             `json:"quality_level"`
	Issues       []string           `json:"issues"`
	Suggestions  []string           `json:"suggestions"`
	Metrics      map[string]float64 `json:"metrics"`
}

// #endregion wire-types

// #region client-struct

// Client talks to a generateContent-style evaluation endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewClient builds an oracle client. The API key is required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("oracle api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// #endregion client-struct

// #region score

// Score sends a rubric prompt and parses the JSON verdict. Any transport or
// parse failure is returned as an error; callers substitute a fallback score
// rather than failing the run.
func (c *Client) Score(ctx context.Context, rubric string) (StageScore, error) {
	payload := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: rubric}},
		}},
		GenerationConfig: &generationConfig{
			Temperature:      0.2,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return StageScore{}, fmt.Errorf("encode oracle request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return StageScore{}, fmt.Errorf("build oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return StageScore{}, fmt.Errorf("oracle request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return StageScore{}, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return StageScore{}, fmt.Errorf("decode oracle response: %w", err)
	}

	text := extractText(out)
	if text == "" {
		return StageScore{}, errors.New("oracle returned no text")
	}

	fragment := extractJSONFragment(text)
	if fragment == "" {
		return StageScore{}, errors.New("oracle response contains no JSON")
	}

	var parsed scorePayload
	if err := json.Unmarshal([]byte(fragment), &parsed); err != nil {
		return StageScore{}, fmt.Errorf("parse oracle verdict: %w", err)
	}

	return StageScore{
		Score:        clampScore(parsed.Score),
		QualityLevel: parsed.QualityLevel,
		Issues:       parsed.Issues,
		Suggestions:  parsed.Suggestions,
		Metrics:      parsed.Metrics,
		Source:       SourceParsed,
	}, nil
}

var _ Scorer = (*Client)(nil)

// #endregion score

// #region helpers

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

func extractText(resp generateResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text
			}
		}
	}
	return ""
}

// extractJSONFragment strips code fences and surrounding prose, leaving the
// first JSON object or array in the text.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// #endregion helpers
