// Package analyze scores report content for credibility: a generative
// analysis provider first, a deterministic heuristic floor last, so the chain
// always yields a structurally valid result.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/enrich"
)

const defaultModel = "gemini-2.0-flash"

// Input is one content-analysis request. MediaURL is optional.
type Input struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
}

// GeminiClient scores content through the Google Generative Language API.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewGeminiClient creates a generative analysis client. An empty API key
// yields a client that fails fast with enrich.ErrNotConfigured.
func NewGeminiClient(apiKey string, timeout time.Duration, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey: apiKey,
		model:  defaultModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://generativelanguage.googleapis.com",
		logger:  logger,
	}
}

// Analyze asks the model for a structured credibility judgment.
func (c *GeminiClient) Analyze(ctx context.Context, in Input) (domain.AnalysisResult, error) {
	if c.apiKey == "" {
		return domain.AnalysisResult{}, enrich.ErrNotConfigured
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(in)}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(payload)))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("generative analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.AnalysisResult{}, fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("empty model response")
	}

	result, err := parseJudgment(genResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		// The provider answered but not in the expected shape; surface it as
		// an ordinary provider failure so the chain falls through.
		return domain.AnalysisResult{}, fmt.Errorf("malformed model judgment: %w", err)
	}
	result.Provider = "gemini"
	return result, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Assess the credibility of this disaster report. Respond with only a JSON object ")
	b.WriteString(`{"score": 0-100, "notes": "...", "flags": ["..."]}.` + "\n\nReport: ")
	b.WriteString(in.Text)
	if in.MediaURL != "" {
		b.WriteString("\nAttached media: ")
		b.WriteString(in.MediaURL)
	}
	return b.String()
}

// parseJudgment extracts the JSON object from the model's text, tolerating
// markdown fences around it.
func parseJudgment(text string) (domain.AnalysisResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.AnalysisResult{}, fmt.Errorf("no JSON object in %q", text)
	}

	var judgment struct {
		Score int      `json:"score"`
		Notes string   `json:"notes"`
		Flags []string `json:"flags"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &judgment); err != nil {
		return domain.AnalysisResult{}, err
	}
	if judgment.Score < 0 || judgment.Score > 100 {
		return domain.AnalysisResult{}, fmt.Errorf("score %d out of range", judgment.Score)
	}

	return domain.AnalysisResult{
		Score:           judgment.Score,
		ConfidenceLevel: domain.ConfidenceForScore(judgment.Score),
		Notes:           judgment.Notes,
		Flags:           judgment.Flags,
	}, nil
}

// Generative Language API request/response types.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
