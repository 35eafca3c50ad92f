// Package classifier submits classification requests to the external
// reasoning service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ascod-toast-classifier/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// GeminiClient calls the Gemini generateContent endpoint
type GeminiClient struct {
	baseURL    string
	model      string
	apiKey     string
	generation generationConfig
	httpClient *http.Client
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a client. All settings are fixed for the lifetime
// of the client.
func NewGeminiClient(config domain.ClassifierConfig) *GeminiClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	gen := generationConfig{
		Temperature:     config.Temperature,
		TopK:            config.TopK,
		TopP:            config.TopP,
		MaxOutputTokens: config.MaxOutputTokens,
	}
	if config.JSONResponse {
		gen.ResponseMimeType = "application/json"
	}

	return &GeminiClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		apiKey:     config.APIKey,
		generation: gen,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Classify sends the prompt and returns the concatenated candidate text
// unmodified. Every failure is a *domain.RequestFailedError.
func (c *GeminiClient) Classify(ctx context.Context, req domain.ClassificationRequest) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: req.Prompt()}},
		}},
		GenerationConfig: c.generation,
	})
	if err != nil {
		return "", domain.NewRequestFailedError(fmt.Errorf("failed to encode request: %w", err), 0)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewRequestFailedError(fmt.Errorf("failed to create request: %w", err), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.NewRequestFailedError(err, 0)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewRequestFailedError(fmt.Errorf("failed to read response: %w", err), resp.StatusCode)
	}

	var parsed generateResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", domain.NewRequestFailedError(fmt.Errorf("classifier returned %s: %s", resp.Status, truncate(msg, 300)), resp.StatusCode)
	}
	if decodeErr != nil {
		return "", domain.NewRequestFailedError(fmt.Errorf("failed to parse response envelope: %w", decodeErr), resp.StatusCode)
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", domain.NewRequestFailedError(fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason), resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		return "", domain.NewRequestFailedError(errors.New("response contains no candidates"), resp.StatusCode)
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", domain.NewRequestFailedError(
			fmt.Errorf("candidate has no text (finish reason %q)", parsed.Candidates[0].FinishReason), resp.StatusCode)
	}
	return text.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
