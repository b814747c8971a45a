package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"omrscan/internal/config"
	"omrscan/internal/port"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client implements port.VisionModel using Google's Gemini API.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient creates a Gemini-backed vision model client.
func NewClient(cfg *config.VisionConfig) *Client {
	return newClient(cfg, "")
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.VisionConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.VisionConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Generate sends one prompt plus one inline image and returns the model's raw
// text. Transport failures, missing configuration, and non-200 responses wrap
// port.ErrVisionUnavailable so callers can classify them without knowing the
// provider.
func (c *Client) Generate(ctx context.Context, prompt string, image []byte, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: no API key configured", port.ErrVisionUnavailable)
	}

	mimeType, err := toGeminiMimeType(contentType)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(image)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": 8192,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling gemini API: %v", port.ErrVisionUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: gemini API error (status %d): %s",
			port.ErrVisionUnavailable, resp.StatusCode, truncate(string(respBody), 300))
	}

	return extractText(respBody)
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return "image/jpeg", nil
	case "image/png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func extractText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from API: no candidates")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API: no parts")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
