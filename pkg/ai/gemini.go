package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiService implements Extractor over the Gemini generateContent REST API
type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiService creates a Gemini extractor. An empty model uses gemini-2.5-flash.
func NewGeminiService(apiKey, model string) *GeminiService {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiService{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the service at another endpoint
func (g *GeminiService) WithBaseURL(baseURL string) *GeminiService {
	g.baseURL = baseURL
	return g
}

// ExtractItem implements Extractor
func (g *GeminiService) ExtractItem(ctx context.Context, text string, now time.Time) (*ItemCandidate, error) {
	out, err := g.generateJSON(ctx, buildCapturePrompt(text, now))
	if err != nil {
		return nil, err
	}
	return decodeCandidate(out)
}

// ExtractEdit implements Extractor
func (g *GeminiService) ExtractEdit(ctx context.Context, req EditRequest, now time.Time) (map[string]interface{}, error) {
	prompt, err := buildEditPrompt(req, now)
	if err != nil {
		return nil, err
	}
	out, err := g.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return decodeEditSet(out)
}

// generateJSON asks for a JSON-only response and returns the first candidate's text
func (g *GeminiService) generateJSON(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrUnavailable)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0.2,
		},
	}

	respBody, err := postJSON(ctx, g.client, "gemini", url, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse gemini response: %v", ErrMalformed, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrMalformed)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
