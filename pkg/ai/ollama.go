package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaService implements Extractor using an Ollama local LLM
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
	client     *http.Client
}

// NewOllamaService creates a new Ollama service with fixed settings
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return NewOllamaServiceWithGetters(
		func() string { return baseURL },
		func() string { return model },
	)
}

// NewOllamaServiceWithGetters creates an Ollama service whose endpoint and
// model are read on every call, so runtime settings changes apply at once.
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// ExtractItem implements Extractor
func (o *OllamaService) ExtractItem(ctx context.Context, text string, now time.Time) (*ItemCandidate, error) {
	out, err := o.generate(ctx, buildCapturePrompt(text, now), 500)
	if err != nil {
		return nil, err
	}
	return decodeCandidate(out)
}

// ExtractEdit implements Extractor
func (o *OllamaService) ExtractEdit(ctx context.Context, req EditRequest, now time.Time) (map[string]interface{}, error) {
	prompt, err := buildEditPrompt(req, now)
	if err != nil {
		return nil, err
	}
	out, err := o.generate(ctx, prompt, 300)
	if err != nil {
		return nil, err
	}
	return decodeEditSet(out)
}

func (o *OllamaService) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	baseURL := o.getBaseURL()
	if baseURL == "" {
		return "", fmt.Errorf("%w: ollama base URL is not set", ErrUnavailable)
	}
	url := baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": maxTokens,
		},
	}

	respBody, err := postJSON(ctx, o.client, "ollama", url, payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse ollama response: %v", ErrMalformed, err)
	}
	return result.Response, nil
}

// Ping checks that an Ollama server answers on baseURL
func Ping(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apiError{Provider: "ollama", StatusCode: resp.StatusCode}
	}
	return nil
}
