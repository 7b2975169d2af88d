package ai

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama3"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama", "auto" or "none"

	// Gemini config
	GeminiAPIKey string
	GeminiModel  string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"; empty disables Ollama in auto mode
	OllamaModel   string // e.g., "llama3", "mistral"
}

// RuntimeSettings holds the Ollama settings that can be changed while the
// server runs. One value is owned by the server and shared with the
// extractor it built.
type RuntimeSettings struct {
	mu            sync.RWMutex
	ollamaBaseURL string
	ollamaModel   string
}

// NewRuntimeSettings seeds runtime settings from static config
func NewRuntimeSettings(baseURL, model string) *RuntimeSettings {
	if model == "" {
		model = DefaultOllamaModel
	}
	return &RuntimeSettings{ollamaBaseURL: baseURL, ollamaModel: model}
}

// OllamaBaseURL returns the current Ollama endpoint
func (s *RuntimeSettings) OllamaBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaBaseURL
}

// OllamaModel returns the current Ollama model
func (s *RuntimeSettings) OllamaModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaModel
}

// Update replaces the endpoint and, when non-empty, the model
func (s *RuntimeSettings) Update(baseURL, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ollamaBaseURL = baseURL
	if model != "" {
		s.ollamaModel = model
	}
}

// unconfigured answers every call with ErrNotConfigured so callers take
// their no-AI path.
type unconfigured struct{}

func (unconfigured) ExtractItem(context.Context, string, time.Time) (*ItemCandidate, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) ExtractEdit(context.Context, EditRequest, time.Time) (map[string]interface{}, error) {
	return nil, ErrNotConfigured
}

// NewExtractor creates an Extractor based on the config.
// This is the factory function: switch AI provider by changing cfg.Provider.
// Ollama reads its endpoint and model from settings on every call.
func NewExtractor(cfg Config, settings *RuntimeSettings) (Extractor, error) {
	if settings == nil {
		settings = NewRuntimeSettings(cfg.OllamaBaseURL, cfg.OllamaModel)
	}
	ollama := func() *OllamaService {
		return NewOllamaServiceWithGetters(settings.OllamaBaseURL, settings.OllamaModel)
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel), nil

	case ProviderOllama:
		if settings.OllamaBaseURL() == "" {
			settings.Update(DefaultOllamaBaseURL, "")
		}
		return ollama(), nil

	case ProviderNone:
		return unconfigured{}, nil

	default:
		// Ollama stays in the chain even without an endpoint so that one set
		// at runtime is picked up without a restart.
		var gemini Extractor
		if cfg.GeminiAPIKey != "" {
			gemini = NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
		}
		return NewFallbackService(gemini, ollama()), nil
	}
}
