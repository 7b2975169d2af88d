package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// FallbackService implements provider routing with fallback:
// Gemini first (better quality), Ollama when Gemini is unavailable.
// Malformed output is returned as is; only availability failures move on
// to the next provider.
type FallbackService struct {
	gemini Extractor
	ollama Extractor
}

// NewFallbackService creates a routing extractor. Either provider may be nil.
func NewFallbackService(gemini, ollama Extractor) *FallbackService {
	return &FallbackService{gemini: gemini, ollama: ollama}
}

type namedExtractor struct {
	name string
	Extractor
}

func (f *FallbackService) chain() []namedExtractor {
	var out []namedExtractor
	if f.gemini != nil {
		out = append(out, namedExtractor{"Gemini", f.gemini})
	}
	if f.ollama != nil {
		out = append(out, namedExtractor{"Ollama", f.ollama})
	}
	return out
}

// ExtractItem implements Extractor
func (f *FallbackService) ExtractItem(ctx context.Context, text string, now time.Time) (*ItemCandidate, error) {
	var lastErr error = ErrNotConfigured
	for _, p := range f.chain() {
		result, err := p.ExtractItem(ctx, text, now)
		if err == nil {
			log.Debug().Str("provider", p.name).Msg("[AI] capture extraction successful")
			return result, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		log.Warn().Err(err).Str("provider", p.name).Msgf("[AI] %s %s for capture, trying next provider", p.name, describe(err))
		lastErr = err
	}
	return nil, lastErr
}

// ExtractEdit implements Extractor
func (f *FallbackService) ExtractEdit(ctx context.Context, req EditRequest, now time.Time) (map[string]interface{}, error) {
	var lastErr error = ErrNotConfigured
	for _, p := range f.chain() {
		result, err := p.ExtractEdit(ctx, req, now)
		if err == nil {
			log.Debug().Str("provider", p.name).Msg("[AI] edit extraction successful")
			return result, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		log.Warn().Err(err).Str("provider", p.name).Msgf("[AI] %s %s for edit, trying next provider", p.name, describe(err))
		lastErr = err
	}
	return nil, lastErr
}
