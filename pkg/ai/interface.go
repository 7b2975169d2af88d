package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable covers every way a provider can fail to answer:
	// not configured, unreachable, rate limited, or a non-2xx response.
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrMalformed means the provider answered with output that does not parse
	ErrMalformed = errors.New("ai provider returned malformed output")
	// ErrNotConfigured is returned when no provider is set up at all
	ErrNotConfigured = fmt.Errorf("%w: no provider configured", ErrUnavailable)
)

// ItemCandidate is the raw structured output of a capture extraction.
// Nothing in it is trusted until the caller validates it.
type ItemCandidate struct {
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Urgency         string   `json:"urgency"`
	DueDate         string   `json:"due_date"`
	PeopleMentioned []string `json:"people_mentioned"`
	Location        string   `json:"location"`
}

// EditRequest is sent for a conversational edit
type EditRequest struct {
	ItemID      string      `json:"item_id"`
	Instruction string      `json:"instruction"`
	CurrentItem interface{} `json:"current_item"`
}

// Extractor turns free text into structured item data.
// Implement this interface to add new AI providers.
type Extractor interface {
	// ExtractItem classifies a capture. now anchors relative dates.
	ExtractItem(ctx context.Context, text string, now time.Time) (*ItemCandidate, error)
	// ExtractEdit returns the sparse field update implied by an instruction
	ExtractEdit(ctx context.Context, req EditRequest, now time.Time) (map[string]interface{}, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
	ProviderNone   ProviderType = "none"
)
