package chroma

import (
	"context"
	"strings"
	"testing"

	"lifeos-backend/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestDocumentText(t *testing.T) {
	doc := Document{
		Type:        "idea",
		Title:       "Read Dune",
		Category:    "Ideas",
		Description: "Recommended by Sam",
		People:      []string{"Sam", "Alex"},
	}
	text := doc.Text()
	assert.Contains(t, text, "Title: Read Dune")
	assert.Contains(t, text, "Category: Ideas")
	assert.Contains(t, text, "Recommended by Sam")
	assert.Contains(t, text, "People: Sam, Alex")
	assert.NotContains(t, text, "Notes:")

	long := Document{Title: "x", Notes: strings.Repeat("n", 2*maxDocumentLength)}
	assert.Len(t, long.Text(), maxDocumentLength)
}

func TestNewChromaClient_RequiresKeys(t *testing.T) {
	_, err := NewChromaClient(context.Background(), &config.Config{})
	assert.ErrorContains(t, err, "CHROMA_API_KEY")

	_, err = NewChromaClient(context.Background(), &config.Config{ChromaAPIKey: "k"})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}
