package chroma

import (
	"context"
	"fmt"
	"os"
	"strings"

	"lifeos-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	"github.com/rs/zerolog/log"
)

// CollectionName holds one document per item
const CollectionName = "items"

// maxDocumentLength bounds the embedded text; embedding models have token limits
const maxDocumentLength = 10000

// Document is the searchable projection of an item
type Document struct {
	ItemID      string
	UserID      string
	Type        string
	Title       string
	Description string
	Notes       string
	Category    string
	People      []string
}

// Text renders the document body that gets embedded
func (d Document) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nType: %s", d.Title, d.Type)
	if d.Category != "" {
		fmt.Fprintf(&b, "\nCategory: %s", d.Category)
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", d.Description)
	}
	if d.Notes != "" {
		fmt.Fprintf(&b, "\n\nNotes: %s", d.Notes)
	}
	if len(d.People) > 0 {
		fmt.Fprintf(&b, "\nPeople: %s", strings.Join(d.People, ", "))
	}
	text := b.String()
	if len(text) > maxDocumentLength {
		text = text[:maxDocumentLength]
	}
	return text
}

// Match is one semantic search hit; lower distance is closer
type Match struct {
	ItemID   string
	Distance float64
}

type ChromaClient struct {
	client     chroma.Client
	collection chroma.Collection
}

func NewChromaClient(ctx context.Context, cfg *config.Config) (*ChromaClient, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}
	if cfg.GeminiApiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for embeddings")
	}

	// The embedding function reads its key from the environment
	os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	opts := []chroma.ClientOption{
		chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
		chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
	}
	switch {
	case cfg.ChromaDatabase != "" && cfg.ChromaTenant != "":
		opts = append(opts, chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant))
	case cfg.ChromaTenant != "":
		opts = append(opts, chroma.WithTenant(cfg.ChromaTenant))
	}

	client, err := chroma.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, CollectionName, chroma.WithEmbeddingFunctionCreate(embedFunc))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", CollectionName).Msg("[Chroma] Client initialized")

	return &ChromaClient{client: client, collection: collection}, nil
}

// Upsert adds or replaces the document for an item
func (c *ChromaClient) Upsert(ctx context.Context, doc Document) error {
	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"user_id": doc.UserID,
		"item_id": doc.ItemID,
		"type":    doc.Type,
		"title":   doc.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(doc.ItemID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(doc.Text()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item embedding: %w", err)
	}
	return nil
}

// Search returns the closest items owned by userID
func (c *ChromaClient) Search(ctx context.Context, userID, query string, limit int) ([]Match, error) {
	results, err := c.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(chroma.EqString("user_id", userID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []Match{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		m := Match{ItemID: string(id)}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			m.Distance = float64(distanceGroups[0][i])
		}
		matches = append(matches, m)
	}

	log.Debug().Str("user_id", userID).Int("hits", len(matches)).Msg("[Chroma] Semantic search")
	return matches, nil
}

// Delete removes an item's document
func (c *ChromaClient) Delete(ctx context.Context, itemID string) error {
	if err := c.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(itemID))); err != nil {
		return fmt.Errorf("failed to delete item embedding: %w", err)
	}
	return nil
}
