package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"lifeos-backend/internal/item/domain"
	"lifeos-backend/pkg/fuzzy"

	"github.com/rs/zerolog/log"
)

const defaultSearchLimit = 20

func (u *itemUsecase) Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	items, err := u.List(ctx, userID, domain.Filter{})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0)
	for _, item := range items {
		f := fuzzy.Fields{
			Title:       item.Title,
			Description: item.Description,
			Notes:       item.Notes,
			People:      item.PeopleMentioned,
		}
		if !fuzzy.Match(query, f) {
			continue
		}
		results = append(results, SearchResult{Item: item, Score: fuzzy.Score(query, f)})
	}

	// Stable: equal scores keep newest-first repository order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (u *itemUsecase) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if u.vectors == nil {
		return nil, fmt.Errorf("%w: semantic search is not configured", domain.ErrExtractionUnavailable)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matches, err := u.vectors.Search(ctx, userID, query, limit)
	if err != nil {
		log.Warn().Err(err).Msg("[Search] Semantic search failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		item, err := u.Get(ctx, userID, m.ItemID)
		if err != nil {
			// The index can lag behind deletes
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, SearchResult{Item: item, Score: 1 - m.Distance})
	}
	return results, nil
}
