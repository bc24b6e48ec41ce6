package retrieval

import (
	"context"
	"sort"
)

// MultiProvider fans a query out to several providers and merges their
// snippets. A failing provider is skipped rather than failing the search; an
// error is only returned when every provider fails.
type MultiProvider struct {
	providers []Provider
}

// NewMultiProvider creates a provider over the given providers.
func NewMultiProvider(providers ...Provider) *MultiProvider {
	return &MultiProvider{providers: providers}
}

// Search implements Provider.
func (p *MultiProvider) Search(ctx context.Context, query string, topN int) ([]Snippet, error) {
	var merged []Snippet
	var lastErr error
	failures := 0

	for _, provider := range p.providers {
		snippets, err := provider.Search(ctx, query, topN)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		merged = append(merged, snippets...)
	}

	if failures == len(p.providers) && lastErr != nil {
		return nil, lastErr
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if topN > 0 && len(merged) > topN {
		merged = merged[:topN]
	}
	return merged, nil
}
