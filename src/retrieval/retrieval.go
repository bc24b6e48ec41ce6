// Package retrieval defines the context-retrieval collaborator contract and
// two providers: a local knowledge-base directory and a fetched web page.
// The orchestration core only consumes the top-N scored snippets; chunking
// and embedding internals live behind the Provider interface.
package retrieval

import (
	"context"
	"sort"
	"strings"
)

// Snippet is one scored text fragment.
type Snippet struct {
	Source string
	Text   string
	Score  float64
}

// Provider returns zero or more scored snippets for a query.
type Provider interface {
	Search(ctx context.Context, query string, topN int) ([]Snippet, error)
}

// rankSnippets scores candidates by naive term overlap and returns the top N
// in descending score order, dropping zero-score candidates.
func rankSnippets(query string, candidates []Snippet, topN int) []Snippet {
	terms := queryTerms(query)

	scored := make([]Snippet, 0, len(candidates))
	for _, c := range candidates {
		c.Score = overlapScore(terms, c.Text)
		if c.Score > 0 {
			scored = append(scored, c)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'()")
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func overlapScore(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lowered := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lowered, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
