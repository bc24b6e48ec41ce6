package retrieval

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DirProvider serves snippets from a directory of markdown/text documents.
// Documents are split on blank-line paragraph boundaries; scoring is naive
// term overlap.
type DirProvider struct {
	fs   afero.Fs
	root string
}

// NewDirProvider creates a provider over the given filesystem root.
func NewDirProvider(fs afero.Fs, root string) *DirProvider {
	return &DirProvider{fs: fs, root: root}
}

// Search implements Provider.
func (p *DirProvider) Search(ctx context.Context, query string, topN int) ([]Snippet, error) {
	var candidates []Snippet

	entries, err := afero.ReadDir(p.fs, p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := afero.ReadFile(p.fs, filepath.Join(p.root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		for _, para := range splitParagraphs(string(data)) {
			candidates = append(candidates, Snippet{Source: entry.Name(), Text: para})
		}
	}

	return rankSnippets(query, candidates, topN), nil
}

// splitParagraphs splits text on blank lines, dropping short fragments.
func splitParagraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	paras := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 20 {
			paras = append(paras, p)
		}
	}
	return paras
}
