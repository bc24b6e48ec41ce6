package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const maxPageSize = 5 * 1024 * 1024 // 5MB

// WebProvider serves snippets from a configured documentation page. The page
// is fetched on demand, converted from HTML to markdown and split into
// paragraphs; results are cached for the TTL.
type WebProvider struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration

	mu        sync.Mutex
	cached    []Snippet
	fetchedAt time.Time
}

// NewWebProvider creates a provider over one documentation URL.
func NewWebProvider(url string, ttl time.Duration) *WebProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &WebProvider{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ttl:        ttl,
	}
}

// Search implements Provider.
func (p *WebProvider) Search(ctx context.Context, query string, topN int) ([]Snippet, error) {
	candidates, err := p.paragraphs(ctx)
	if err != nil {
		return nil, err
	}
	return rankSnippets(query, candidates, topN), nil
}

func (p *WebProvider) paragraphs(ctx context.Context) ([]Snippet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.fetchedAt) < p.ttl {
		return p.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "deskpilot/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch docs page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docs page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read docs page: %w", err)
	}

	content := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		content, err = htmlToMarkdown(content)
		if err != nil {
			return nil, err
		}
	}

	candidates := []Snippet{}
	for _, para := range splitParagraphs(content) {
		candidates = append(candidates, Snippet{Source: p.url, Text: para})
	}

	p.cached = candidates
	p.fetchedAt = time.Now()
	return candidates, nil
}

// htmlToMarkdown strips script/style tags and converts the remainder.
func htmlToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return markdown, nil
}
