package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docsPage = `<html><head><style>body{color:red}</style></head><body>
<script>trackPageView()</script>
<h1>Runbook</h1>
<p>To restart the indexer, run the restart-indexer job from the operations dashboard.</p>
<p>The indexer checkpoints its progress every five minutes during normal operation.</p>
</body></html>`

func TestWebProvider(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(docsPage))
	}))
	defer srv.Close()

	p := NewWebProvider(srv.URL, time.Minute)

	got, err := p.Search(context.Background(), "restart the indexer", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].Text, "restart-indexer")

	// Script and style bodies never become snippets.
	for _, s := range got {
		assert.NotContains(t, s.Text, "trackPageView")
		assert.NotContains(t, s.Text, "color:red")
	}

	// A second search inside the TTL serves from cache.
	_, err = p.Search(context.Background(), "checkpoints", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

func TestWebProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	p := NewWebProvider(srv.URL, time.Minute)
	_, err := p.Search(context.Background(), "anything", 3)
	assert.Error(t, err)
}
