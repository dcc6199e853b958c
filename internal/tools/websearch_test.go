package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example.com">Annonce</a>
  <a class="result__snippet">Køb nu</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.dr.dk%2Fnyheder&amp;rut=abc"> DR Nyheder </a></h2>
  <a class="result__snippet">Seneste nyt fra DR.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://da.wikipedia.org/wiki/Danmark">Danmark - Wikipedia</a></h2>
  <a class="result__snippet">Danmark er et land i Skandinavien.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://example.org/3">Tredje</a></h2>
</div>
</body></html>`

func TestWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nyheder danmark", r.URL.Query().Get("q"))
		fmt.Fprint(w, ddgPage)
	}))
	defer srv.Close()

	s := &WebSearch{HTTP: srv.Client(), Endpoint: srv.URL, MaxResults: 2}
	results, err := s.Search(context.Background(), "nyheder danmark")
	require.NoError(t, err)
	assert.Equal(t, []SearchResult{
		{Title: "DR Nyheder", Href: "https://www.dr.dk/nyheder", Body: "Seneste nyt fra DR."},
		{Title: "Danmark - Wikipedia", Href: "https://da.wikipedia.org/wiki/Danmark", Body: "Danmark er et land i Skandinavien."},
	}, results)

	r, err := NewRegistry(s.Spec())
	require.NoError(t, err)
	res, _, err := r.Call(context.Background(), State{}, "search_web", json.RawMessage(`{"keywords":"nyheder danmark"}`))
	require.NoError(t, err)
	var decoded []SearchResult
	require.NoError(t, json.Unmarshal([]byte(res.Message), &decoded))
	assert.Len(t, decoded, 2)
}

func TestWebSearchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r, err := NewRegistry((&WebSearch{HTTP: srv.Client(), Endpoint: srv.URL}).Spec())
	require.NoError(t, err)
	res, _, err := r.Call(context.Background(), State{}, "search_web", json.RawMessage(`{"keywords":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, searchFallback, res.Message)
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://a.dk/x", resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.dk%2Fx"))
	assert.Equal(t, "https://b.dk", resolveRedirect("https://b.dk"))
	assert.Equal(t, "https://c.dk/p", resolveRedirect("//c.dk/p"))
}
