package exa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

func testStore(t *testing.T, baseURL string) *config.Store {
	t.Helper()
	store := config.NewStore(config.WithEnv(func(string) string { return "" }))
	_, err := store.Get(Spec(), map[string]string{"api_key": "test-key", "base_url": baseURL})
	require.NoError(t, err)
	return store
}

func findAction(t *testing.T, store *config.Store, client *httpx.Client, name string) func(context.Context, map[string]any) (string, error) {
	t.Helper()
	for _, a := range (Provider{}).Actions(store, client) {
		if a.Name() == name {
			return a.Invoke
		}
	}
	t.Fatalf("action %q not found", name)
	return nil
}

func TestSearch_FormatsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		assert.Equal(t, "golang concurrency", body["query"])
		assert.Equal(t, float64(5), body["numResults"])

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Go Concurrency Patterns", "url": "https://go.dev/talks", "publishedDate": "2023-01-15", "text": "Concurrency is not parallelism."},
				{"title": "Effective Go", "url": "https://go.dev/doc/effective_go", "text": strings.Repeat("goroutines ", 60)},
			},
		})
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "exa.search")

	out, err := invoke(context.Background(), map[string]any{"query": "golang concurrency", "num_results": 5})
	require.NoError(t, err)

	assert.Contains(t, out, "2 results")
	assert.Contains(t, out, "Go Concurrency Patterns")
	assert.Contains(t, out, "https://go.dev/talks")
	assert.Contains(t, out, "Published: 2023-01-15")
	// Long text gets cut into a snippet.
	assert.Contains(t, out, "...")
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "exa.search")

	out, err := invoke(context.Background(), map[string]any{"query": "nothing"})
	require.NoError(t, err)
	assert.Contains(t, out, "no results")
}

func TestSearch_MissingCredentialFailsFast(t *testing.T) {
	store := config.NewStore(config.WithEnv(func(string) string { return "" }))
	invoke := findAction(t, store, httpx.NewClient(0), "exa.search")

	_, err := invoke(context.Background(), map[string]any{"query": "anything"})
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeConfiguration, terr.Code)
	assert.Contains(t, terr.Message, "EXA_API_KEY")
}

func TestFindSimilar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/findSimilar", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Similar Page", "url": "https://similar.test"},
			},
		})
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "exa.find_similar")

	out, err := invoke(context.Background(), map[string]any{"url": "https://original.test"})
	require.NoError(t, err)
	assert.Contains(t, out, "Similar Page")
	assert.Contains(t, out, "https://original.test")
}

func TestSearch_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	store := testStore(t, srv.URL)
	invoke := findAction(t, store, httpx.NewClient(0), "exa.search")

	_, err := invoke(context.Background(), map[string]any{"query": "q"})
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeProvider, terr.Code)
	assert.Contains(t, terr.Message, "429")
}
