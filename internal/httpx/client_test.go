package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolpack-ai/toolpack/pkg/schema"
)

func TestDoJSON_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"greeting": "hello"})
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(0).DoJSON(context.Background(), Request{Provider: "test", URL: srv.URL}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out["greeting"])
}

func TestDoJSON_POSTBody(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := NewClient(0).DoJSON(context.Background(), Request{
		Provider: "test",
		Method:   http.MethodPost,
		URL:      srv.URL,
		Body:     map[string]any{"text": "hi", "count": 3},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", received["text"])
	assert.Equal(t, float64(3), received["count"])
}

func TestDoJSON_BearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := NewClient(0).DoJSON(context.Background(), Request{
		Provider:    "test",
		URL:         srv.URL,
		BearerToken: "tok-123",
	}, nil)
	require.NoError(t, err)
}

func TestDoJSON_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xk-9", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := NewClient(0).DoJSON(context.Background(), Request{
		Provider:     "test",
		URL:          srv.URL,
		APIKeyHeader: "X-Api-Key",
		APIKeyValue:  "xk-9",
	}, nil)
	require.NoError(t, err)
}

func TestDoJSON_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	q := url.Values{}
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", "usd")
	err := NewClient(0).DoJSON(context.Background(), Request{Provider: "test", URL: srv.URL, Query: q}, nil)
	require.NoError(t, err)
}

func TestDoJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	err := NewClient(0).DoJSON(context.Background(), Request{Provider: "exa", URL: srv.URL}, nil)
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeProvider, terr.Code)
	assert.Equal(t, "exa", terr.Provider)
	assert.Contains(t, terr.Message, "401")
	assert.Contains(t, terr.Message, "invalid api key")
	assert.Equal(t, 401, terr.Details["status_code"])
}

func TestDoJSON_EmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(0).DoJSON(context.Background(), Request{Provider: "test", URL: srv.URL}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(empty body)")
}

func TestDoJSON_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(0).DoJSON(context.Background(), Request{Provider: "test", URL: srv.URL}, &out)
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeProvider, terr.Code)
}

func TestDoJSON_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewClient(0).DoJSON(ctx, Request{Provider: "test", URL: srv.URL}, nil)
	require.Error(t, err)

	var terr *schema.ToolError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, schema.ErrCodeProvider, terr.Code)
}
