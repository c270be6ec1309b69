package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/toolpack-ai/toolpack/pkg/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultMaxResponseBody = 10 * 1024 * 1024 // 10MB
	defaultTimeout         = 30 * time.Second

	// errorBodyLimit caps how much of a provider error payload is copied
	// into an error message.
	errorBodyLimit = 2048
)

// Client is the shared JSON HTTP client behind every provider action.
// Auth, response-size limiting, and non-2xx normalization live here so the
// per-provider glue stays small.
type Client struct {
	http            *http.Client
	maxResponseBody int64
}

// NewClient creates a Client with the given per-request timeout.
// A zero timeout takes the 30s default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:            &http.Client{Timeout: timeout},
		maxResponseBody: defaultMaxResponseBody,
	}
}

// Request describes one provider API call.
type Request struct {
	Provider string // error attribution
	Method   string
	URL      string
	Query    url.Values
	Headers  map[string]string
	Body     any // JSON-encoded when non-nil

	// Auth: bearer token or a named API-key header, matching the two
	// schemes the wrapped providers use.
	BearerToken  string
	APIKeyHeader string
	APIKeyValue  string
}

// DoJSON executes the request and decodes a JSON response into out
// (ignored when out is nil). Non-2xx statuses become PROVIDER_ERROR with
// the status and provider error payload in the message.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeProvider, "failed to marshal request body").
				WithProvider(req.Provider).WithCause(err)
		}
		bodyReader = bytes.NewReader(b)
	}

	rawURL := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "failed to create request").
			WithProvider(req.Provider).WithCause(err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	if req.APIKeyHeader != "" {
		httpReq.Header.Set(req.APIKeyHeader, req.APIKeyValue)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "request failed: %v", err).
			WithProvider(req.Provider).WithCause(err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.maxResponseBody)
	bodyBytes, err := io.ReadAll(limited)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "failed to read response body").
			WithProvider(req.Provider).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return schema.NewErrorf(schema.ErrCodeProvider, "API returned %d: %s",
			resp.StatusCode, truncateBody(bodyBytes)).
			WithProvider(req.Provider).
			WithDetails(map[string]any{"status_code": resp.StatusCode})
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "failed to decode response: %v", err).
			WithProvider(req.Provider).WithCause(err)
	}
	return nil
}

// DoBytes executes the request and returns the raw response body, for
// provider endpoints that answer with binary content (audio, images).
// Non-2xx statuses are normalized the same way as DoJSON.
func (c *Client) DoBytes(ctx context.Context, req Request) ([]byte, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeProvider, "failed to marshal request body").
				WithProvider(req.Provider).WithCause(err)
		}
		bodyReader = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeProvider, "failed to create request").
			WithProvider(req.Provider).WithCause(err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	if req.APIKeyHeader != "" {
		httpReq.Header.Set(req.APIKeyHeader, req.APIKeyValue)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeProvider, "request failed: %v", err).
			WithProvider(req.Provider).WithCause(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBody))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeProvider, "failed to read response body").
			WithProvider(req.Provider).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, schema.NewErrorf(schema.ErrCodeProvider, "API returned %d: %s",
			resp.StatusCode, truncateBody(bodyBytes)).
			WithProvider(req.Provider).
			WithDetails(map[string]any{"status_code": resp.StatusCode})
	}
	return bodyBytes, nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorBodyLimit {
		s = s[:errorBodyLimit] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
