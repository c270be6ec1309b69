package exa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
)

const defaultBaseURL = "https://api.exa.ai"

// Spec declares the Exa configuration surface. Exa is fail-fast: config
// resolution itself errors when no API key can be found, and the error
// propagates through whichever action touched it first.
func Spec() config.Spec {
	return config.Spec{
		Provider: "exa",
		Policy:   config.FailFast,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "EXA_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "EXA_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const searchSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "num_results": {"type": "integer", "minimum": 1, "maximum": 100, "default": 10},
    "type": {"type": "string", "enum": ["auto", "neural", "keyword"], "default": "auto"}
  },
  "required": ["query"]
}`

const findSimilarSchema = `{
  "type": "object",
  "properties": {
    "url": {"type": "string", "format": "uri"},
    "num_results": {"type": "integer", "minimum": 1, "maximum": 100, "default": 10}
  },
  "required": ["url"]
}`

// snippetLimit caps how much page text each search hit contributes.
const snippetLimit = 250

// Provider wires the Exa semantic web-search API.
type Provider struct{}

func (Provider) Name() string { return "exa" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "exa.search",
			Description: "Search the web with Exa. Supports neural (semantic) and keyword search; " +
				"returns titles, URLs, publish dates, and text snippets.",
			Schema: json.RawMessage(searchSchema),
			Func:   search(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "exa.find_similar",
			Description: "Find pages similar to a given URL with Exa. Returns titles, URLs, and text snippets.",
			Schema:      json.RawMessage(findSimilarSchema),
			Func:        findSimilar(store, client),
		}),
	}
}

type searchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"publishedDate"`
	Text          string `json:"text"`
}

func search(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		query := actions.StringParam(args, "query", "")
		numResults := actions.IntParam(args, "num_results", 10)
		searchType := actions.StringParam(args, "type", "auto")

		var out struct {
			Results []searchResult `json:"results"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider: "exa",
			Method:   "POST",
			URL:      cfg.Value("base_url") + "/search",
			Body: map[string]any{
				"query":      query,
				"numResults": numResults,
				"type":       searchType,
				"contents":   map[string]any{"text": true},
			},
			APIKeyHeader: "x-api-key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		return formatResults(fmt.Sprintf("Search results for %q", query), out.Results), nil
	}
}

func findSimilar(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		url := actions.StringParam(args, "url", "")
		numResults := actions.IntParam(args, "num_results", 10)

		var out struct {
			Results []searchResult `json:"results"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider: "exa",
			Method:   "POST",
			URL:      cfg.Value("base_url") + "/findSimilar",
			Body: map[string]any{
				"url":        url,
				"numResults": numResults,
				"contents":   map[string]any{"text": true},
			},
			APIKeyHeader: "x-api-key",
			APIKeyValue:  cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		return formatResults(fmt.Sprintf("Pages similar to %s", url), out.Results), nil
	}
}

func formatResults(header string, results []searchResult) string {
	if len(results) == 0 {
		return header + ": no results."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d results):\n", header, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "   Published: %s\n", r.PublishedDate)
		}
		if snippet := makeSnippet(r.Text); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func makeSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > snippetLimit {
		return text[:snippetLimit] + "..."
	}
	return text
}
