package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar"
)

// Spec declares the Perplexity configuration surface (fail-soft).
func Spec() config.Spec {
	return config.Spec{
		Provider: "perplexity",
		Policy:   config.FailSoft,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "PERPLEXITY_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "PERPLEXITY_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const searchSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "model": {"type": "string"}
  },
  "required": ["query"]
}`

// Provider wires the Perplexity web-grounded answer API.
type Provider struct{}

func (Provider) Name() string { return "perplexity" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "perplexity.search",
			Description: "Ask Perplexity a question and get a web-grounded answer with source citations. " +
				"Good for current events and facts that need up-to-date sources.",
			Schema: json.RawMessage(searchSchema),
			Func:   search(store, client),
		}),
	}
}

func search(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}
		if cfg.Value("api_key") == "" {
			return "", schema.NewConfigurationError("perplexity", "Perplexity API key", "PERPLEXITY_API_KEY")
		}

		query := actions.StringParam(args, "query", "")
		model := actions.StringParam(args, "model", defaultModel)

		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Citations []string `json:"citations"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider: "perplexity",
			Method:   "POST",
			URL:      cfg.Value("base_url") + "/chat/completions",
			Body: map[string]any{
				"model": model,
				"messages": []map[string]any{
					{"role": "user", "content": query},
				},
			},
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}
		if len(out.Choices) == 0 {
			return "", schema.NewError(schema.ErrCodeProvider, "response carried no choices").WithProvider("perplexity")
		}

		var b strings.Builder
		b.WriteString(out.Choices[0].Message.Content)
		if len(out.Citations) > 0 {
			b.WriteString("\n\nSources:\n")
			for i, c := range out.Citations {
				fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
			}
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
