package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Spec declares the CoinGecko configuration surface. The public API works
// without a key; a demo key raises rate limits when present, so no field
// is required and the policy is fail-soft.
func Spec() config.Spec {
	return config.Spec{
		Provider: "coingecko",
		Policy:   config.FailSoft,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "COINGECKO_API_KEY"},
			{Key: "base_url", EnvVar: "COINGECKO_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const getPriceSchema = `{
  "type": "object",
  "properties": {
    "ids": {"type": "string", "minLength": 1},
    "vs_currencies": {"type": "string", "default": "usd"}
  },
  "required": ["ids"]
}`

const marketChartSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "vs_currency": {"type": "string", "default": "usd"},
    "days": {"type": "integer", "minimum": 1, "maximum": 365, "default": 7}
  },
  "required": ["id"]
}`

// Provider wires the CoinGecko market-data API.
type Provider struct{}

func (Provider) Name() string { return "coingecko" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "coingecko.get_price",
			Description: "Get current prices for one or more coins from CoinGecko. " +
				"ids is a comma-separated list of coin IDs (e.g. \"bitcoin,ethereum\"), " +
				"vs_currencies a comma-separated list of quote currencies (default usd).",
			Schema: json.RawMessage(getPriceSchema),
			Func:   getPrice(store, client),
		}),
		actions.New(actions.Descriptor{
			Name: "coingecko.get_market_chart",
			Description: "Get a price summary for a coin over the last N days from CoinGecko: " +
				"first, last, minimum, and maximum price in the window.",
			Schema: json.RawMessage(marketChartSchema),
			Func:   getMarketChart(store, client),
		}),
	}
}

func keyHeader(cfg *config.Resolved) (string, string) {
	if k := cfg.Value("api_key"); k != "" {
		return "x-cg-demo-api-key", k
	}
	return "", ""
}

func getPrice(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		ids := actions.StringParam(args, "ids", "")
		vsCurrencies := actions.StringParam(args, "vs_currencies", "usd")

		q := url.Values{}
		q.Set("ids", ids)
		q.Set("vs_currencies", vsCurrencies)

		out := map[string]map[string]float64{}
		header, value := keyHeader(cfg)
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "coingecko",
			URL:          cfg.Value("base_url") + "/simple/price",
			Query:        q,
			APIKeyHeader: header,
			APIKeyValue:  value,
		}, &out)
		if err != nil {
			return "", err
		}
		if len(out) == 0 {
			return fmt.Sprintf("No prices found for %q. Check the coin IDs.", ids), nil
		}

		coins := make([]string, 0, len(out))
		for coin := range out {
			coins = append(coins, coin)
		}
		sort.Strings(coins)

		var b strings.Builder
		for _, coin := range coins {
			quotes := out[coin]
			currencies := make([]string, 0, len(quotes))
			for cur := range quotes {
				currencies = append(currencies, cur)
			}
			sort.Strings(currencies)
			fmt.Fprintf(&b, "%s:", coin)
			for _, cur := range currencies {
				fmt.Fprintf(&b, " %g %s", quotes[cur], strings.ToUpper(cur))
			}
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}

func getMarketChart(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		id := actions.StringParam(args, "id", "")
		vsCurrency := actions.StringParam(args, "vs_currency", "usd")
		days := actions.IntParam(args, "days", 7)

		q := url.Values{}
		q.Set("vs_currency", vsCurrency)
		q.Set("days", fmt.Sprintf("%d", days))

		var out struct {
			Prices [][2]float64 `json:"prices"`
		}
		header, value := keyHeader(cfg)
		err = client.DoJSON(ctx, httpx.Request{
			Provider:     "coingecko",
			URL:          cfg.Value("base_url") + "/coins/" + url.PathEscape(id) + "/market_chart",
			Query:        q,
			APIKeyHeader: header,
			APIKeyValue:  value,
		}, &out)
		if err != nil {
			return "", err
		}
		if len(out.Prices) == 0 {
			return "", schema.NewErrorf(schema.ErrCodeProvider, "no price data for %q", id).WithProvider("coingecko")
		}

		first := out.Prices[0][1]
		last := out.Prices[len(out.Prices)-1][1]
		min, max := first, first
		for _, p := range out.Prices {
			if p[1] < min {
				min = p[1]
			}
			if p[1] > max {
				max = p[1]
			}
		}
		change := 0.0
		if first != 0 {
			change = (last - first) / first * 100
		}

		cur := strings.ToUpper(vsCurrency)
		var b strings.Builder
		fmt.Fprintf(&b, "%s over the last %d day(s) in %s:\n", id, days, cur)
		fmt.Fprintf(&b, "Start: %g, End: %g (%+.2f%%)\n", first, last, change)
		fmt.Fprintf(&b, "Low: %g, High: %g", min, max)
		return b.String(), nil
	}
}
