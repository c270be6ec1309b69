package hyperbolic

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

const defaultBaseURL = "https://api.hyperbolic.xyz"

// Spec declares the Hyperbolic configuration surface (fail-fast).
func Spec() config.Spec {
	return config.Spec{
		Provider: "hyperbolic",
		Policy:   config.FailFast,
		Fields: []config.Field{
			{Key: "api_key", EnvVar: "HYPERBOLIC_API_KEY", Required: true},
			{Key: "base_url", EnvVar: "HYPERBOLIC_BASE_URL", Default: defaultBaseURL},
		},
	}
}

const emptySchema = `{"type": "object", "properties": {}}`

const rentSchema = `{
  "type": "object",
  "properties": {
    "cluster_name": {"type": "string"},
    "node_name": {"type": "string"},
    "gpu_count": {"type": "integer", "minimum": 1, "default": 1}
  },
  "required": ["cluster_name", "node_name"]
}`

const terminateSchema = `{
  "type": "object",
  "properties": {
    "instance_id": {"type": "string"}
  },
  "required": ["instance_id"]
}`

// Provider wires the Hyperbolic GPU-marketplace API.
type Provider struct{}

func (Provider) Name() string { return "hyperbolic" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name: "hyperbolic.list_gpus",
			Description: "List GPU machines available to rent on the Hyperbolic marketplace, " +
				"with cluster/node names, GPU models, availability, and hourly prices.",
			Schema: json.RawMessage(emptySchema),
			Func:   listGPUs(store, client),
		}),
		actions.New(actions.Descriptor{
			Name: "hyperbolic.rent_instance",
			Description: "Rent a GPU instance on Hyperbolic by cluster_name and node_name " +
				"(from hyperbolic.list_gpus), with an optional gpu_count.",
			Schema: json.RawMessage(rentSchema),
			Func:   rentInstance(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "hyperbolic.terminate_instance",
			Description: "Terminate a rented Hyperbolic GPU instance by instance_id.",
			Schema:      json.RawMessage(terminateSchema),
			Func:        terminateInstance(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "hyperbolic.get_balance",
			Description: "Get the current Hyperbolic account credit balance in USD.",
			Schema:      json.RawMessage(emptySchema),
			Func:        getBalance(store, client),
		}),
	}
}

func listGPUs(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		var out struct {
			Instances []struct {
				ClusterName string `json:"cluster_name"`
				ID          string `json:"id"`
				Hardware    struct {
					GPUs []struct {
						Model string `json:"model"`
					} `json:"gpus"`
				} `json:"hardware"`
				GPUsTotal    int `json:"gpus_total"`
				GPUsReserved int `json:"gpus_reserved"`
				Pricing      struct {
					Price struct {
						Amount float64 `json:"amount"`
					} `json:"price"`
				} `json:"pricing"`
			} `json:"instances"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:    "hyperbolic",
			Method:      "POST",
			URL:         cfg.Value("base_url") + "/v1/marketplace",
			Body:        map[string]any{"filters": map[string]any{}},
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		if len(out.Instances) == 0 {
			return "No GPU machines are currently listed on the marketplace.", nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Available GPU machines (%d):\n", len(out.Instances))
		for _, inst := range out.Instances {
			model := "unknown GPU"
			if len(inst.Hardware.GPUs) > 0 {
				model = inst.Hardware.GPUs[0].Model
			}
			available := inst.GPUsTotal - inst.GPUsReserved
			// Marketplace prices are cents per GPU-hour.
			fmt.Fprintf(&b, "- %s / %s: %s, %d/%d GPUs free, $%.2f/hr per GPU\n",
				inst.ClusterName, inst.ID, model, available, inst.GPUsTotal, inst.Pricing.Price.Amount/100)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}

func rentInstance(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		clusterName := actions.StringParam(args, "cluster_name", "")
		nodeName := actions.StringParam(args, "node_name", "")
		gpuCount := actions.IntParam(args, "gpu_count", 1)

		var out struct {
			Status   string `json:"status"`
			Instance struct {
				ID string `json:"id"`
			} `json:"instance"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider: "hyperbolic",
			Method:   "POST",
			URL:      cfg.Value("base_url") + "/v1/marketplace/instances/create",
			Body: map[string]any{
				"cluster_name": clusterName,
				"node_name":    nodeName,
				"gpu_count":    gpuCount,
			},
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		if out.Instance.ID != "" {
			return fmt.Sprintf("Rented %d GPU(s) on %s/%s.\nInstance ID: %s", gpuCount, clusterName, nodeName, out.Instance.ID), nil
		}
		return fmt.Sprintf("Rental request for %s/%s accepted (status: %s).", clusterName, nodeName, out.Status), nil
	}
}

func terminateInstance(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		instanceID := actions.StringParam(args, "instance_id", "")
		if instanceID == "" {
			return "", schema.NewError(schema.ErrCodeValidation, "instance_id is required").WithProvider("hyperbolic")
		}

		err = client.DoJSON(ctx, httpx.Request{
			Provider:    "hyperbolic",
			Method:      "POST",
			URL:         cfg.Value("base_url") + "/v1/marketplace/instances/terminate",
			Body:        map[string]any{"id": instanceID},
			BearerToken: cfg.Value("api_key"),
		}, nil)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Instance %s terminated.", instanceID), nil
	}
}

func getBalance(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		var out struct {
			Credits float64 `json:"credits"`
		}
		err = client.DoJSON(ctx, httpx.Request{
			Provider:    "hyperbolic",
			URL:         cfg.Value("base_url") + "/billing/get_current_balance",
			BearerToken: cfg.Value("api_key"),
		}, &out)
		if err != nil {
			return "", err
		}

		// Credits are reported in cents.
		return fmt.Sprintf("Current balance: $%.2f", out.Credits/100), nil
	}
}
