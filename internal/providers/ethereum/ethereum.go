package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/pkg/schema"
)

// Spec declares the Ethereum configuration surface. The RPC endpoint is
// the credential here (it usually embeds a provider API key), so the
// provider is fail-fast: nothing works without it.
func Spec() config.Spec {
	return config.Spec{
		Provider: "ethereum",
		Policy:   config.FailFast,
		Fields: []config.Field{
			{Key: "rpc_url", EnvVar: "ETH_RPC_URL", Required: true},
		},
	}
}

const getBalanceSchema = `{
  "type": "object",
  "properties": {
    "address": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"}
  },
  "required": ["address"]
}`

const getTransactionSchema = `{
  "type": "object",
  "properties": {
    "hash": {"type": "string", "pattern": "^0x[0-9a-fA-F]{64}$"}
  },
  "required": ["hash"]
}`

const emptySchema = `{"type": "object", "properties": {}}`

// Provider wires read-only Ethereum JSON-RPC calls.
type Provider struct{}

func (Provider) Name() string { return "ethereum" }

func (Provider) Actions(store *config.Store, client *httpx.Client) []actions.Action {
	return []actions.Action{
		actions.New(actions.Descriptor{
			Name:        "ethereum.get_balance",
			Description: "Get the ETH balance of an address (0x-prefixed, 40 hex chars). Returns the balance in ether.",
			Schema:      json.RawMessage(getBalanceSchema),
			Func:        getBalance(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "ethereum.get_block_number",
			Description: "Get the latest Ethereum block number.",
			Schema:      json.RawMessage(emptySchema),
			Func:        getBlockNumber(store, client),
		}),
		actions.New(actions.Descriptor{
			Name:        "ethereum.get_transaction",
			Description: "Look up an Ethereum transaction by hash. Returns sender, recipient, value, and block.",
			Schema:      json.RawMessage(getTransactionSchema),
			Func:        getTransaction(store, client),
		}),
	}
}

// rpcCall issues one JSON-RPC 2.0 request and decodes the result field.
func rpcCall(ctx context.Context, client *httpx.Client, rpcURL, method string, params []any, result any) error {
	var out struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	err := client.DoJSON(ctx, httpx.Request{
		Provider: "ethereum",
		Method:   "POST",
		URL:      rpcURL,
		Body: map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  method,
			"params":  params,
		},
	}, &out)
	if err != nil {
		return err
	}
	if out.Error != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "RPC error %d: %s", out.Error.Code, out.Error.Message).
			WithProvider("ethereum")
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(out.Result, result); err != nil {
		return schema.NewErrorf(schema.ErrCodeProvider, "failed to decode RPC result: %v", err).
			WithProvider("ethereum").WithCause(err)
	}
	return nil
}

// parseHexBig parses a 0x-prefixed hex quantity.
func parseHexBig(hex string) (*big.Int, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hex, "0x"), 16); !ok {
		return nil, schema.NewErrorf(schema.ErrCodeProvider, "malformed hex quantity %q", hex).WithProvider("ethereum")
	}
	return n, nil
}

// weiToEther renders a wei amount as a decimal ether string.
func weiToEther(wei *big.Int) string {
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	return f.Text('f', 6)
}

func getBalance(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		address := actions.StringParam(args, "address", "")
		var hexBalance string
		if err := rpcCall(ctx, client, cfg.Value("rpc_url"), "eth_getBalance", []any{address, "latest"}, &hexBalance); err != nil {
			return "", err
		}
		wei, err := parseHexBig(hexBalance)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Balance of %s: %s ETH", address, weiToEther(wei)), nil
	}
}

func getBlockNumber(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, _ map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		var hexNumber string
		if err := rpcCall(ctx, client, cfg.Value("rpc_url"), "eth_blockNumber", []any{}, &hexNumber); err != nil {
			return "", err
		}
		n, err := parseHexBig(hexNumber)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Latest block number: %s", n.String()), nil
	}
}

func getTransaction(store *config.Store, client *httpx.Client) actions.InvokeFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		cfg, err := store.Get(Spec(), nil)
		if err != nil {
			return "", err
		}

		hash := actions.StringParam(args, "hash", "")
		var tx *struct {
			From        string `json:"from"`
			To          string `json:"to"`
			Value       string `json:"value"`
			BlockNumber string `json:"blockNumber"`
		}
		if err := rpcCall(ctx, client, cfg.Value("rpc_url"), "eth_getTransactionByHash", []any{hash}, &tx); err != nil {
			return "", err
		}
		if tx == nil {
			return fmt.Sprintf("Transaction %s not found.", hash), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Transaction %s\n", hash)
		fmt.Fprintf(&b, "From: %s\n", tx.From)
		if tx.To != "" {
			fmt.Fprintf(&b, "To: %s\n", tx.To)
		} else {
			b.WriteString("To: (contract creation)\n")
		}
		if wei, err := parseHexBig(tx.Value); err == nil {
			fmt.Fprintf(&b, "Value: %s ETH\n", weiToEther(wei))
		}
		if tx.BlockNumber == "" {
			b.WriteString("Status: pending")
		} else if n, err := parseHexBig(tx.BlockNumber); err == nil {
			fmt.Fprintf(&b, "Block: %s", n.String())
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
}
