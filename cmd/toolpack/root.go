package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/internal/logging"
	"github.com/toolpack-ai/toolpack/internal/providers"
	"github.com/toolpack-ai/toolpack/internal/validation"
	"github.com/toolpack-ai/toolpack/pkg/mcp"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0" ./cmd/toolpack/
var version = "dev"

// runtime bundles everything a subcommand needs.
type runtime struct {
	cfg       Config
	logger    *slog.Logger
	store     *config.Store
	catalog   *actions.Catalog
	validator *validation.InputValidator
}

func buildRuntime() *runtime {
	cfg := loadConfig()

	logger := slog.New(logging.NewCorrelationHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}),
	))

	store := config.NewStore(config.WithShared(cfg.Credentials))
	client := httpx.NewClient(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		catalog:   providers.BuildCatalog(store, client),
		validator: validation.NewInputValidator(),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "toolpack",
		Short:   "Expose third-party provider APIs as agent tools",
		Version: version,
		Long: "Toolpack bundles third-party provider APIs (video generation, speech synthesis,\n" +
			"browser automation, web search, GPU rental, blockchain queries, market data)\n" +
			"into a single tool catalog, served over MCP or invoked directly.",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newListCmd(), newInvokeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the action catalog as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := buildRuntime()
			srv := mcp.NewServer(mcp.ServerDeps{
				Catalog:   rt.catalog,
				Validator: rt.validator,
				Logger:    rt.logger,
			})
			rt.logger.Info("serving MCP over stdio", slog.Int("actions", rt.catalog.Len()))
			return srv.Serve(cmd.Context())
		},
	}
}

func newListCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every action in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := buildRuntime()
			for _, a := range rt.catalog.All() {
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n", a.Name(), actions.TruncateDescription(a.Description()))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), a.Name())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include action descriptions")
	return cmd
}

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <action> [json-args]",
		Short: "Invoke one action and print its result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := buildRuntime()

			action := rt.catalog.Find(args[0])
			if action == nil {
				return fmt.Errorf("unknown action %q (run \"toolpack list\")", args[0])
			}

			var input map[string]any
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
					return fmt.Errorf("arguments must be a JSON object: %w", err)
				}
			}

			adapter := actions.NewAdapter(action, rt.validator, rt.logger)
			ctx := logging.WithProvider(cmd.Context(), providerOf(action.Name()))
			fmt.Fprintln(cmd.OutOrStdout(), adapter.Invoke(ctx, input))
			return nil
		},
	}
}

// providerOf extracts the provider segment of a namespaced action name
// like "exa.search".
func providerOf(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
