package providers

import (
	"github.com/toolpack-ai/toolpack/internal/actions"
	"github.com/toolpack-ai/toolpack/internal/config"
	"github.com/toolpack-ai/toolpack/internal/httpx"
	"github.com/toolpack-ai/toolpack/internal/providers/browseruse"
	"github.com/toolpack-ai/toolpack/internal/providers/coingecko"
	"github.com/toolpack-ai/toolpack/internal/providers/elevenlabs"
	"github.com/toolpack-ai/toolpack/internal/providers/ethereum"
	"github.com/toolpack-ai/toolpack/internal/providers/exa"
	"github.com/toolpack-ai/toolpack/internal/providers/heygen"
	"github.com/toolpack-ai/toolpack/internal/providers/hyperbolic"
	"github.com/toolpack-ai/toolpack/internal/providers/perplexity"
)

// Set is one provider's action factory. Actions builds the provider's
// fixed action list; credential resolution happens lazily inside each
// action's invoke, so a catalog can be assembled without any credentials
// configured.
type Set interface {
	Name() string
	Actions(store *config.Store, client *httpx.Client) []actions.Action
}

// All returns every built-in provider set in catalog order.
func All() []Set {
	return []Set{
		heygen.Provider{},
		elevenlabs.Provider{},
		browseruse.Provider{},
		perplexity.Provider{},
		exa.Provider{},
		hyperbolic.Provider{},
		ethereum.Provider{},
		coingecko.Provider{},
	}
}

// BuildCatalog concatenates every provider's action list into one flat
// catalog. No name-collision check is performed; duplicates are kept.
func BuildCatalog(store *config.Store, client *httpx.Client) *actions.Catalog {
	catalog := actions.NewCatalog()
	for _, set := range All() {
		catalog.Add(set.Actions(store, client)...)
	}
	return catalog
}
