package config

import (
	"os"
	"sync"

	"github.com/toolpack-ai/toolpack/pkg/schema"
)

// Policy controls how a provider reacts to a missing required credential.
type Policy int

const (
	// FailSoft resolves to an empty value; the provider's action is
	// responsible for raising a ConfigurationError before any I/O. Used by
	// providers that make direct HTTP calls and want one consistent
	// "<provider> API key not found" message from the call site.
	FailSoft Policy = iota

	// FailFast raises a ConfigurationError the moment the config is
	// resolved with a required field empty.
	FailFast
)

// Field is one credential or connection parameter of a provider.
type Field struct {
	Key      string // lookup key, also the explicit-param name ("api_key")
	EnvVar   string // environment fallback ("EXA_API_KEY")
	Required bool   // enforced at resolution time under FailFast
	Default  string // applied when every other source is empty
}

// Spec declares a provider's configuration surface.
type Spec struct {
	Provider string
	Policy   Policy
	Fields   []Field
}

// Resolved is a provider's resolved configuration. Values are captured at
// first resolution and not re-read from the environment afterwards.
type Resolved struct {
	spec   Spec
	values map[string]string
}

// Value returns the resolved value for key, or "" if absent.
func (r *Resolved) Value(key string) string {
	return r.values[key]
}

// Require returns the resolved value for key, or a ConfigurationError
// naming the credential and its environment fallback if it is empty.
func (r *Resolved) Require(key string) (string, error) {
	if v := r.values[key]; v != "" {
		return v, nil
	}
	for _, f := range r.spec.Fields {
		if f.Key == key {
			return "", schema.NewConfigurationError(r.spec.Provider, r.spec.Provider+" "+key, f.EnvVar)
		}
	}
	return "", schema.NewErrorf(schema.ErrCodeConfiguration, "unknown config key %q", key).
		WithProvider(r.spec.Provider)
}

// Store holds the resolved configuration of every provider. It is an
// explicit value constructed by the host and passed into provider
// factories — there is no ambient process-wide instance, so two
// independently configured toolkits in one process cannot clobber each
// other. Within one Store the per-provider config behaves as a singleton:
// resolve once, reuse, merge on re-resolution.
type Store struct {
	mu       sync.Mutex
	env      func(string) string
	shared   map[string]string
	resolved map[string]*Resolved
}

// Option configures a Store.
type Option func(*Store)

// WithEnv overrides the environment lookup, primarily for tests.
func WithEnv(env func(string) string) Option {
	return func(s *Store) { s.env = env }
}

// WithShared sets the cross-provider fallback map, keyed by env-var name.
// It is consulted after the environment and before field defaults.
func WithShared(shared map[string]string) Option {
	return func(s *Store) { s.shared = shared }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		env:      os.Getenv,
		resolved: make(map[string]*Resolved),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the provider's resolved configuration, creating it from
// params/environment/shared fallback if absent, or merging non-empty
// params into the existing one. Under FailFast it returns a
// ConfigurationError when a required field resolves empty.
func (s *Store) Get(spec Spec, params map[string]string) (*Resolved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resolved[spec.Provider]
	if !ok {
		r = &Resolved{spec: spec, values: make(map[string]string, len(spec.Fields))}
		for _, f := range spec.Fields {
			r.values[f.Key] = s.resolveField(f, params)
		}
		s.resolved[spec.Provider] = r
	} else {
		// Merge: a non-empty override replaces only its own field.
		for _, f := range spec.Fields {
			if v := params[f.Key]; v != "" {
				r.values[f.Key] = v
			}
		}
	}

	if spec.Policy == FailFast {
		for _, f := range spec.Fields {
			if f.Required && r.values[f.Key] == "" {
				return nil, schema.NewConfigurationError(spec.Provider, spec.Provider+" "+f.Key, f.EnvVar)
			}
		}
	}
	return r, nil
}

// Reset discards the provider's resolved configuration so the next Get
// re-resolves from scratch. Safe to call when none exists.
func (s *Store) Reset(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resolved, provider)
}

func (s *Store) resolveField(f Field, params map[string]string) string {
	if v := params[f.Key]; v != "" {
		return v
	}
	if f.EnvVar != "" {
		if v := s.env(f.EnvVar); v != "" {
			return v
		}
		if v := s.shared[f.EnvVar]; v != "" {
			return v
		}
	}
	return f.Default
}
