// Package registry lazily constructs and memoizes singleton handles to the
// external systems the pipeline depends on. A missing-credentials condition
// yields a permanent nil handle for that kind; setup is never retried.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"repotrack/internal/chroma"
	"repotrack/internal/config"
	"repotrack/internal/enrich"
	"repotrack/internal/github"
)

// ErrUnknownKind indicates a client kind outside the enumerated set.
var ErrUnknownKind = errors.New("unknown client kind")

// Kind enumerates the external client kinds.
type Kind int

const (
	KindVectorIndex Kind = iota
	KindRepoFetcher
	KindEnrichment
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindVectorIndex:
		return "vector_index"
	case KindRepoFetcher:
		return "repo_fetcher"
	case KindEnrichment:
		return "enrichment"
	default:
		return "unknown"
	}
}

// setupFunc constructs a handle from configuration. Returning (nil, nil)
// means required credentials are missing; the nil is memoized.
type setupFunc func(cfg *config.Config) (any, error)

// setups maps each kind to its constructor.
var setups = map[Kind]setupFunc{
	KindVectorIndex: setupVectorIndex,
	KindRepoFetcher: setupRepoFetcher,
	KindEnrichment:  setupEnrichment,
}

// Registry holds the memoized client handles for one process.
type Registry struct {
	mu    sync.Mutex
	cfg   *config.Config
	slots map[Kind]any
}

// New creates a Registry over the given configuration. Handles are
// constructed on first demand.
func New(cfg *config.Config) *Registry {
	return &Registry{
		cfg:   cfg,
		slots: make(map[Kind]any),
	}
}

// Get returns the memoized handle for the kind, constructing it on first
// call. A nil handle (missing credentials) is memoized like any other and
// returned without retrying setup. An unenumerated kind fails with
// ErrUnknownKind.
func (r *Registry) Get(kind Kind) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle, ok := r.slots[kind]; ok {
		return handle, nil
	}

	setup, ok := setups[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	handle, err := setup(r.cfg)
	if err != nil {
		return nil, fmt.Errorf("setting up %s client: %w", kind, err)
	}
	r.slots[kind] = handle
	return handle, nil
}

// VectorIndex returns the Chroma client, or nil when Chroma credentials
// are not configured.
func (r *Registry) VectorIndex() (*chroma.Client, error) {
	handle, err := r.Get(KindVectorIndex)
	if err != nil || handle == nil {
		return nil, err
	}
	return handle.(*chroma.Client), nil
}

// RepoFetcher returns the repository fetcher, or nil when GitHub
// credentials are not configured.
func (r *Registry) RepoFetcher() (*github.Fetcher, error) {
	handle, err := r.Get(KindRepoFetcher)
	if err != nil || handle == nil {
		return nil, err
	}
	return handle.(*github.Fetcher), nil
}

// Enrichment returns the description enrichment client, or nil when no
// enrichment credential is configured.
func (r *Registry) Enrichment() (enrich.Describer, error) {
	handle, err := r.Get(KindEnrichment)
	if err != nil || handle == nil {
		return nil, err
	}
	return handle.(enrich.Describer), nil
}

func setupVectorIndex(cfg *config.Config) (any, error) {
	c := cfg.Chroma
	if c.Tenant == "" || c.Database == "" || c.APIKey == "" {
		return nil, nil
	}
	return chroma.NewClient(chroma.Config{
		Tenant:   c.Tenant,
		Database: c.Database,
		APIKey:   c.APIKey,
	}), nil
}

func setupRepoFetcher(cfg *config.Config) (any, error) {
	g := cfg.GitHub
	switch g.Auth {
	case "app":
		if g.AppID == "" || g.InstallationID == "" {
			return nil, nil
		}
	default:
		if g.Owner == "" || g.Repo == "" || g.ClientID == "" || g.ClientSecret == "" {
			return nil, nil
		}
	}

	client, err := github.NewClient(g)
	if err != nil {
		return nil, err
	}
	return github.NewFetcher(client), nil
}

func setupEnrichment(cfg *config.Config) (any, error) {
	e := cfg.Enrich
	if e.APIKey == "" {
		return nil, nil
	}
	switch e.Type {
	case "anthropic":
		return enrich.NewAnthropicDescriber(e.APIKey, e.Model), nil
	default:
		return enrich.NewPerplexityDescriber(e.APIKey, e.Model, ""), nil
	}
}
