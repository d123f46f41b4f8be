// Package registry owns the per-platform probe state: exactly one adapter
// and one limiter pair per platform key, created lazily and kept for the
// registry's lifetime. Callers go through RunLimited; nothing else invokes
// an adapter during normal operation.
package registry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/cache"
	"github.com/handlescope/handlescope/internal/core/limit"
	"github.com/handlescope/handlescope/internal/core/probe"
)

// Options configure the adapters and limiters a registry constructs.
type Options struct {
	CacheTTL    time.Duration
	Timeout     time.Duration
	Concurrency int
	MaxRPS      int
	UserAgent   string

	// Client overrides the HTTP client handed to new adapters (tests).
	Client *http.Client

	// Clock is passed through to adapters (tests).
	Clock func() time.Time
}

type platformState struct {
	definition core.PlatformDefinition
	adapter    probe.Adapter
	gate       *limit.Concurrency
	rps        *limit.SlidingWindow
}

// Registry maps platform keys to their probe machinery.
type Registry struct {
	mu        sync.Mutex
	opts      Options
	platforms map[string]*platformState
}

// New seeds a registry with the given definitions, constructing a default
// HTTP adapter per platform. Each adapter gets its own cache; results are
// never shared across platforms.
func New(opts Options, definitions ...core.PlatformDefinition) *Registry {
	r := &Registry{
		opts:      opts,
		platforms: make(map[string]*platformState),
	}
	for _, def := range definitions {
		r.Register(def, nil)
	}
	return r
}

// Register adds or overrides a platform. A nil adapter means "build the
// default HTTP probe adapter for this definition". Limiter state for an
// already-known key is preserved so re-registration cannot reset throttles.
func (r *Registry) Register(def core.PlatformDefinition, adapter probe.Adapter) {
	if adapter == nil {
		adapter = r.newAdapter(def)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.platforms[def.Key]; ok {
		existing.definition = def
		existing.adapter = adapter
		return
	}
	r.platforms[def.Key] = &platformState{definition: def, adapter: adapter}
}

// Definition returns the registered definition for key, if any.
func (r *Registry) Definition(key string) (core.PlatformDefinition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.platforms[key]
	if !ok {
		return core.PlatformDefinition{}, false
	}
	return state.definition, true
}

// Adapter returns the adapter for key, if the platform is registered.
func (r *Registry) Adapter(key string) (probe.Adapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.platforms[key]
	if !ok || state.adapter == nil {
		return nil, false
	}
	return state.adapter, true
}

// EnsureAdapter returns the adapter for key, registering def with a default
// HTTP adapter when the key is new.
func (r *Registry) EnsureAdapter(def core.PlatformDefinition) probe.Adapter {
	if adapter, ok := r.Adapter(def.Key); ok {
		return adapter
	}
	r.Register(def, nil)
	adapter, _ := r.Adapter(def.Key)
	return adapter
}

// RunLimited executes fn under the platform's limiter pair: the concurrency
// slot is acquired first, the RPS turn second, so the trailing window only
// counts dispatched probes.
func (r *Registry) RunLimited(ctx context.Context, key string, fn func() error) error {
	gate, rps := r.limitersFor(key)

	return gate.Run(ctx, func() error {
		if err := rps.Wait(ctx); err != nil {
			return err
		}
		return fn()
	})
}

func (r *Registry) limitersFor(key string) (*limit.Concurrency, *limit.SlidingWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.platforms[key]
	if !ok {
		state = &platformState{}
		r.platforms[key] = state
	}
	if state.gate == nil {
		state.gate = limit.NewConcurrency(r.opts.Concurrency)
	}
	if state.rps == nil {
		state.rps = limit.NewSlidingWindow(r.opts.MaxRPS, time.Second)
	}
	return state.gate, state.rps
}

func (r *Registry) newAdapter(def core.PlatformDefinition) probe.Adapter {
	return &probe.HTTPAdapter{
		PlatformKey:        def.Key,
		ProfileURLTemplate: def.ProfileURLTemplate,
		Cache:              cache.NewMemory(),
		CacheTTL:           r.opts.CacheTTL,
		Timeout:            r.opts.Timeout,
		UserAgent:          r.opts.UserAgent,
		Client:             r.opts.Client,
		Clock:              r.opts.Clock,
	}
}
