// Package directory resolves platform definitions for a check request. The
// built-in catalog always answers; a durable store, when configured,
// overlays its rows and adopts newly-seen catalog entries so results can
// carry a durable platform id.
package directory

import (
	"context"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/catalog"
)

// Directory resolves platform keys to definitions. Unknown keys are simply
// absent from the returned map; the engine reports them as unknown results.
type Directory interface {
	Resolve(ctx context.Context, keys []string) (map[string]core.ResolvedPlatform, error)
}

// PlatformStore is the durable half of the directory contract, implemented
// by the libsql store.
type PlatformStore interface {
	PlatformsByKeys(ctx context.Context, keys []string) (map[string]core.ResolvedPlatform, error)
	InsertPlatformDefaults(ctx context.Context, defs []core.PlatformDefinition) error
}

// Static resolves from a fixed definition list, catalog defaults unless told
// otherwise. Used when no store is configured, and by tests.
type Static struct {
	definitions []core.PlatformDefinition
}

// NewStatic returns a Static over defs, falling back to the built-in catalog
// when defs is empty.
func NewStatic(defs ...core.PlatformDefinition) *Static {
	if len(defs) == 0 {
		defs = catalog.Defaults()
	}
	return &Static{definitions: defs}
}

// Resolve implements Directory.
func (s *Static) Resolve(_ context.Context, keys []string) (map[string]core.ResolvedPlatform, error) {
	out := make(map[string]core.ResolvedPlatform, len(keys))
	for _, key := range keys {
		for _, def := range s.definitions {
			if def.Key == key {
				out[key] = core.ResolvedPlatform{PlatformDefinition: def}
				break
			}
		}
	}
	return out, nil
}

// Merged resolves catalog defaults overlaid with durable rows. Catalog
// entries seen for the first time are persisted so later results carry
// their durable id.
type Merged struct {
	Store PlatformStore
}

// NewMerged returns a Merged over the given store.
func NewMerged(store PlatformStore) *Merged {
	return &Merged{Store: store}
}

// Resolve implements Directory. Store failures degrade to catalog-only
// resolution; the partial map is still returned alongside the error so a
// broken store never takes checking down with it.
func (m *Merged) Resolve(ctx context.Context, keys []string) (map[string]core.ResolvedPlatform, error) {
	out := make(map[string]core.ResolvedPlatform, len(keys))
	for _, key := range keys {
		if def, ok := catalog.Lookup(key); ok {
			out[key] = core.ResolvedPlatform{PlatformDefinition: def}
		}
	}

	if m == nil || m.Store == nil {
		return out, nil
	}

	rows, err := m.Store.PlatformsByKeys(ctx, keys)
	if err != nil {
		return out, err
	}
	for key, resolved := range rows {
		out[key] = resolved
	}

	var missing []core.PlatformDefinition
	for _, key := range keys {
		resolved, ok := out[key]
		if !ok || resolved.PlatformID != 0 {
			continue
		}
		if def, isDefault := catalog.Lookup(key); isDefault {
			missing = append(missing, def)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	if err := m.Store.InsertPlatformDefaults(ctx, missing); err != nil {
		return out, err
	}

	inserted := make([]string, 0, len(missing))
	for _, def := range missing {
		inserted = append(inserted, def.Key)
	}
	rows, err = m.Store.PlatformsByKeys(ctx, inserted)
	if err != nil {
		return out, err
	}
	for key, resolved := range rows {
		out[key] = resolved
	}

	return out, nil
}
