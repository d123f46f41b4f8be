// Package catalog ships the built-in platform catalog. The catalog seeds
// the registry and the platform directory; durable overrides may supplement
// it at request time but never mutate it.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/handlescope/handlescope/internal/core"
)

//go:embed platforms.yaml
var platformsYAML []byte

type catalogFile struct {
	Platforms []core.PlatformDefinition `yaml:"platforms"`
}

var defaults []core.PlatformDefinition

func init() {
	var parsed catalogFile
	if err := yaml.Unmarshal(platformsYAML, &parsed); err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded platforms.yaml: %v", err))
	}
	sort.SliceStable(parsed.Platforms, func(i, j int) bool {
		return parsed.Platforms[i].SortOrder < parsed.Platforms[j].SortOrder
	})
	defaults = parsed.Platforms
}

// Defaults returns a copy of the built-in platform definitions in catalog
// sort order.
func Defaults() []core.PlatformDefinition {
	out := make([]core.PlatformDefinition, len(defaults))
	copy(out, defaults)
	return out
}

// DefaultKeys returns the built-in platform keys in catalog sort order.
func DefaultKeys() []string {
	keys := make([]string, 0, len(defaults))
	for _, def := range defaults {
		keys = append(keys, def.Key)
	}
	return keys
}

// Lookup returns the built-in definition for key, if present.
func Lookup(key string) (core.PlatformDefinition, bool) {
	for _, def := range defaults {
		if def.Key == key {
			return def, true
		}
	}
	return core.PlatformDefinition{}, false
}
