package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handlescope/handlescope/internal/core"
)

func TestDefaultsCoverBuiltInPlatforms(t *testing.T) {
	defs := Defaults()
	require.Len(t, defs, 8)

	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, def.Key)
	}
	require.Equal(t, []string{
		"facebook",
		"x",
		"instagram",
		"tiktok",
		"reddit",
		"twitch",
		"youtube",
		"pinterest",
	}, keys)
}

func TestDefaultsAreTemplateComplete(t *testing.T) {
	for _, def := range Defaults() {
		require.NotEmpty(t, def.Name, "platform %q", def.Key)
		require.Contains(t, def.ProfileURLTemplate, core.HandlePlaceholder, "platform %q", def.Key)
	}
}

func TestDefaultsReturnsACopy(t *testing.T) {
	first := Defaults()
	first[0].Name = "mutated"

	require.NotEqual(t, "mutated", Defaults()[0].Name)
}

func TestDefaultKeysMatchesDefaults(t *testing.T) {
	defs := Defaults()
	keys := DefaultKeys()
	require.Len(t, keys, len(defs))
	for i, def := range defs {
		require.Equal(t, def.Key, keys[i])
	}
}

func TestLookup(t *testing.T) {
	def, ok := Lookup("reddit")
	require.True(t, ok)
	require.Equal(t, "reddit", def.Key)
	require.True(t, strings.HasPrefix(def.ProfileURLTemplate, "https://"))

	_, ok = Lookup("myspace")
	require.False(t, ok)
}
