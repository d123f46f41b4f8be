package directory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handlescope/handlescope/internal/core"
)

type stubPlatformStore struct {
	rows        map[string]core.ResolvedPlatform
	lookupErr   error
	insertErr   error
	inserted    []core.PlatformDefinition
	nextID      int64
	lookupCalls int
}

func (s *stubPlatformStore) PlatformsByKeys(_ context.Context, keys []string) (map[string]core.ResolvedPlatform, error) {
	s.lookupCalls++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	out := make(map[string]core.ResolvedPlatform, len(keys))
	for _, key := range keys {
		if resolved, ok := s.rows[key]; ok {
			out[key] = resolved
		}
	}
	return out, nil
}

func (s *stubPlatformStore) InsertPlatformDefaults(_ context.Context, defs []core.PlatformDefinition) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, defs...)
	if s.rows == nil {
		s.rows = make(map[string]core.ResolvedPlatform)
	}
	for _, def := range defs {
		s.nextID++
		s.rows[def.Key] = core.ResolvedPlatform{PlatformDefinition: def, PlatformID: s.nextID}
	}
	return nil
}

func TestStaticResolvesCatalogDefaults(t *testing.T) {
	dir := NewStatic()

	resolved, err := dir.Resolve(context.Background(), []string{"reddit", "myspace"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "reddit", resolved["reddit"].Key)
	require.Zero(t, resolved["reddit"].PlatformID)
}

func TestStaticResolvesCustomDefinitions(t *testing.T) {
	dir := NewStatic(core.PlatformDefinition{Key: "custom", Name: "Custom"})

	resolved, err := dir.Resolve(context.Background(), []string{"custom", "reddit"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "Custom", resolved["custom"].Name)
}

func TestMergedAdoptsCatalogDefaultsIntoStore(t *testing.T) {
	store := &stubPlatformStore{}
	dir := NewMerged(store)

	resolved, err := dir.Resolve(context.Background(), []string{"reddit", "twitch"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.NotZero(t, resolved["reddit"].PlatformID)
	require.NotZero(t, resolved["twitch"].PlatformID)
	require.Len(t, store.inserted, 2)
}

func TestMergedPrefersStoreRows(t *testing.T) {
	store := &stubPlatformStore{
		rows: map[string]core.ResolvedPlatform{
			"reddit": {
				PlatformDefinition: core.PlatformDefinition{Key: "reddit", Name: "Reddit (custom)"},
				PlatformID:         42,
			},
		},
	}
	dir := NewMerged(store)

	resolved, err := dir.Resolve(context.Background(), []string{"reddit"})
	require.NoError(t, err)
	require.Equal(t, "Reddit (custom)", resolved["reddit"].Name)
	require.Equal(t, int64(42), resolved["reddit"].PlatformID)
	require.Empty(t, store.inserted, "known rows must not be re-inserted")
}

func TestMergedStoreFailureDegradesToCatalog(t *testing.T) {
	store := &stubPlatformStore{lookupErr: fmt.Errorf("database is locked")}
	dir := NewMerged(store)

	resolved, err := dir.Resolve(context.Background(), []string{"reddit", "myspace"})
	require.Error(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "reddit", resolved["reddit"].Key)
	require.Zero(t, resolved["reddit"].PlatformID)
}

func TestMergedUnknownKeysStayAbsent(t *testing.T) {
	dir := NewMerged(&stubPlatformStore{})

	resolved, err := dir.Resolve(context.Background(), []string{"myspace"})
	require.NoError(t, err)
	require.Empty(t, resolved)
}

func TestMergedNilStoreActsAsCatalog(t *testing.T) {
	dir := &Merged{}

	resolved, err := dir.Resolve(context.Background(), []string{"reddit"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
}
