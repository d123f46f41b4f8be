package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "handlescope.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "postgres", Path: "x.db"})
	require.Error(t, err)
}

func TestOpenRequiresLocation(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestCheckHealth(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CheckHealth(context.Background()))

	var nilStore *Store
	require.Error(t, nilStore.CheckHealth(context.Background()))
}

func TestInsertPlatformDefaultsAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPlatformDefaults(ctx, catalog.Defaults()))

	byKey, err := s.PlatformsByKeys(ctx, []string{"reddit", "twitch", "myspace"})
	require.NoError(t, err)
	require.Len(t, byKey, 2)
	require.NotZero(t, byKey["reddit"].PlatformID)
	require.Equal(t, "Reddit", byKey["reddit"].Name)

	all, err := s.AllPlatforms(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	require.Equal(t, "facebook", all[0].Key)
}

func TestInsertPlatformDefaultsKeepsExistingRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	edited := core.PlatformDefinition{
		Key:                "reddit",
		Name:               "Reddit (edited)",
		BaseURL:            "https://www.reddit.com",
		ProfileURLTemplate: "https://www.reddit.com/u/{handle}",
		SortOrder:          50,
	}
	require.NoError(t, s.InsertPlatformDefaults(ctx, []core.PlatformDefinition{edited}))
	require.NoError(t, s.InsertPlatformDefaults(ctx, catalog.Defaults()))

	byKey, err := s.PlatformsByKeys(ctx, []string{"reddit"})
	require.NoError(t, err)
	require.Equal(t, "Reddit (edited)", byKey["reddit"].Name)
}

func TestRecordCheckAndRecentChecks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPlatformDefaults(ctx, catalog.Defaults()))
	byKey, err := s.PlatformsByKeys(ctx, []string{"reddit"})
	require.NoError(t, err)
	platformID := byKey["reddit"].PlatformID

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, handle := range []string{"first", "second", "third"} {
		require.NoError(t, s.RecordCheck(ctx, handle, "reddit", platformID, &core.PlatformCheckResult{
			Status:     core.StatusAvailable,
			ProfileURL: "https://www.reddit.com/user/" + handle + "/",
			ResponseMs: 42,
			CheckedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := s.RecentChecks(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "third", records[0].Handle, "history is newest first")
	require.Equal(t, "reddit", records[0].PlatformKey)
	require.Equal(t, int64(42), records[0].ResponseMs)
	require.Equal(t, base.Add(2*time.Minute), records[0].CheckedAt)

	filtered, err := s.RecentChecks(ctx, "second", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "second", filtered[0].Handle)

	limited, err := s.RecentChecks(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestRecordCheckSkipsWithoutPlatformID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordCheck(ctx, "octocat", "reddit", 0, &core.PlatformCheckResult{
		Status:    core.StatusAvailable,
		CheckedAt: time.Now().UTC(),
	}))

	records, err := s.RecentChecks(ctx, "", 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRecordSuggestionsDeduplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPlatformDefaults(ctx, catalog.Defaults()))
	byKey, err := s.PlatformsByKeys(ctx, []string{"x"})
	require.NoError(t, err)
	platformID := byKey["x"].PlatformID

	require.NoError(t, s.RecordSuggestions(ctx, platformID, []string{"octocat_hq", "octocat1"}))
	require.NoError(t, s.RecordSuggestions(ctx, platformID, []string{"octocat_hq", "octocat2"}))

	var count int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM suggested_handles WHERE platform_id = ?`, platformID).Scan(&count))
	require.Equal(t, 3, count)
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, ":memory:", dsn)

	dsn, err = buildDSN(Config{URL: "libsql://example.turso.io", AuthToken: "secret"})
	require.NoError(t, err)
	require.Equal(t, "libsql://example.turso.io?authToken=secret", dsn)

	dsn, err = buildDSN(Config{URL: "libsql://example.turso.io?authToken=inline", AuthToken: "secret"})
	require.NoError(t, err)
	require.Equal(t, "libsql://example.turso.io?authToken=inline", dsn)
}
