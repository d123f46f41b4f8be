package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/cache"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*HTTPAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &HTTPAdapter{
		PlatformKey:        "testplatform",
		ProfileURLTemplate: server.URL + "/{handle}",
		Cache:              cache.NewMemory(),
		CacheTTL:           time.Minute,
		Timeout:            2 * time.Second,
		Client:             server.Client(),
	}, server
}

func TestCheckNotFoundMeansAvailable(t *testing.T) {
	adapter, server := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, core.StatusAvailable, result.Status)
	require.Equal(t, server.URL+"/octocat", result.ProfileURL)
	require.False(t, result.Cached)
}

func TestCheckOKMeansTaken(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	result, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, core.StatusTaken, result.Status)
}

func TestCheckUnexpectedStatusMeansUnknown(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, core.StatusUnknown, result.Status)
}

func TestCheckDoesNotFollowRedirects(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/octocat" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		// The login page would answer 200 even for free handles; reaching it
		// would corrupt the verdict.
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, core.StatusTaken, result.Status)
}

func TestCheckTransportErrorDegradesToErrorResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	server.Close()

	adapter := &HTTPAdapter{
		PlatformKey:        "testplatform",
		ProfileURLTemplate: server.URL + "/{handle}",
		Cache:              cache.NewMemory(),
		CacheTTL:           time.Minute,
		Client:             client,
	}

	result, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, core.StatusError, result.Status)
	require.NotEmpty(t, result.ErrorMessage)
}

func TestCheckServesSecondCallFromCache(t *testing.T) {
	var calls int64
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	first, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestCheckCacheIsPerHandle(t *testing.T) {
	var calls int64
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	_, err = adapter.Check(context.Background(), "hubot")
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCheckSendsUserAgent(t *testing.T) {
	var got string
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := adapter.Check(context.Background(), "octocat")
	require.NoError(t, err)
	require.Equal(t, DefaultUserAgent, got)
}

func TestCheckRejectsEmptyHandle(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := adapter.Check(context.Background(), "   ")
	require.Error(t, err)
}
