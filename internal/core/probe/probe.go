// Package probe issues the HTTP GET that decides whether a handle is taken
// on a platform. Redirects are not followed: a 3xx is itself a signal.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/cache"
	"github.com/handlescope/handlescope/internal/metrics"
)

// DefaultUserAgent mimics a browser enough that platforms answer probes the
// way they answer profile visits.
const DefaultUserAgent = "Mozilla/5.0 (compatible; Handlescope/1.0; +https://handlescope.dev)"

const (
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = time.Minute

	// Error results are retried sooner than regular ones.
	maxErrorTTL = 5 * time.Second
)

// Adapter checks one handle against one platform.
type Adapter interface {
	Check(ctx context.Context, handle string) (*core.AdapterCheckResult, error)
}

// HTTPAdapter probes a platform's profile URL. Transport failures never
// propagate; they degrade to an error-status result.
type HTTPAdapter struct {
	PlatformKey        string
	ProfileURLTemplate string
	Cache              cache.Store
	CacheTTL           time.Duration
	Timeout            time.Duration
	UserAgent          string
	Client             *http.Client
	Clock              func() time.Time
}

// Check resolves the profile URL, consults the cache, and probes on a miss.
func (a *HTTPAdapter) Check(ctx context.Context, handle string) (*core.AdapterCheckResult, error) {
	if a == nil {
		return nil, errors.New("probe adapter is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, errors.New("handle is required")
	}

	profileURL := strings.ReplaceAll(a.ProfileURLTemplate, core.HandlePlaceholder, handle)
	cacheKey := fmt.Sprintf("probe:%s:%s", a.PlatformKey, handle)

	if a.Cache != nil {
		if value, ok := a.Cache.Get(cacheKey); ok {
			if cached, ok := value.(core.AdapterCheckResult); ok {
				metrics.RecordCacheHit(a.PlatformKey)
				hit := cached
				hit.Cached = true
				hit.CheckedAt = a.now()
				return &hit, nil
			}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	startedAt := time.Now()
	resp, err := a.httpClient().Do(req)
	elapsed := time.Since(startedAt).Milliseconds()

	if err != nil {
		result := core.AdapterCheckResult{
			Status:       core.StatusError,
			ProfileURL:   profileURL,
			ErrorMessage: err.Error(),
			ResponseMs:   elapsed,
			CheckedAt:    a.now(),
		}
		a.store(cacheKey, result, min(a.cacheTTL(), maxErrorTTL))
		metrics.RecordProbe(a.PlatformKey, string(core.StatusError))
		return &result, nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	result := core.AdapterCheckResult{
		Status:     interpretStatus(resp.StatusCode),
		ProfileURL: profileURL,
		ResponseMs: elapsed,
		CheckedAt:  a.now(),
	}
	a.store(cacheKey, result, a.cacheTTL())
	metrics.RecordProbe(a.PlatformKey, string(result.Status))
	return &result, nil
}

// interpretStatus maps an HTTP status to a verdict. 404 means the profile
// does not exist; 200 and profile redirects mean it does; everything else is
// inconclusive.
func interpretStatus(httpStatus int) core.Status {
	switch httpStatus {
	case http.StatusNotFound:
		return core.StatusAvailable
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
		return core.StatusTaken
	default:
		return core.StatusUnknown
	}
}

func (a *HTTPAdapter) store(key string, result core.AdapterCheckResult, ttl time.Duration) {
	if a.Cache == nil {
		return
	}
	a.Cache.Set(key, result, ttl)
}

func (a *HTTPAdapter) httpClient() *http.Client {
	base := a.Client
	if base == nil {
		base = &http.Client{}
	}

	client := *base
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &client
}

func (a *HTTPAdapter) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return defaultTimeout
}

func (a *HTTPAdapter) cacheTTL() time.Duration {
	if a.CacheTTL > 0 {
		return a.CacheTTL
	}
	return defaultCacheTTL
}

func (a *HTTPAdapter) userAgent() string {
	if a.UserAgent != "" {
		return a.UserAgent
	}
	return DefaultUserAgent
}

func (a *HTTPAdapter) now() time.Time {
	if a != nil && a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}
