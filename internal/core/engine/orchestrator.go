// Package engine coordinates handle checks: it resolves platform
// definitions, validates handles against platform rules, fans probes out
// concurrently through the registry's limiters, streams partial results,
// and hands outcomes to the persistence sink without ever blocking the
// response on storage.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/catalog"
	"github.com/handlescope/handlescope/internal/core/directory"
	"github.com/handlescope/handlescope/internal/core/limit"
	"github.com/handlescope/handlescope/internal/core/registry"
	"github.com/handlescope/handlescope/internal/core/suggest"
	"github.com/handlescope/handlescope/internal/metrics"
)

// Config carries the engine's tunables. Zero values fall back to defaults.
type Config struct {
	CacheTTL               time.Duration `mapstructure:"cache_ttl"`
	Timeout                time.Duration `mapstructure:"timeout"`
	PerPlatformConcurrency int           `mapstructure:"per_platform_concurrency"`
	PerPlatformMaxRPS      int           `mapstructure:"per_platform_max_rps"`
	BulkMaxConcurrency     int           `mapstructure:"bulk_max_concurrency"`
	BulkMaxHandles         int           `mapstructure:"bulk_max_handles"`

	// GlobalMaxRPS caps probe dispatch across all platforms and callers.
	// Zero disables the budget; the per-platform gates still apply.
	GlobalMaxRPS int `mapstructure:"global_max_rps"`

	UserAgent string `mapstructure:"user_agent"`
}

// WithDefaults fills unset fields with the documented defaults.
func (c Config) WithDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.PerPlatformConcurrency <= 0 {
		c.PerPlatformConcurrency = 3
	}
	if c.PerPlatformMaxRPS < 0 {
		c.PerPlatformMaxRPS = 0
	}
	if c.BulkMaxConcurrency <= 0 {
		c.BulkMaxConcurrency = 5
	}
	if c.BulkMaxHandles <= 0 {
		c.BulkMaxHandles = 50
	}
	return c
}

// PartialFunc receives each platform result as soon as it is known.
type PartialFunc func(handle string, result *core.PlatformCheckResult)

// CheckRequest asks for one handle across a set of platforms. Empty
// PlatformKeys means the built-in default set.
type CheckRequest struct {
	Handle       string
	PlatformKeys []string
	OnPartial    PartialFunc
}

// BulkCheckRequest asks for several handles across a set of platforms.
type BulkCheckRequest struct {
	Handles      []string
	PlatformKeys []string
	OnPartial    PartialFunc
}

// ValidationError marks a malformed request, rejected before any probing.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Orchestrator is the top-level checking coordinator.
type Orchestrator struct {
	Registry  *registry.Registry
	Directory directory.Directory
	Sink      Sink
	Logger    *logging.Logger

	// Clock overrides time.Now in tests.
	Clock func() time.Time

	cfg      Config
	bulkGate *limit.Concurrency
	budget   *rate.Limiter
}

// New builds an orchestrator over an explicitly-owned registry and
// directory. There is no hidden global state: fresh instances per test are
// cheap and isolated.
func New(cfg Config, reg *registry.Registry, dir directory.Directory, sink Sink) *Orchestrator {
	cfg = cfg.WithDefaults()

	o := &Orchestrator{
		Registry:  reg,
		Directory: dir,
		Sink:      sink,
		cfg:       cfg,
		bulkGate:  limit.NewConcurrency(cfg.BulkMaxConcurrency),
	}
	if cfg.GlobalMaxRPS > 0 {
		o.budget = rate.NewLimiter(rate.Limit(cfg.GlobalMaxRPS), cfg.GlobalMaxRPS)
	}
	return o
}

// Config returns the effective engine configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// CheckHandle checks one handle across the requested platforms. All
// per-platform checks run concurrently; the returned results follow the
// requested key order regardless of completion order.
func (o *Orchestrator) CheckHandle(ctx context.Context, req CheckRequest) (*core.HandleCheckResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	handle, err := core.ValidateHandle(req.Handle)
	if err != nil {
		return nil, validationErrorf("invalid handle: %v", err)
	}

	keys := req.PlatformKeys
	if len(keys) == 0 {
		keys = catalog.DefaultKeys()
	}

	requestedAt := o.now()

	definitions, err := o.Directory.Resolve(ctx, keys)
	if err != nil {
		// Degraded resolution still yields a complete response; the
		// affected platforms come back as unknown.
		o.warn("platform directory resolution degraded", zap.Error(err))
	}
	if definitions == nil {
		definitions = map[string]core.ResolvedPlatform{}
	}

	results := make([]*core.PlatformCheckResult, len(keys))
	var partialMu sync.Mutex

	emit := func(result *core.PlatformCheckResult) {
		metrics.RecordCheck(string(result.Status))
		if req.OnPartial == nil {
			return
		}
		partialMu.Lock()
		defer partialMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		req.OnPartial(handle, result)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			def, ok := definitions[key]
			result := o.checkPlatform(gctx, handle, key, def, ok)
			results[i] = result
			emit(result)
			return nil
		})
	}
	_ = g.Wait() // per-platform failures are results, never errors

	return &core.HandleCheckResponse{
		Handle:      handle,
		RequestedAt: requestedAt,
		Results:     results,
	}, nil
}

// CheckBulk runs CheckHandle for each handle under the bulk gate, which
// bounds how many handles are in flight; each in-flight handle still fans
// out to all its platforms. Results follow input handle order.
func (o *Orchestrator) CheckBulk(ctx context.Context, req BulkCheckRequest) (*core.BulkHandleCheckResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	handles := make([]string, 0, len(req.Handles))
	for _, raw := range req.Handles {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		handle, err := core.ValidateHandle(raw)
		if err != nil {
			return nil, validationErrorf("invalid handle %q: %v", raw, err)
		}
		handles = append(handles, handle)
	}

	if len(handles) > o.cfg.BulkMaxHandles {
		return nil, validationErrorf("too many handles: %d exceeds the maximum of %d", len(handles), o.cfg.BulkMaxHandles)
	}

	requestedAt := o.now()
	results := make([]*core.HandleCheckResponse, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	for i, handle := range handles {
		g.Go(func() error {
			return o.bulkGate.Run(gctx, func() error {
				response, err := o.CheckHandle(gctx, CheckRequest{
					Handle:       handle,
					PlatformKeys: req.PlatformKeys,
					OnPartial:    req.OnPartial,
				})
				if err != nil {
					return err
				}
				results[i] = response
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &core.BulkHandleCheckResponse{
		Handles:     handles,
		RequestedAt: requestedAt,
		Results:     results,
	}, nil
}

// checkPlatform produces exactly one result for (handle, platform), never an
// error: probe failures, unknown platforms, and rule mismatches all degrade
// to typed result values.
func (o *Orchestrator) checkPlatform(ctx context.Context, handle string, key string, def core.ResolvedPlatform, configured bool) *core.PlatformCheckResult {
	if !configured {
		return &core.PlatformCheckResult{
			PlatformKey:  key,
			PlatformName: key,
			Status:       core.StatusUnknown,
			CheckedAt:    o.now(),
			ErrorMessage: "platform not configured",
		}
	}

	if def.HandleRegex != "" {
		if pattern, err := regexp.Compile(def.HandleRegex); err == nil && !pattern.MatchString(handle) {
			result := &core.PlatformCheckResult{
				PlatformID:   def.PlatformID,
				PlatformKey:  key,
				PlatformName: def.Name,
				Status:       core.StatusInvalid,
				CheckedAt:    o.now(),
				ProfileURL:   def.ProfileURL(handle),
				ErrorMessage: "handle does not match platform rules",
			}
			o.persist(handle, key, def.PlatformID, result)
			return result
		}
	}

	adapter := o.Registry.EnsureAdapter(def.PlatformDefinition)

	var probed *core.AdapterCheckResult
	err := o.Registry.RunLimited(ctx, key, func() error {
		if o.budget != nil {
			if err := o.budget.Wait(ctx); err != nil {
				return err
			}
		}
		var checkErr error
		probed, checkErr = adapter.Check(ctx, handle)
		return checkErr
	})
	if err != nil {
		result := &core.PlatformCheckResult{
			PlatformID:   def.PlatformID,
			PlatformKey:  key,
			PlatformName: def.Name,
			Status:       core.StatusError,
			CheckedAt:    o.now(),
			ProfileURL:   def.ProfileURL(handle),
			ErrorMessage: err.Error(),
		}
		o.persist(handle, key, def.PlatformID, result)
		return result
	}

	result := &core.PlatformCheckResult{
		PlatformID:   def.PlatformID,
		PlatformKey:  key,
		PlatformName: def.Name,
		Status:       probed.Status,
		CheckedAt:    probed.CheckedAt,
		ProfileURL:   probed.ProfileURL,
		ResponseMs:   probed.ResponseMs,
		ErrorMessage: probed.ErrorMessage,
		Cached:       probed.Cached,
	}

	if result.Status == core.StatusTaken {
		result.Suggestions = suggest.Generate(handle)
		if o.Sink != nil {
			_ = o.Sink.RecordSuggestions(ctx, def.PlatformID, result.Suggestions)
		}
	}

	o.persist(handle, key, def.PlatformID, result)
	return result
}

func (o *Orchestrator) persist(handle string, key string, platformID int64, result *core.PlatformCheckResult) {
	if o.Sink == nil {
		return
	}
	// Persistence is fire-and-forget by contract; the sink owns the
	// error boundary.
	_ = o.Sink.RecordCheck(context.Background(), handle, key, platformID, result)
}

func (o *Orchestrator) warn(msg string, fields ...zap.Field) {
	if o.Logger == nil {
		return
	}
	o.Logger.Warn(msg, fields...)
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}
