package engine

import (
	"context"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/metrics"
)

// Sink receives check outcomes for durable storage. Implementations are
// called off the request path; errors are logged and swallowed by the
// caller, never surfaced to the checking caller.
type Sink interface {
	RecordCheck(ctx context.Context, handle string, platformKey string, platformID int64, result *core.PlatformCheckResult) error
	RecordSuggestions(ctx context.Context, platformID int64, suggestions []string) error
}

const (
	defaultSinkWorkers = 4
	sinkWriteTimeout   = 10 * time.Second
)

// AsyncSink decouples persistence from the response lifecycle: Record calls
// return immediately and the write happens on a bounded background worker
// with its own error boundary. Wait drains scheduled work, which keeps
// tests deterministic.
type AsyncSink struct {
	sink   Sink
	logger *logging.Logger

	pending sync.WaitGroup
	workers sizedwaitgroup.SizedWaitGroup
}

// NewAsyncSink wraps sink with at most workers concurrent writes.
func NewAsyncSink(sink Sink, logger *logging.Logger, workers int) *AsyncSink {
	if workers < 1 {
		workers = defaultSinkWorkers
	}
	return &AsyncSink{
		sink:    sink,
		logger:  logger,
		workers: sizedwaitgroup.New(workers),
	}
}

// RecordCheck schedules one history write. Always returns nil; a scheduled
// write may still complete after the originating request is cancelled.
func (a *AsyncSink) RecordCheck(_ context.Context, handle string, platformKey string, platformID int64, result *core.PlatformCheckResult) error {
	if a == nil || a.sink == nil || result == nil {
		return nil
	}

	snapshot := *result
	a.schedule(func(ctx context.Context) {
		if err := a.sink.RecordCheck(ctx, handle, platformKey, platformID, &snapshot); err != nil {
			metrics.RecordPersistError()
			a.warn("failed to persist handle check",
				zap.String("handle", handle),
				zap.String("platform", platformKey),
				zap.Error(err))
		}
	})
	return nil
}

// RecordSuggestions schedules one suggestions write. Always returns nil.
func (a *AsyncSink) RecordSuggestions(_ context.Context, platformID int64, suggestions []string) error {
	if a == nil || a.sink == nil || len(suggestions) == 0 {
		return nil
	}

	snapshot := make([]string, len(suggestions))
	copy(snapshot, suggestions)
	a.schedule(func(ctx context.Context) {
		if err := a.sink.RecordSuggestions(ctx, platformID, snapshot); err != nil {
			metrics.RecordPersistError()
			a.warn("failed to persist suggestions",
				zap.Int64("platform_id", platformID),
				zap.Error(err))
		}
	})
	return nil
}

// Wait blocks until every scheduled write has finished.
func (a *AsyncSink) Wait() {
	if a == nil {
		return
	}
	a.pending.Wait()
}

func (a *AsyncSink) schedule(fn func(ctx context.Context)) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()

		// The worker bound applies to execution, not scheduling, so a
		// slow store can never stall the request path.
		a.workers.Add()
		defer a.workers.Done()

		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (a *AsyncSink) warn(msg string, fields ...zap.Field) {
	if a.logger == nil {
		return
	}
	a.logger.Warn(msg, fields...)
}
