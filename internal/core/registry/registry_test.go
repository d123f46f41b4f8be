package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handlescope/handlescope/internal/core"
	"github.com/handlescope/handlescope/internal/core/probe"
)

type stubAdapter struct {
	calls int
}

func (s *stubAdapter) Check(ctx context.Context, handle string) (*core.AdapterCheckResult, error) {
	s.calls++
	return &core.AdapterCheckResult{Status: core.StatusAvailable}, nil
}

func testDefinition(key string) core.PlatformDefinition {
	return core.PlatformDefinition{
		Key:                key,
		Name:               key,
		ProfileURLTemplate: "https://" + key + ".example/{handle}",
	}
}

func TestNewSeedsDefaultAdapters(t *testing.T) {
	r := New(Options{Concurrency: 1}, testDefinition("alpha"), testDefinition("beta"))

	adapter, ok := r.Adapter("alpha")
	require.True(t, ok)
	require.IsType(t, &probe.HTTPAdapter{}, adapter)

	def, ok := r.Definition("beta")
	require.True(t, ok)
	require.Equal(t, "beta", def.Key)
}

func TestRegisterOverridesAdapter(t *testing.T) {
	r := New(Options{Concurrency: 1}, testDefinition("alpha"))

	stub := &stubAdapter{}
	r.Register(testDefinition("alpha"), stub)

	adapter, ok := r.Adapter("alpha")
	require.True(t, ok)
	require.Same(t, stub, adapter)
}

func TestRegisterPreservesLimiterState(t *testing.T) {
	r := New(Options{Concurrency: 1}, testDefinition("alpha"))

	gate, rps := r.limitersFor("alpha")
	r.Register(testDefinition("alpha"), &stubAdapter{})

	gateAfter, rpsAfter := r.limitersFor("alpha")
	require.Same(t, gate, gateAfter)
	require.Same(t, rps, rpsAfter)
}

func TestEnsureAdapterRegistersUnknownKey(t *testing.T) {
	r := New(Options{Concurrency: 1})

	def := testDefinition("alpha")
	first := r.EnsureAdapter(def)
	require.NotNil(t, first)

	second := r.EnsureAdapter(def)
	require.Same(t, first, second)
}

func TestRunLimitedExecutesFunc(t *testing.T) {
	r := New(Options{Concurrency: 2, MaxRPS: 100}, testDefinition("alpha"))

	ran := false
	err := r.RunLimited(context.Background(), "alpha", func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestRunLimitedHonorsCanceledContext(t *testing.T) {
	r := New(Options{Concurrency: 1, MaxRPS: 1}, testDefinition("alpha"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RunLimited(ctx, "alpha", func() error {
		t.Fatal("func must not run under a canceled context")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunLimitedAppliesPerPlatformRPS(t *testing.T) {
	r := New(Options{Concurrency: 4, MaxRPS: 1}, testDefinition("alpha"))

	require.NoError(t, r.RunLimited(context.Background(), "alpha", func() error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.RunLimited(ctx, "alpha", func() error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
