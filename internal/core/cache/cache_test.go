package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemorySetAndGet(t *testing.T) {
	m := NewMemory()
	m.Set("key", "value", time.Minute)

	got, ok := m.Get("key")
	require.True(t, ok)
	require.Equal(t, "value", got)
}

func TestMemoryMissingKey(t *testing.T) {
	m := NewMemory()

	_, ok := m.Get("missing")
	require.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Now()
	m := NewMemory()
	m.Clock = func() time.Time { return now }

	m.Set("key", "value", time.Minute)

	_, ok := m.Get("key")
	require.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = m.Get("key")
	require.False(t, ok)
	require.Equal(t, 0, m.Len(), "expired entry should be collected on read")
}

func TestMemoryNonPositiveTTLStoresNothing(t *testing.T) {
	m := NewMemory()
	m.Set("key", "value", 0)

	_, ok := m.Get("key")
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory()
	m.Set("key", "first", time.Minute)
	m.Set("key", "second", time.Minute)

	got, ok := m.Get("key")
	require.True(t, ok)
	require.Equal(t, "second", got)
	require.Equal(t, 1, m.Len())
}
