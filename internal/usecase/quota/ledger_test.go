package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestLedgerDefaults(t *testing.T) {
	l, err := New(context.Background(), newMemKV(), nil)
	require.NoError(t, err)

	q, ok := l.Usage(domain.ProviderMyMemory)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultMyMemoryDailyLimit, q.DailyLimit)
	assert.Equal(t, 0, q.CurrentUsage)

	q, ok = l.Usage(domain.ProviderLibreTranslate)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultLibreTranslateDailyLimit, q.DailyLimit)
}

func TestLedgerGatesAtLimit(t *testing.T) {
	ctx := context.Background()
	l, err := New(ctx, newMemKV(), nil,
		WithLimits(map[domain.ProviderTag]int{domain.ProviderMyMemory: 3}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, l.CanUse(domain.ProviderMyMemory), "use %d should be allowed", i)
		require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))
	}
	assert.False(t, l.CanUse(domain.ProviderMyMemory), "exactly dailyLimit uses exhaust the budget")
	assert.True(t, l.CanUse(domain.ProviderLibreTranslate), "other providers are unaffected")
}

func TestLedgerUnknownProviderIsUnmetered(t *testing.T) {
	l, err := New(context.Background(), newMemKV(), nil)
	require.NoError(t, err)
	assert.True(t, l.CanUse(domain.ProviderOffline))
	assert.NoError(t, l.RecordUse(context.Background(), domain.ProviderOffline))
	assert.True(t, l.CanUse(domain.ProviderOffline))
}

func TestLedgerPersistsAcrossConstruction(t *testing.T) {
	ctx := context.Background()
	store := newMemKV()

	l, err := New(ctx, store, nil)
	require.NoError(t, err)
	require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))
	require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))

	reloaded, err := New(ctx, store, nil)
	require.NoError(t, err)
	q, ok := reloaded.Usage(domain.ProviderMyMemory)
	require.True(t, ok)
	assert.Equal(t, 2, q.CurrentUsage)
}

func TestLedgerDailyRollover(t *testing.T) {
	ctx := context.Background()
	store := newMemKV()

	yesterday := time.Now().AddDate(0, 0, -1)
	l, err := New(ctx, store, nil,
		WithClock(func() time.Time { return yesterday }),
		WithLimits(map[domain.ProviderTag]int{domain.ProviderMyMemory: 2}))
	require.NoError(t, err)
	require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))
	require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))
	require.False(t, l.CanUse(domain.ProviderMyMemory))

	// A new process the next day: stored stamp is yesterday's, counters
	// reset, configured limits survive.
	today, err := New(ctx, store, nil,
		WithLimits(map[domain.ProviderTag]int{domain.ProviderMyMemory: 2}))
	require.NoError(t, err)
	q, ok := today.Usage(domain.ProviderMyMemory)
	require.True(t, ok)
	assert.Equal(t, 0, q.CurrentUsage)
	assert.Equal(t, 2, q.DailyLimit)
	assert.True(t, today.CanUse(domain.ProviderMyMemory))
}

func TestLedgerRollsOverMidProcess(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }

	l, err := New(ctx, newMemKV(), nil, WithClock(clock),
		WithLimits(map[domain.ProviderTag]int{domain.ProviderMyMemory: 1}))
	require.NoError(t, err)
	require.NoError(t, l.RecordUse(ctx, domain.ProviderMyMemory))
	require.False(t, l.CanUse(domain.ProviderMyMemory))

	now = now.AddDate(0, 0, 1)
	assert.True(t, l.CanUse(domain.ProviderMyMemory), "crossing midnight resets the running process too")
}

func TestLedgerSnapshotPersistedAsJSON(t *testing.T) {
	ctx := context.Background()
	store := newMemKV()
	l, err := New(ctx, store, nil)
	require.NoError(t, err)
	require.NoError(t, l.RecordUse(ctx, domain.ProviderLibreTranslate))

	raw, err := store.Get(ctx, ports.KeyQuotas)
	require.NoError(t, err)
	assert.Contains(t, raw, `"libretranslate"`)
	assert.Contains(t, raw, `"last_reset"`)
}
