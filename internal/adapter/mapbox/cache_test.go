package mapbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	mu     sync.Mutex
	calls  map[string]int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, query string) (domain.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[query]++
	return m.result, m.err
}

func (m *countingGeocoder) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

var paris = domain.GeocodingResult{Lat: 48.8566, Lon: 2.3522, FormattedAddress: "Paris, France"}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: paris}
	m := testMetrics()
	cached := NewCachedGeocoder(inner, 10, m)

	r1, err := cached.ForwardGeocode(context.Background(), "Paris, France")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), " paris, france ")
	require.NoError(t, err)

	assert.Equal(t, paris, r1)
	assert.Equal(t, paris, r2)
	assert.Equal(t, 1, inner.total(), "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	for range 3 {
		_, err := cached.ForwardGeocode(context.Background(), "Atlantic Ocean")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.total())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("rate limited")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "Paris, France")
	require.Error(t, err)

	inner.err = nil
	inner.result = paris
	r, err := cached.ForwardGeocode(context.Background(), "Paris, France")
	require.NoError(t, err)
	assert.Equal(t, paris, r)
	assert.Equal(t, 2, inner.total())
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: paris}
	cached := NewCachedGeocoder(inner, 2, testMetrics())
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c"} {
		_, err := cached.ForwardGeocode(ctx, q)
		require.NoError(t, err)
	}
	// "a" was least recently used and has been evicted.
	_, err := cached.ForwardGeocode(ctx, "a")
	require.NoError(t, err)
	_, err = cached.ForwardGeocode(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls["a"])
	assert.Equal(t, 1, inner.calls["c"])
}

func TestCachedGeocoder_Concurrent(t *testing.T) {
	inner := &countingGeocoder{result: paris}
	cached := NewCachedGeocoder(inner, 100, testMetrics())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cached.ForwardGeocode(context.Background(), "Paris, France")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, inner.total(), 1)
	assert.LessOrEqual(t, inner.total(), 20)
}
