package geocode

import (
	"context"
	"fmt"
	"home-compass-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memForwardCache struct {
	mu sync.Mutex
	m  map[string]domain.Address
}

func (c *memForwardCache) Get(_ context.Context, q string) (domain.Address, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.m[q]
	return a, ok, nil
}

func (c *memForwardCache) Put(_ context.Context, q string, a domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[q] = a
	return nil
}

type memReverseCache struct {
	mu sync.Mutex
	m  map[domain.Coordinates]string
}

func (c *memReverseCache) Get(_ context.Context, at domain.Coordinates) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.m[at]
	return l, ok, nil
}

func (c *memReverseCache) Put(_ context.Context, at domain.Coordinates, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[at] = label
	return nil
}

const amphitheatreJSON = `{"features":[{"geometry":{"coordinates":[-122.084,37.422]},
"properties":{"label":"1600 Amphitheatre Pkwy, Mountain View, CA"}}]}`

func newTestGeocoder(t *testing.T, h http.HandlerFunc, opts ...Option) *ORSGeocoder {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithBaseURL(srv.URL), WithRetry(3, time.Millisecond)}, opts...)
	g, err := NewORSGeocoder("test-key", opts...)
	require.NoError(t, err)
	return g
}

func TestORSForwardDecodesAndCaches(t *testing.T) {
	var calls atomic.Int32
	cache := &memForwardCache{m: map[string]domain.Address{}}

	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "1600 Amphitheatre Pkwy", r.URL.Query().Get("text"))
		assert.Equal(t, "1", r.URL.Query().Get("size"))
		fmt.Fprint(w, amphitheatreJSON)
	}, WithForwardCache(cache))

	ctx := context.Background()
	got, err := g.Forward(ctx, "  1600   Amphitheatre Pkwy ", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 37.422, got[0].Lat)
	assert.Equal(t, -122.084, got[0].Lon)
	assert.Equal(t, "1600 Amphitheatre Pkwy, Mountain View, CA", got[0].Label)

	again, err := g.Forward(ctx, "1600 Amphitheatre Pkwy", 1)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSForwardNoResults(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	})

	got, err := g.Forward(context.Background(), "zzzz", 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestORSForwardRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, amphitheatreJSON)
	})

	got, err := g.Forward(context.Background(), "1600 Amphitheatre Pkwy", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSForwardDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})

	_, err := g.Forward(context.Background(), "x", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSForwardHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, amphitheatreJSON)
	})

	start := time.Now()
	got, err := g.Forward(context.Background(), "1600 Amphitheatre Pkwy", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestORSForwardRetryAfterStopsAtContextDeadline(t *testing.T) {
	var calls atomic.Int32
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "5")
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Forward(ctx, "1600 Amphitheatre Pkwy", 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("-1", now))
	assert.Zero(t, parseRetryAfter("soon", now))
	assert.Zero(t, parseRetryAfter("", now))
}

func TestRetryDelayCapsServerHint(t *testing.T) {
	wait, ok := retryDelay(&httpStatusError{Code: http.StatusTooManyRequests, RetryAfter: time.Hour}, time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, maxRetryAfter, wait)

	wait, ok = retryDelay(&httpStatusError{Code: http.StatusBadGateway, RetryAfter: time.Hour}, time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, time.Millisecond, wait)

	_, ok = retryDelay(&httpStatusError{Code: http.StatusNotFound}, time.Millisecond)
	assert.False(t, ok)
}

func TestORSReverseUsesPointAndCache(t *testing.T) {
	var calls atomic.Int32
	cache := &memReverseCache{m: map[domain.Coordinates]string{}}
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/geocode/reverse", r.URL.Path)
		assert.Equal(t, "37.3349", r.URL.Query().Get("point.lat"))
		assert.Equal(t, "-122.009", r.URL.Query().Get("point.lon"))
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[-122.009,37.3349]},
			"properties":{"label":"1 Infinite Loop, Cupertino, CA"}}]}`)
	}, WithReverseCache(cache))

	at := domain.Coordinates{Lat: 37.3349, Lon: -122.0090}
	for i := 0; i < 2; i++ {
		got, err := g.Reverse(context.Background(), at, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1 Infinite Loop, Cupertino, CA", got[0].Label)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSRejectsMalformedCoordinates(t *testing.T) {
	g := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[1]}}]}`)
	})

	_, err := g.Forward(context.Background(), "x", 1)
	assert.ErrorContains(t, err, "invalid coordinate format")
}

func TestNewORSGeocoderRequiresKey(t *testing.T) {
	_, err := NewORSGeocoder("")
	assert.Error(t, err)
}
