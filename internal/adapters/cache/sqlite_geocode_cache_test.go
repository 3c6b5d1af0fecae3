package cache

import (
	"context"
	"home-compass-service/internal/adapters/repositories"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/db"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteGeocodeCacheRoundTrip(t *testing.T) {
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, repositories.InitSchema(conn, repositories.DialectSqlite))

	c := NewSqliteGeocodeCache(conn)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "1600 Amphitheatre Pkwy")
	require.NoError(t, err)
	assert.False(t, ok)

	home := domain.Address{
		Coordinates: domain.Coordinates{Lon: -122.084, Lat: 37.422},
		Label:       "1600 Amphitheatre Pkwy, Mountain View, CA",
	}
	require.NoError(t, c.Put(ctx, "1600 Amphitheatre Pkwy", home))

	got, ok, err := c.Get(ctx, "1600 Amphitheatre Pkwy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, home, got)

	// INSERT OR REPLACE overwrites
	home.Label = "Googleplex"
	require.NoError(t, c.Put(ctx, "1600 Amphitheatre Pkwy", home))
	got, _, err = c.Get(ctx, "1600 Amphitheatre Pkwy")
	require.NoError(t, err)
	assert.Equal(t, "Googleplex", got.Label)
}
