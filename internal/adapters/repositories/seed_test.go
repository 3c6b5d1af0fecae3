package repositories

import (
	"context"
	"home-compass-service/internal/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSeeder struct {
	rows map[string]domain.Address
}

func (m *memSeeder) PutMany(_ context.Context, rows map[string]domain.Address) error {
	m.rows = rows
	return nil
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSeedFromJSON(t *testing.T) {
	path := writeSeed(t, `[
		{"query": "  1 Infinite   Loop ", "lat": 37.3349, "lon": -122.009, "label": "1 Infinite Loop, Cupertino"},
		{"query": "CN Tower", "lat": 43.6426, "lon": -79.3871}
	]`)
	m := &memSeeder{}

	n, err := SeedFromJSON(context.Background(), m, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "1 Infinite Loop, Cupertino", m.rows["1 Infinite Loop"].Label)
	assert.Equal(t, "CN Tower", m.rows["CN Tower"].Label, "label defaults to the query")
	assert.InDelta(t, -79.3871, m.rows["CN Tower"].Lon, 1e-9)
}

func TestSeedFromJSONRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"empty query":  `[{"query": " ", "lat": 1, "lon": 1}]`,
		"out of range": `[{"query": "x", "lat": 91, "lon": 1}]`,
		"not json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := SeedFromJSON(context.Background(), &memSeeder{}, writeSeed(t, body))
			assert.Error(t, err)
		})
	}
}

func TestInitSchemaRejectsUnknownDialect(t *testing.T) {
	assert.Error(t, InitSchema(nil, DialectSqlite))
}
