package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"strings"
)

// SQLGeocodeCache is a Postgres-backed cache mapping address queries to geocoder results.
// Query keys are expected to be normalized by the caller.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch the cached result for an address query.
func (s *SQLGeocodeCache) Get(ctx context.Context, query string) (_ domain.Address, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Get")(&err)

	if s.DB == nil {
		return domain.Address{}, false, errors.New("geocode cache: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Address{}, false, nil
	}

	q := `
	SELECT lon, lat, label
    FROM geocode_cache
    WHERE query = $1;
	`

	var addr domain.Address
	err = s.DB.QueryRowContext(ctx, q, query).Scan(&addr.Lon, &addr.Lat, &addr.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return addr, true, nil
}

// Store a single address query result.
func (s *SQLGeocodeCache) Put(ctx context.Context, query string, addr domain.Address) error {
	return s.PutMany(ctx, map[string]domain.Address{query: addr})
}

// Store address query -> result mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Address) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (query, lon, lat, label)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (query) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		label = EXCLUDED.label;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for query, a := range results {
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("insert geocode cache: empty query key")
		}

		if _, err := stmt.ExecContext(ctx, query, a.Lon, a.Lat, a.Label); err != nil {
			return fmt.Errorf("insert geocode cache query=%q: %w", query, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
