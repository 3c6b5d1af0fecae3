package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"home-compass-service/internal/domain"
	"strings"
)

// SQLite backed cache mapping address queries to geocoder results.
// Query keys are expected to be consistent (e.g., normalized)
// by the caller.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch the cached result for an address query.
func (s *SqliteGeocodeCache) Get(ctx context.Context, query string) (domain.Address, bool, error) {
	if s.DB == nil {
		return domain.Address{}, false, errors.New("geocode cache: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Address{}, false, nil
	}

	q := `
	SELECT
        lon,
        lat,
        label
    FROM geocode_cache
    WHERE query = ?;
	`

	var addr domain.Address
	err := s.DB.QueryRowContext(ctx, q, query).Scan(&addr.Lon, &addr.Lat, &addr.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Address{}, false, nil
	}
	if err != nil {
		return domain.Address{}, false, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return addr, true, nil
}

// Store a single address query result.
func (s *SqliteGeocodeCache) Put(ctx context.Context, query string, addr domain.Address) error {
	return s.PutMany(ctx, map[string]domain.Address{query: addr})
}

// Store address query -> result mappings in the cache.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Address) error {
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
	INSERT OR REPLACE INTO geocode_cache (
        query,
        lon,
        lat,
        label
    )
    VALUES (?, ?, ?, ?);
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
