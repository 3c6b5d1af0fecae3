package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the DDL flavour for InitSchema.
type Dialect string

const (
	DialectSqlite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Initialize the geocode cache schema.
func InitSchema(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	realType := "REAL"
	switch dialect {
	case DialectSqlite:
	case DialectPostgres:
		realType = "DOUBLE PRECISION"
	default:
		return fmt.Errorf("init schema: unknown dialect %q", dialect)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
        query TEXT PRIMARY KEY,
        lon %[1]s NOT NULL,
        lat %[1]s NOT NULL,
        label TEXT NOT NULL
    );
	`, realType)

	statements := []string{
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
