package main

import (
	"context"
	"database/sql"
	"flag"
	"home-compass-service/internal/adapters/cache"
	"home-compass-service/internal/adapters/repositories"
	"home-compass-service/internal/config"
	"home-compass-service/internal/platform/db"
	"home-compass-service/internal/platform/logging"

	"github.com/sirupsen/logrus"
)

// dbtool prepares the forward geocode cache: it creates the schema and warms it
// with known addresses so the first lookups skip the geocoding API.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	schemaOnly := flag.Bool("schema-only", false, "create the schema without seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	logging.Setup(cfg.Logging)

	conn, seeder, dialect, err := open(cfg.Cache)
	if err != nil {
		logrus.WithError(err).Fatal("open cache database")
	}
	defer conn.Close()

	logrus.WithField("dialect", dialect).Info("initializing schema")
	if err := repositories.InitSchema(conn, dialect); err != nil {
		logrus.WithError(err).Fatal("schema initialization failed")
	}
	if *schemaOnly {
		return
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/addresses.json")
	n, err := repositories.SeedFromJSON(context.Background(), seeder, seedPath)
	if err != nil {
		logrus.WithError(err).Fatal("seeding failed")
	}
	logrus.WithFields(logrus.Fields{"path": seedPath, "rows": n}).Info("seeding complete")
}

func open(cfg config.CacheConfig) (*sql.DB, repositories.GeocodeSeeder, repositories.Dialect, error) {
	if cfg.Driver == "postgres" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, "", err
		}
		return conn, cache.NewSQLGeocodeCache(conn), repositories.DialectPostgres, nil
	}

	conn, err := db.OpenSqlite(cfg.DBPath)
	if err != nil {
		return nil, nil, "", err
	}
	return conn, cache.NewSqliteGeocodeCache(conn), repositories.DialectSqlite, nil
}
