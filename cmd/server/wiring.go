package main

import (
	"context"
	"database/sql"
	"fmt"
	"home-compass-service/internal/adapters/cache"
	"home-compass-service/internal/adapters/geocode"
	"home-compass-service/internal/adapters/location"
	"home-compass-service/internal/adapters/permission"
	"home-compass-service/internal/adapters/repositories"
	"home-compass-service/internal/adapters/sensor"
	"home-compass-service/internal/api/handlers"
	"home-compass-service/internal/api/ws"
	"home-compass-service/internal/config"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/db"
	"home-compass-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// caches holds whichever geocode caches the configuration enabled.
type caches struct {
	db      *sql.DB
	redis   *redis.Client
	forward ports.ForwardGeocodeCache
	reverse ports.ReverseGeocodeCache
}

func openCaches(ctx context.Context, cfg config.CacheConfig) (*caches, error) {
	c := &caches{}

	switch cfg.Driver {
	case "sqlite":
		conn, err := db.OpenSqlite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn, repositories.DialectSqlite); err != nil {
			conn.Close()
			return nil, err
		}
		c.db = conn
		c.forward = cache.NewSqliteGeocodeCache(conn)
	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn, repositories.DialectPostgres); err != nil {
			conn.Close()
			return nil, err
		}
		c.db = conn
		c.forward = cache.NewSQLGeocodeCache(conn)
	case "none", "":
	default:
		return nil, fmt.Errorf("open caches: unknown driver %q", cfg.Driver)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			// The reverse cache is an optimisation; run without it.
			logrus.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable")
		}
		c.redis = client
		c.reverse = cache.NewRedisReverseCache(client, cfg.ReverseTTL)
	}

	logrus.WithFields(logrus.Fields{
		"driver": cfg.Driver,
		"redis":  cfg.RedisAddr != "",
	}).Info("geocode caches ready")
	return c, nil
}

// Checks exposes the open caches to the health endpoint.
func (c *caches) Checks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if c.db != nil {
		checks["geocode_cache"] = c.db.PingContext
	}
	if c.redis != nil {
		checks["reverse_cache"] = func(ctx context.Context) error { return c.redis.Ping(ctx).Err() }
	}
	return checks
}

func (c *caches) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func buildGeocoder(cfg config.GeocoderConfig, c *caches) (ports.Geocoder, error) {
	switch cfg.Type {
	case "ors":
		opts := []geocode.Option{geocode.WithBaseURL(cfg.BaseURL)}
		if cfg.Country != "" {
			opts = append(opts, geocode.WithCountry(cfg.Country))
		}
		if c.forward != nil {
			opts = append(opts, geocode.WithForwardCache(c.forward))
		}
		if c.reverse != nil {
			opts = append(opts, geocode.WithReverseCache(c.reverse))
		}
		return geocode.NewORSGeocoder(cfg.APIKey, opts...)
	case "static":
		logrus.Info("using the built-in address book")
		return geocode.NewStaticGeocoder(geocode.DemoAddressBook(), 500), nil
	default:
		return nil, fmt.Errorf("build geocoder: unknown type %q", cfg.Type)
	}
}

func buildLocationProvider(cfg config.GPSConfig) (ports.LocationProvider, func()) {
	noop := func() {}
	at := domain.Coordinates{Lat: cfg.Lat, Lon: cfg.Lon}

	switch cfg.Type {
	case "nmea":
		gps := location.NewNMEA(location.NMEAConfig{PortPath: cfg.PortPath, BaudRate: cfg.BaudRate})
		if err := gps.Connect(); err != nil {
			// LastKnown retries the port on every call.
			logrus.WithError(err).Warn("gps not connected yet")
		}
		return gps, func() { _ = gps.Close() }
	case "static":
		return location.StaticProvider{Fix: &at}, noop
	case "disabled":
		return location.StaticProvider{}, noop
	default:
		if cfg.Type != "demo" {
			logrus.WithField("type", cfg.Type).Warn("unknown gps type, using demo")
		}
		return location.NewDemoGPS(at), noop
	}
}

// buildPermission returns the gateway plus, in prompt mode, the resolver the
// /permission endpoint answers through. Prompts are announced over the hub.
func buildPermission(cfg config.PermissionConfig, hub *ws.Hub) (ports.PermissionGateway, handlers.PermissionResolver) {
	switch cfg.Mode {
	case "prompt":
		gate := permission.NewPromptGateway(func() {
			hub.Notify("Allow location access? POST /permission to answer.")
		})
		return gate, gate
	case "denied":
		return permission.Fixed{Granted: false}, nil
	default:
		return permission.Fixed{Granted: true}, nil
	}
}

// buildSensors returns the device sensors and, for push sensors, the feed that
// accepts remote readings.
func buildSensors(cfg config.SensorConfig) (*sensor.Source, *ws.SensorFeed) {
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond

	var (
		sensors []ports.OrientationSensor
		pushers []ws.Pusher
	)
	for _, k := range cfg.Kinds {
		kind := domain.SensorKind(k)
		if kind != domain.SensorRotationVector && kind != domain.SensorOrientation {
			logrus.WithField("kind", k).Warn("ignoring unknown sensor kind")
			continue
		}
		switch cfg.Type {
		case "demo":
			sensors = append(sensors, sensor.NewDemoSensor(kind, interval))
		case "push":
			p := sensor.NewPushSensor(kind)
			sensors = append(sensors, p)
			pushers = append(pushers, p)
		}
	}

	if len(sensors) == 0 {
		logrus.WithField("type", cfg.Type).Warn("no sensors configured, compass will run degraded")
	}

	var feed *ws.SensorFeed
	if len(pushers) > 0 {
		feed = ws.NewSensorFeed(pushers...)
	}
	return sensor.NewSource(sensors...), feed
}
