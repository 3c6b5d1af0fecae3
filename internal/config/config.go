package config

import (
	"fmt"
	"home-compass-service/internal/platform/logging"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Geocoder   GeocoderConfig   `yaml:"geocoder"`
	GPS        GPSConfig        `yaml:"gps"`
	Sensor     SensorConfig     `yaml:"sensor"`
	Permission PermissionConfig `yaml:"permission"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    logging.Config   `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// Fetch a GPS fix at startup so the current location is ready later.
	RefreshOnStart bool `yaml:"refresh_on_start"`
}

type GeocoderConfig struct {
	Type    string `yaml:"type"` // "ors" or "static"
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Country string `yaml:"country"` // optional boundary.country filter
}

type GPSConfig struct {
	Type     string  `yaml:"type"`      // "nmea", "demo", "static" or "disabled"
	PortPath string  `yaml:"port_path"` // e.g. /dev/ttyGPS
	BaudRate int     `yaml:"baud_rate"`
	Lat      float64 `yaml:"lat"` // demo centre / static fix
	Lon      float64 `yaml:"lon"`
}

type SensorConfig struct {
	Type string `yaml:"type"` // "demo", "push" or "none"
	// Kinds the device exposes; the compass picks rotation_vector before orientation.
	Kinds []string `yaml:"kinds"`
	// Demo sample interval.
	IntervalMs int `yaml:"interval_ms"`
}

type PermissionConfig struct {
	Mode string `yaml:"mode"` // "granted", "prompt" or "denied"
}

type CacheConfig struct {
	Driver      string        `yaml:"driver"` // "sqlite", "postgres" or "none"
	DBPath      string        `yaml:"db_path"`
	DatabaseURL string        `yaml:"database_url"`
	RedisAddr   string        `yaml:"redis_addr"` // empty disables the reverse cache
	ReverseTTL  time.Duration `yaml:"reverse_ttl"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     ":8080",
			RefreshOnStart: true,
		},
		Geocoder: GeocoderConfig{
			Type:    "static",
			BaseURL: "https://api.openrouteservice.org",
		},
		GPS: GPSConfig{
			Type:     "demo",
			PortPath: "/dev/ttyGPS",
			BaudRate: 9600,
			Lat:      37.3349,
			Lon:      -122.0090,
		},
		Sensor: SensorConfig{
			Type:       "demo",
			Kinds:      []string{"rotation_vector", "orientation"},
			IntervalMs: 100,
		},
		Permission: PermissionConfig{Mode: "granted"},
		Cache: CacheConfig{
			Driver:     "sqlite",
			DBPath:     "data/app.db",
			ReverseTTL: 24 * time.Hour,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
	}
}

// Load reads config from a YAML file, then applies .env and environment variable
// overrides. A missing file falls back to defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("load config: parse %q: %w", path, err)
		}
		logrus.WithField("path", path).Info("config loaded")
	case os.IsNotExist(err):
		logrus.WithField("path", path).Info("no config file, using defaults")
	default:
		return nil, fmt.Errorf("load config: read %q: %w", path, err)
	}

	// .env next to the config file first, then the working directory. Real env wins.
	for _, ep := range []string{filepath.Join(filepath.Dir(path), ".env"), ".env"} {
		if err := godotenv.Load(ep); err == nil {
			logrus.WithField("path", ep).Debug("loaded .env")
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) applyEnvOverrides() {
	c.Server.ListenAddr = Get("LISTEN_ADDR", c.Server.ListenAddr)
	c.Geocoder.Type = Get("GEOCODER_TYPE", c.Geocoder.Type)
	c.Geocoder.APIKey = Get("ORS_API_KEY", c.Geocoder.APIKey)
	c.Geocoder.BaseURL = Get("ORS_BASE_URL", c.Geocoder.BaseURL)
	c.GPS.Type = Get("GPS_TYPE", c.GPS.Type)
	c.GPS.PortPath = Get("GPS_PORT", c.GPS.PortPath)
	if v := os.Getenv("GPS_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.GPS.BaudRate = n
		}
	}
	c.Sensor.Type = Get("SENSOR_TYPE", c.Sensor.Type)
	if v := os.Getenv("SENSOR_KINDS"); v != "" {
		c.Sensor.Kinds = splitList(v)
	}
	c.Permission.Mode = Get("PERMISSION_MODE", c.Permission.Mode)
	c.Cache.Driver = Get("CACHE_DRIVER", c.Cache.Driver)
	c.Cache.DBPath = Get("DB_PATH", c.Cache.DBPath)
	c.Cache.DatabaseURL = Get("DATABASE_URL", c.Cache.DatabaseURL)
	c.Cache.RedisAddr = Get("REDIS_ADDR", c.Cache.RedisAddr)
	c.Logging.Level = Get("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = Get("LOG_FORMAT", c.Logging.Format)
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Geocoder.Type == "ors" && strings.TrimSpace(c.Geocoder.APIKey) == "" {
		return fmt.Errorf("validate config: ORS_API_KEY is required for the ors geocoder")
	}
	if c.Cache.Driver == "postgres" && strings.TrimSpace(c.Cache.DatabaseURL) == "" {
		return fmt.Errorf("validate config: DATABASE_URL is required for the postgres cache")
	}
	switch c.Permission.Mode {
	case "granted", "prompt", "denied":
	default:
		return fmt.Errorf("validate config: unknown permission mode %q", c.Permission.Mode)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
