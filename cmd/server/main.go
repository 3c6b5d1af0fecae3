package main

import (
	"context"
	"errors"
	"flag"
	"home-compass-service/internal/api"
	"home-compass-service/internal/api/ws"
	"home-compass-service/internal/config"
	"home-compass-service/internal/platform/logging"
	"home-compass-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	demo := flag.Bool("demo", false, "use simulated GPS, sensors and geocoder")
	listen := flag.String("listen", "", "override listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	if *demo {
		cfg.Geocoder.Type = "static"
		cfg.GPS.Type = "demo"
		cfg.Sensor.Type = "demo"
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("config")
	}

	logging.Setup(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	caches, err := openCaches(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer caches.Close()

	geocoder, err := buildGeocoder(cfg.Geocoder, caches)
	if err != nil {
		return err
	}

	gps, closeGPS := buildLocationProvider(cfg.GPS)
	defer closeGPS()

	hub := ws.NewHub()
	defer hub.Close()

	perm, resolver := buildPermission(cfg.Permission, hub)

	workflow, err := services.NewLocationWorkflow(services.LocationDeps{
		Geocoder:   geocoder,
		Location:   gps,
		Permission: perm,
		Notifier:   hub,
		Display:    hub,
	})
	if err != nil {
		return err
	}

	source, feed := buildSensors(cfg.Sensor)
	compass := services.NewCompassController(source, hub, hub)
	defer compass.Deactivate()

	router := api.NewRouter(api.Deps{
		Base:       ctx,
		Location:   workflow,
		Compass:    compass,
		Permission: resolver,
		Hub:        hub,
		Sensors:    feed,
		Checks:     caches.Checks(),
	})

	if cfg.Server.RefreshOnStart {
		// The current location should be ready by the time the user asks for a distance.
		go func() {
			if err := workflow.RefreshGPS(ctx); err != nil {
				logrus.WithError(err).Warn("startup gps refresh failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Refresh calls may wait on a permission prompt.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
