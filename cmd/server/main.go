/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PCS entitlement engine server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (flags, env, optional config file)
  2. Initialize SQLite claim store
  3. Build the reference snapshot (demo seed or JSON file)
  4. Wire resolver, validation engine, and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  Sources merge in viper: defaults < config file < PCS_* env < flags.

    port                    HTTP port                     (default 8080)
    db                      SQLite path, ":memory:" ok    (default pcs.db)
    rates                   reference snapshot JSON path  (default: seeded demo)
    allow-external-distance enable the external tier      (default false)
    log-level               debug|info|warn|error         (default info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain for 30s, close
  the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - factory/scenario.go: Seeded demo snapshot
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/pcs-engine/api"
	"github.com/warp/pcs-engine/distance"
	"github.com/warp/pcs-engine/factory"
	"github.com/warp/pcs-engine/reference"
	"github.com/warp/pcs-engine/store/sqlite"
	"github.com/warp/pcs-engine/validation"
)

func main() {
	cfg := loadConfig()

	logger := newLogger(cfg.GetString("log-level"))
	slog.SetDefault(logger)

	// Claim version store
	store, err := sqlite.New(cfg.GetString("db"))
	if err != nil {
		logger.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// Reference snapshot
	snap, err := loadSnapshot(cfg.GetString("rates"))
	if err != nil {
		logger.Error("failed to load reference tables", slog.Any("error", err))
		os.Exit(1)
	}

	// Distance resolver: cached table + haversine backstop. The external
	// tier needs a provider implementation injected here; without one the
	// chain simply skips it.
	resolver := distance.NewResolver(
		distance.WithCache(distance.ConusBaseTable()),
		distance.WithGeocoder(distance.ConusBaseGeocoder()),
	)

	engine := validation.NewEngine(logger)

	handler := api.NewHandler(store, snap, resolver, engine, logger,
		cfg.GetBool("allow-external-distance"))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.GetInt("port")),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// loadConfig merges defaults, an optional config file, and PCS_* env vars.
func loadConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("db", "pcs.db")
	v.SetDefault("rates", "")
	v.SetDefault("allow-external-distance", false)
	v.SetDefault("log-level", "info")

	v.SetConfigName("pcs")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.SetEnvPrefix("PCS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func loadSnapshot(path string) (*reference.Snapshot, error) {
	if path == "" {
		return factory.DemoSnapshot(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap := reference.NewSnapshot()
	if err := factory.LoadYear(snap, data); err != nil {
		return nil, err
	}
	return snap, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
