package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Le-Vincent56/Procedural-Generation/internal/config"
	"github.com/Le-Vincent56/Procedural-Generation/internal/database"
	"github.com/Le-Vincent56/Procedural-Generation/internal/logger"
	"github.com/Le-Vincent56/Procedural-Generation/internal/server"
	"github.com/Le-Vincent56/Procedural-Generation/internal/tileset"
)

func main() {
	// Parse command-line flags
	addr := flag.String("addr", "", "Listen address (overrides config)")
	configFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	catalogDir := flag.String("catalogs", "", "Path to catalog directory (overrides config)")
	dbFile := flag.String("db", "", "Path to SQLite archive file (overrides config)")
	watch := flag.Bool("watch", false, "Reload catalogs when their files change")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)

	logger.Info("Starting WFC solve service")

	// Load server config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *configFile, "error", err)
		cfg = config.DefaultConfig()
	}

	// Apply flag overrides
	if *addr != "" {
		cfg.Server.ListenAddress = *addr
	}
	if *catalogDir != "" {
		cfg.Catalogs.Directory = *catalogDir
	}
	if *dbFile != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLitePath = *dbFile
	}
	if *watch {
		cfg.Catalogs.Watch = true
	}

	if len(cfg.Server.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.Server.WebSocket.AllowedOrigins) == 1 && cfg.Server.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.Server.WebSocket.AllowedOrigins)
	}

	// Load tile catalogs
	store, err := tileset.NewStore(cfg.Catalogs.Directory)
	if err != nil {
		log.Fatalf("Failed to load catalogs: %v", err)
	}
	logger.Info("Catalogs loaded", "count", store.Len(), "dir", cfg.Catalogs.Directory)
	if _, ok := store.Get(cfg.Catalogs.Default); !ok {
		logger.Warning("Default catalog not found", "catalog", cfg.Catalogs.Default)
	}

	if cfg.Catalogs.Watch {
		watcher, err := tileset.Watch(store)
		if err != nil {
			logger.Warning("Failed to start catalog watcher, hot reload disabled", "error", err)
		} else {
			defer watcher.Close()
			logger.Info("Catalog hot reload enabled", "dir", cfg.Catalogs.Directory)
		}
	}

	// Initialize run archive
	db, err := database.OpenWithConfig(databaseConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	logger.Info("Run archive initialized", "driver", cfg.Database.Driver)

	// Create and start the server
	srv := server.NewServer(cfg.Server.ListenAddress, store, cfg)
	srv.SetDatabase(db)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	logger.Info("Solve service running", "addr", cfg.Server.ListenAddress, "default_catalog", cfg.Catalogs.Default)
	logger.Info("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")
	srv.Shutdown()
	logger.Info("Server stopped")
}

// databaseConfig maps the YAML server config onto the archive's
// connection settings.
func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:     cfg.Database.Driver,
		SQLitePath: cfg.Database.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:     cfg.Database.Postgres.Host,
			Port:     cfg.Database.Postgres.Port,
			User:     cfg.Database.Postgres.User,
			Password: cfg.Database.Postgres.Password,
			Database: cfg.Database.Postgres.Database,
			SSLMode:  cfg.Database.Postgres.SSLMode,
		},
	}
}
