package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freepaste/cfg"
	"freepaste/metrics"
	"freepaste/svc/api"
	"freepaste/svc/cache"
	"freepaste/svc/db"
	"freepaste/svc/svc"
	"freepaste/svc/util"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		runHealthProbe()
		return
	}

	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Str("backend", c.StoreBackend).Msg("starting freepaste")
	metrics.Init()

	// Store opened here, closed on shutdown. Handlers never touch
	// connection lifecycle.
	var store db.Store
	var quitWAL chan struct{}
	switch c.StoreBackend {
	case cfg.BackendSQLite:
		sqlDB, err := db.NewSQLiteWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to initialize database")
			os.Exit(1)
		}
		util.Info().Str("path", c.DatabasePath).Msg("database initialized")
		quitWAL = make(chan struct{})
		go db.StartWALMaintenance(sqlDB.DB(), quitWAL)
		util.Info().Msg("WAL maintenance worker started")
		store = sqlDB
	case cfg.BackendRedis:
		rdb, err := db.NewRedis(c.RedisURL, c)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to connect to redis")
			os.Exit(1)
		}
		util.Info().Msg("redis connected")
		store = rdb
	}
	defer store.Close()

	lruCache, err := cache.NewLRU(c.LRUCacheSize)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to create LRU cache")
		os.Exit(1)
	}
	util.Info().Int("size", c.LRUCacheSize).Msg("LRU cache initialized")

	pasteSvc := svc.NewPaste(store, lruCache, c)
	server := api.NewServer(c, pasteSvc, store)

	util.Info().Str("port", c.Port).Str("environment", c.Environment).Msg("server starting")
	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	if quitWAL != nil {
		close(quitWAL)
	}
	util.Info().Msg("shutdown complete")
}

// runHealthProbe is the container healthcheck entrypoint: hit /health on
// the local server and exit accordingly.
func runHealthProbe() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/health")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	os.Exit(0)
}
