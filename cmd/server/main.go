/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the feasibility engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, .env, FEASLY_* environment)
  2. Apply command-line flags on top
  3. Initialize SQLite store and result cache
  4. Start the background recalculator
  5. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: FEASLY_PORT or 8080)
  -db       SQLite database path (default: FEASLY_DB_PATH or feasly.db)
            Use ":memory:" for in-memory database
  -cache    memory | redis | none

ENVIRONMENT:
  FEASLY_ENV_FILE selects the .env file (default: .env). Every other key
  is listed in config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Let in-flight recalculations finish
  4. Close cache and database connections

EXAMPLES:
  # Run with file database
  ./server -db="./data/feasly.db"

  # Shared Redis cache, four recalculation workers
  FEASLY_CACHE_BACKEND=redis FEASLY_REDIS_ADDR=redis:6379 FEASLY_RECALC_WORKERS=4 ./server

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feasly/feasibility-engine/api"
	"github.com/feasly/feasibility-engine/cache"
	"github.com/feasly/feasibility-engine/config"
	"github.com/feasly/feasibility-engine/store/sqlite"
)

func main() {
	envFile := os.Getenv("FEASLY_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	cacheBackend := flag.String("cache", cfg.CacheBackend, "Result cache: memory, redis or none")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize cache; fall back to no cache rather than refusing to start
	resultCache, err := cache.New(context.Background(), cache.Options{
		Backend:   *cacheBackend,
		RedisAddr: cfg.RedisAddr,
		TTL:       cfg.CacheTTL,
	})
	if err != nil {
		log.Printf("Warning: cache unavailable, continuing without: %v", err)
		resultCache = cache.Nop{}
	}
	defer resultCache.Close()

	// Initialize handler and recalculator
	handler := api.NewHandler(store, resultCache)
	recalc := api.NewRecalculator(store, resultCache, cfg.RecalcWorkers)
	handler.Recalc = recalc
	recalc.Start()

	// Create router
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api (cache: %s, workers: %d)", *port, *cacheBackend, cfg.RecalcWorkers)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	recalc.Stop()

	log.Println("Server stopped")
}
