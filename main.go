package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mzohaib/bankdealworker/config"
	"mzohaib/bankdealworker/internal/handler"
	"mzohaib/bankdealworker/internal/pipeline"
	"mzohaib/bankdealworker/internal/scraper"
	"mzohaib/bankdealworker/internal/source"
	"mzohaib/bankdealworker/logger"
	"mzohaib/bankdealworker/services/cache"
	"mzohaib/bankdealworker/services/publisher"
	"mzohaib/bankdealworker/services/repair"
	"mzohaib/bankdealworker/services/search"
	"mzohaib/bankdealworker/services/semantic"
	"mzohaib/bankdealworker/services/state"
	"mzohaib/bankdealworker/services/store"
	"mzohaib/bankdealworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("scrape_interval", cfg.ScrapeInterval).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Storage
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer st.Close()
	log.Info().Str("path", cfg.DatabasePath).Msg("Database ready")

	// Optional services
	var blockCache cache.Cache
	if cfg.MemcacheAddr != "" {
		blockCache = cache.NewMemcacheBlockCache(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	var pub publisher.Publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		defer redisPublisher.Close()
		pub = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	// Scrape side
	searchClient := search.NewSerpClient(cfg.SerpAPIKey)
	var repairer repair.TextRepairer
	if groq := repair.NewGroqRepairer(cfg.GroqAPIKey, cfg.GroqModel); groq != nil {
		repairer = groq
	}
	widgetClient := scraper.NewWidgetClient(cfg.WidgetPageSize, cfg.WidgetMaxPages)
	scr := scraper.New(searchClient, repairer, blockCache, widgetClient, cfg.MaxRepairCalls)

	// Pipeline and query side
	index := semantic.NewIndex(cfg.SemanticIndexPath, cfg.SemanticMetaPath)
	gate := state.NewGate()
	sources := source.Registry()
	pipe := pipeline.New(scr, st, gate, index, pub, sources)

	log.Info().Int("source_count", len(sources)).Msg("Registered bank sources")

	// Start the scrape worker
	w := worker.New(pipe, cfg.ScrapeInterval)
	workerDone := w.Start(ctx)

	// Start the HTTP API
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.New(pipe).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP API listening")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown failed")
	}

	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Scrape worker did not stop in time")
	}
}
