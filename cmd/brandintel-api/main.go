package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"brandintel/internal/browserpool"
	"brandintel/internal/cache"
	"brandintel/internal/config"
	"brandintel/internal/evidence"
	"brandintel/internal/httpapi"
	"brandintel/internal/llmgateway"
	"brandintel/internal/migrate"
	"brandintel/internal/orchestrator"
	"brandintel/internal/runstore"
	"brandintel/internal/scraper"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	if err := migrate.Run(cfg.Database.DSN); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	ctx := context.Background()

	dbPool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open database pool: %v", err)
	}
	defer dbPool.Close()

	redisOpt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("parse redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	pool := browserpool.New()
	if err := pool.Init(cfg.BrowserPool.Size); err != nil {
		log.Fatalf("init browser pool: %v", err)
	}
	defer pool.Close()

	scrapeCache := cache.New(rdb, dbPool, logger)
	scr := scraper.New(pool, scrapeCache, cfg.Scraper, time.Duration(cfg.Cache.TTLScrapingSeconds)*time.Second)

	llm, err := llmgateway.New(cfg.LLM, "")
	if err != nil {
		log.Fatalf("configure llm gateway: %v", err)
	}

	validator := evidence.New()

	runs := runstore.New(dbPool, time.Duration(cfg.Run.ExpirationDays)*24*time.Hour)

	orch := orchestrator.New(scr, llm, validator, runs)

	server := httpapi.NewServer(cfg, orch, pool, rdb, dbPool.Ping, logger)

	go func() {
		logger.Info("listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := server.Listen(); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
