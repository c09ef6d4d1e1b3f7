// Package httpapi wires the four phase endpoints, health/readiness checks,
// and the Prometheus exporter behind shared-secret auth and a Redis-backed
// rate limiter, following the request-logging-and-metrics middleware shape
// the rest of this pipeline's scraping stack was built from uses.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"brandintel/internal/browserpool"
	"brandintel/internal/config"
	"brandintel/internal/metrics"
	"brandintel/internal/orchestrator"
)

// phaseOrchestrator is the Orchestrator's interface as seen by the HTTP
// layer, narrowed so a fake can stand in for handler tests.
type phaseOrchestrator interface {
	BrandSummary(ctx context.Context, brandURL string) (*orchestrator.BrandSummaryResult, error)
	Competitors(ctx context.Context, runID string) (*orchestrator.CompetitorsResult, error)
	CompetitorsAnalyze(ctx context.Context, runID string, domains []string) (*orchestrator.CompetitorsAnalyzeResult, error)
	Kernel(ctx context.Context, runID string) (*orchestrator.KernelResult, error)
}

// Server wires the fiber app over an Orchestrator and the subsystems its
// health checks probe directly.
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	orch   phaseOrchestrator
	pool   *browserpool.Pool
	rdb    *redis.Client
	pingDB func(ctx context.Context) error
	logger *slog.Logger
}

// NewServer constructs the fiber app and registers every route.
// pingDB checks durable-store connectivity for /health; it is a function
// rather than a *pgxpool.Pool so the caller isn't forced to import pgx here.
func NewServer(cfg *config.Config, orch phaseOrchestrator, pool *browserpool.Pool, rdb *redis.Client, pingDB func(ctx context.Context) error, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Millisecond,
	})

	s := &Server{app: app, cfg: cfg, orch: orch, pool: pool, rdb: rdb, pingDB: pingDB, logger: logger}

	app.Use(requestIDMiddleware)
	app.Use(s.loggingMiddleware)

	auth := authMiddleware(cfg.Auth.APIKey)
	rate := rateLimitMiddleware(rdb, cfg.RateLimit.MaxPerMinute)

	// Health/metrics endpoints carry the rate limiter (spec.md §8 scenario
	// 6 rate-limits /health itself) but not the API-key auth middleware,
	// since probes and monitoring hit these without a key.
	app.Get("/health", rate, s.healthHandler)
	app.Get("/health/ready", rate, s.readyHandler)
	app.Get("/health/live", rate, s.liveHandler)
	app.Get("/metrics", rate, func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	v1 := app.Group("/v1", auth, rate)
	v1.Post("/brand-summary", s.brandSummaryHandler)
	v1.Post("/competitors", s.competitorsHandler)
	v1.Post("/competitors/analyze", s.competitorsAnalyzeHandler)
	v1.Post("/kernel", s.kernelHandler)

	return s
}

// loggingMiddleware records request latency and status to both the
// metrics exporter and the structured logger.
func (s *Server) loggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	latency := time.Since(start)
	status := c.Response().StatusCode()
	method := c.Method()
	path := c.Path()

	metrics.RecordRequest(method, path, status, latency.Milliseconds())

	if s.logger != nil {
		s.logger.Info("request",
			"request_id", c.Locals("request_id"),
			"method", method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
		)
	}

	return err
}

// Listen starts the server on the configured host and port.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server, used by main during SIGTERM.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
