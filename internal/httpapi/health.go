package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// healthHandler reports per-subsystem status: the durable store, the fast
// cache tier, and the browser pool. The overall status is "error" if any
// subsystem is unreachable.
func (s *Server) healthHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if s.pingDB != nil {
		if err := s.pingDB(ctx); err != nil {
			dbStatus = "error"
		}
	}

	redisStatus := "disabled"
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		} else {
			redisStatus = "ok"
		}
	}

	poolStatus := "disabled"
	if s.pool != nil {
		stats := s.pool.Stats()
		if stats.Total > 0 {
			poolStatus = "ok"
		}
	}

	overall := "ok"
	if dbStatus != "ok" || redisStatus == "error" {
		overall = "error"
	}

	resp := HealthResponse{
		Status: overall,
		Subsystems: map[string]HealthStatus{
			"database": {Status: dbStatus},
			"redis":    {Status: redisStatus},
			"browser_pool": {Status: poolStatus},
		},
	}

	status := fiber.StatusOK
	if overall != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

// readyHandler reports whether the process can currently serve traffic:
// the durable store and fast cache must both be reachable.
func (s *Server) readyHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if s.pingDB != nil {
		if err := s.pingDB(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not-ready"})
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not-ready"})
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ready"})
}

// liveHandler reports only that the process is up, independent of
// downstream subsystem health.
func (s *Server) liveHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "alive"})
}
