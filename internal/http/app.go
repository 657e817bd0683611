// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"onboarding_backend/internal/events"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.MetricsConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP, JWT and metrics settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics collects request and job metrics. Nil disables /metrics.
	Metrics *metrics.Manager
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
