// Package milestones provides the milestone engine module.
package milestones

import (
	"onboarding_backend/internal/events"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/internal/milestones/handler"
	"onboarding_backend/internal/milestones/repository"
	"onboarding_backend/internal/milestones/service"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the milestones bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	engine  *service.Engine
}

// NewModule wires the milestone repository, engine and handler.
func NewModule(pool *pgxpool.Pool, trips service.TripReader, eventBus events.Bus, pageSize int, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	engine := service.NewEngine(trips, repo, eventBus, pageSize, log)
	return &Module{handler: handler.New(engine, val), engine: engine}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "milestones"
}

// Engine returns the milestone engine for the job coordinator and scheduler.
func (m *Module) Engine() *service.Engine {
	return m.engine
}

// RegisterRoutes mounts milestone routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/milestones"))
}

var _ apphttp.Module = (*Module)(nil)
