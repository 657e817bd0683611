// Package jobs provides the milestone batch job module.
package jobs

import (
	"onboarding_backend/internal/events"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/internal/jobs/handler"
	"onboarding_backend/internal/jobs/service"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"
)

// Module is the jobs bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	coordinator *service.Coordinator
}

// NewModule wires the coordinator and handler on top of the milestone engine.
func NewModule(engine service.Engine, eventBus events.Bus, workers int, recorder service.Recorder, val *validator.Validator, log *logger.Logger) *Module {
	coord := service.NewCoordinator(engine, eventBus, workers, log)
	if recorder != nil {
		coord.SetRecorder(recorder)
	}
	return &Module{handler: handler.New(coord, val), coordinator: coord}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobs"
}

// Coordinator returns the job coordinator for the scheduler and shutdown.
func (m *Module) Coordinator() *service.Coordinator {
	return m.coordinator
}

// RegisterRoutes mounts job routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/milestones/jobs"))
}

var _ apphttp.Module = (*Module)(nil)
