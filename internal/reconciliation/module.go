// Package reconciliation provides the reconciliation summary module.
package reconciliation

import (
	"onboarding_backend/internal/adapters/storage"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/internal/reconciliation/handler"
	"onboarding_backend/internal/reconciliation/repository"
	"onboarding_backend/internal/reconciliation/service"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reconciliation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the reconciliation repository, service and handler.
// storageSvc may be nil, in which case exports are rejected.
func NewModule(
	pool *pgxpool.Pool,
	storageSvc storage.StorageService,
	bucket string,
	windowDays int,
	milestoneTypes []int,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), storageSvc, bucket, windowDays, milestoneTypes, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reconciliation"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts reconciliation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/reconciliation"))
}

var _ apphttp.Module = (*Module)(nil)
