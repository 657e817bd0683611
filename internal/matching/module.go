// Package matching provides the lead / scout registration matching module.
package matching

import (
	"onboarding_backend/internal/events"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/internal/matching/domain"
	"onboarding_backend/internal/matching/handler"
	"onboarding_backend/internal/matching/repository"
	"onboarding_backend/internal/matching/service"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the matching bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the matching repository, service and handler.
func NewModule(
	pool *pgxpool.Pool,
	drivers service.DriverReader,
	eventBus events.Bus,
	rules config.MatchingRules,
	phoneRegion string,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, drivers, eventBus, ConfigFromRules(rules, phoneRegion), log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// ConfigFromRules maps the rules file section onto the scorer configuration.
func ConfigFromRules(rules config.MatchingRules, phoneRegion string) domain.Config {
	return domain.Config{
		Threshold:         rules.Threshold,
		DateToleranceDays: rules.DateToleranceDays,
		DateMarginDays:    rules.DateMarginDays,
		Weights: domain.Weights{
			Date:  rules.Weights.Date,
			Phone: rules.Weights.Phone,
			Name:  rules.Weights.Name,
		},
		MinWordsMatched:     rules.MinWordsMatched,
		IgnoreSecondSurname: rules.IgnoreSecondSurname,
		PhoneRegion:         phoneRegion,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "matching"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts matching routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/matching"))
}

var _ apphttp.Module = (*Module)(nil)
