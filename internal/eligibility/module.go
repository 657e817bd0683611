// Package eligibility provides the scout eligibility and payment module.
package eligibility

import (
	"onboarding_backend/internal/eligibility/domain"
	"onboarding_backend/internal/eligibility/handler"
	"onboarding_backend/internal/eligibility/repository"
	"onboarding_backend/internal/eligibility/service"
	"onboarding_backend/internal/events"
	apphttp "onboarding_backend/internal/http"
	"onboarding_backend/platform/config"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the eligibility bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the eligibility repository, service and handler.
func NewModule(
	pool *pgxpool.Pool,
	milestones service.MilestoneReader,
	activity service.DriverActivity,
	eventBus events.Bus,
	rules config.EligibilityRules,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, milestones, activity, eventBus, RulesFromConfig(rules), log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// RulesFromConfig maps the rules file section onto the eligibility rule.
func RulesFromConfig(rules config.EligibilityRules) domain.Rules {
	amounts := make(map[int]int64, len(rules.AmountsCents))
	for k, v := range rules.AmountsCents {
		amounts[k] = v
	}
	return domain.Rules{
		WindowDays:               rules.WindowDays,
		MinRegistrationsRequired: rules.MinRegistrationsRequired,
		MinConnectionSeconds:     rules.MinConnectionSeconds,
		MilestoneTypes:           append([]int(nil), rules.MilestoneTypes...),
		AmountsCents:             amounts,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "eligibility"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts scout routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/scouts"))
}

var _ apphttp.Module = (*Module)(nil)
