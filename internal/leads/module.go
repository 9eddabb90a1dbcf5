// Package leads provides the lead intake and management bounded context.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/internal/leads/handler"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/internal/leads/service"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lead repository for cross-module wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// SetEscalator injects the escalation engine (breaks the module cycle).
func (m *Module) SetEscalator(escalator service.Escalator) {
	m.service.SetEscalator(escalator)
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.Public.Group("", ctx.IntakeRateLimiter.RateLimit()))
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
