// Package tenants provides the tenant configuration bounded context: account
// settings and the team member roster the escalation engine notifies.
package tenants

import (
	apphttp "leadline_backend/internal/http"
	"leadline_backend/internal/tenants/handler"
	"leadline_backend/internal/tenants/repository"
	"leadline_backend/internal/tenants/service"
	"leadline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tenants bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the tenants module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tenants"
}

// Repository returns the tenant repository for cross-module wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts tenant routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tenant"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
