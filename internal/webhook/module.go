package webhook

import (
	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/platform/logger"
)

// Module is the outcome-ingestion bounded context module implementing
// http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the webhook module. The archiver may be nil when object
// storage is not configured.
func NewModule(leads LeadStore, archive TranscriptArchiver, bus events.Bus, log *logger.Logger) *Module {
	svc := NewService(leads, archive, bus, log)
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// Service returns the webhook service for cross-module wiring.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the provider callback routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
