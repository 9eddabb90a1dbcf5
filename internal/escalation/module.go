package escalation

import (
	"leadline_backend/internal/escalation/cache"
	"leadline_backend/internal/escalation/token"
	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	leadrepo "leadline_backend/internal/leads/repository"
	tenantrepo "leadline_backend/internal/tenants/repository"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
)

// Module is the escalation bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	engine  *Engine
	sweeper *Sweeper
}

// ModuleDeps carries the cross-module collaborators of the escalation module.
type ModuleDeps struct {
	Leads    *leadrepo.Repository
	Tenants  *tenantrepo.Repository
	Notifier Notifier
	Voice    CallInitiator
	Bus      events.Bus
}

// NewModule creates the escalation module. The codec and cache are built
// here from configuration; everything else arrives wired from the
// composition root.
func NewModule(cfg interface {
	config.EscalationConfig
	config.CacheConfig
}, deps ModuleDeps, log *logger.Logger) *Module {
	codec := token.NewCodec(cfg)
	timeoutCache := cache.New(cfg, log)

	engine := NewEngine(
		deps.Leads,
		deps.Tenants,
		codec,
		timeoutCache,
		deps.Notifier,
		deps.Voice,
		deps.Bus,
		cfg.GetClaimBaseURL(),
		cfg.GetDefaultClaimTimeout(),
		log,
	)
	sweeper := NewSweeper(deps.Leads, engine, log)

	return &Module{
		handler: NewHandler(engine, sweeper, cfg.GetClaimResultURL()),
		engine:  engine,
		sweeper: sweeper,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "escalation"
}

// Engine returns the escalation engine for cross-module wiring.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Sweeper returns the sweeper for the scheduler worker.
func (m *Module) Sweeper() *Sweeper {
	return m.sweeper
}

// RegisterRoutes mounts the claim and cron routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.Public)
	m.handler.RegisterCronRoutes(ctx.Cron)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
