// Package module wires runs into the API using modkit
package module

import (
	"net/http"

	modkit "driftwatch/internal/modkit"
	"driftwatch/internal/modkit/httpkit"

	rhttp "driftwatch/internal/services/api/runs/http"
	rsvc "driftwatch/internal/services/api/runs/service"
	monitordom "driftwatch/internal/services/monitor/domain"
)

// Ports declares the required injected worker port(s) for this API module
type Ports struct {
	Runner monitordom.RunnerPort
}

// Module implements the runs API module
type Module struct {
	deps modkit.Deps
	name string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc rsvc.Service
}

// New constructs the runs module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("runs"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Runner == nil {
		panic("runs API module requires Runner port (from services/monitor)")
	}

	svc := rsvc.New(injected.Runner)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = svc

	external := b.Register
	m.register = func(r httpkit.Router) {
		rhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
// Routes span two roots (/runs, /models) so they register directly on the
// version router instead of under one prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return "" }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
