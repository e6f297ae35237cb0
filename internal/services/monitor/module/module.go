// Package module implements the monitor module
package module

import (
	"net/http"

	"driftwatch/internal/adapters/vmetrics"
	"driftwatch/internal/modkit"
	"driftwatch/internal/modkit/httpkit"
	"driftwatch/internal/services/monitor/domain"
	"driftwatch/internal/services/monitor/repo"
	"driftwatch/internal/services/monitor/service"
)

// Ports exposed by the monitor module
type Ports struct {
	Runner  domain.RunnerPort
	Emitter domain.EmitterPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
	sched *service.Scheduler
}

// New constructs a new monitor module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("monitor"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("monitor module: expected WithPorts(monitor/domain.Ports)")
	}
	if ports.Snapshots == nil {
		panic("monitor module: Ports missing Snapshots")
	}

	// Merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.Threshold != 0 {
		cfg.Threshold = overrides.Threshold
	}
	if overrides.RunTimeout != 0 {
		cfg.RunTimeout = overrides.RunTimeout
	}
	if overrides.Sink != "" {
		cfg.Sink = overrides.Sink
	}
	// either source may enable concurrent detection
	cfg.Concurrent = cfg.Concurrent || overrides.Concurrent

	// Emitter from telemetry options unless the caller injected one
	emitter := ports.Emitter
	if emitter == nil {
		switch cfg.Sink {
		case "log":
			emitter = service.NewLogEmitter()
		default:
			emitter = vmetrics.NewClient(vmetrics.Options{
				BaseURL:   cfg.BaseURL,
				Namespace: cfg.Namespace,
				Timeout:   cfg.Timeout,
			})
		}
	}

	// Run history goes to ClickHouse when a connection is wired
	history := ports.History
	if history == nil && deps.CH != nil {
		history = repo.NewHistory(deps.CH)
	}

	runner := service.New(domain.Ports{
		Snapshots: ports.Snapshots,
		Catalog:   ports.Catalog,
		Recorder:  ports.Recorder,
		Emitter:   emitter,
		History:   history,
	}, service.Config{
		Threshold:  cfg.Threshold,
		Concurrent: cfg.Concurrent,
		RunTimeout: cfg.RunTimeout,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: runner, Emitter: emitter}
	if ports.Catalog != nil {
		m.sched = service.NewScheduler(runner, ports.Catalog, service.SchedulerConfig{
			Schedule: cfg.Schedule,
			Workers:  cfg.Workers,
		})
	}
	return m
}

// Scheduler returns the sweep loop, nil when no catalog port was wired
func (m *Module) Scheduler() *service.Scheduler { return m.sched }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "monitor" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(_ httpkit.Router) {}
