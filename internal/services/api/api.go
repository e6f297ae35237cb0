// Package api provides the HTTP API for the application
package api

import (
	"driftwatch/internal/platform/config"
	"driftwatch/internal/platform/logger"
	phttp "driftwatch/internal/platform/net/http"
	"driftwatch/internal/platform/store"

	"driftwatch/internal/modkit"
	"driftwatch/internal/modkit/httpkit"
	"driftwatch/internal/modkit/module"
	"driftwatch/internal/modkit/swaggerkit"

	metamod "driftwatch/internal/services/api/meta/module"
	runsmod "driftwatch/internal/services/api/runs/module"

	// Worker monitor module (owns the Runner port)
	monitordom "driftwatch/internal/services/monitor/domain"
	monitormod "driftwatch/internal/services/monitor/module"
	monitorsvc "driftwatch/internal/services/monitor/service"
	snapmod "driftwatch/internal/services/snapshots/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Runtime exposes background pieces the binary owns after mounting
type Runtime struct {
	// Scheduler drives periodic sweeps, Start is a no op without a schedule
	Scheduler *monitorsvc.Scheduler
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) *Runtime {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// Construct the snapshots module first and extract its ports
	snapshots := snapmod.New(deps)
	sp := module.MustPortsOf[snapmod.Ports](snapshots)

	// The monitor module consumes the snapshot ports and owns the runner
	monitor := monitormod.New(deps, monitormod.Options{}, modkit.WithPorts(monitordom.Ports{
		Snapshots: sp.Reader,
		Catalog:   sp.Catalog,
		Recorder:  sp.Recorder,
	}))
	runner := module.MustPortsOf[monitormod.Ports](monitor).Runner

	// Inject that runner into the runs API module
	runs := runsmod.New(
		deps,
		modkit.WithPorts(runsmod.Ports{
			Runner: runner,
		}),
	)

	mods := []module.Module{
		metamod.New(deps),
		snapshots, // include snapshots so its ports are registered
		monitor,   // worker module that owns the runner port
		runs,      // API module that depends on the monitor's runner
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	return &Runtime{Scheduler: monitor.Scheduler()}
}
