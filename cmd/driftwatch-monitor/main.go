package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"driftwatch/internal/core/drift"
	"driftwatch/internal/modkit"
	"driftwatch/internal/modkit/module"
	"driftwatch/internal/modkit/repokit"
	"driftwatch/internal/platform/config"
	"driftwatch/internal/platform/logger"
	"driftwatch/internal/platform/store"

	monitordom "driftwatch/internal/services/monitor/domain"
	monitormod "driftwatch/internal/services/monitor/module"

	snapdom "driftwatch/internal/services/snapshots/domain"
	snapmod "driftwatch/internal/services/snapshots/module"
	snapsvc "driftwatch/internal/services/snapshots/service"
)

func setEnvIfSet(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	root := config.New()
	l := logger.Get()

	var (
		model      = flag.String("model", "", "model id (falls back to MODEL_ID, then demo-model)")
		env        = flag.String("environment", "", "deployment environment (falls back to ENVIRONMENT, then dev)")
		threshold  = flag.Float64("threshold", 0, "detection threshold (0 = configured default)")
		concurrent = flag.Bool("concurrent", false, "run the three detectors concurrently")
		timeout    = flag.Duration("timeout", 0, "per run timeout (0 = configured default)")
		demo       = flag.Bool("demo", false, "seeded synthetic snapshot and log emitter, no stores")
		seed       = flag.Int64("seed", snapsvc.DefaultSeed, "demo generator seed")
		pretty     = flag.Bool("pretty", false, "indent the report JSON")
	)
	flag.Parse()

	ref := snapdom.Ref{ModelID: *model, Environment: *env}
	if ref.ModelID == "" {
		ref.ModelID = envOr("MODEL_ID", "demo-model")
	}
	if ref.Environment == "" {
		ref.Environment = envOr("ENVIRONMENT", "dev")
	}

	// Demo runs rewire CORE_SNAPSHOTS_* / CORE_TELEMETRY_* before modules read them
	if *demo {
		setEnvIfSet("CORE_SNAPSHOTS_SOURCE", "synthetic")
		setEnvIfSet("CORE_SNAPSHOTS_SEED", strconv.FormatInt(*seed, 10))
		setEnvIfSet("CORE_TELEMETRY_SINK", "log")
	}

	deps := modkit.Deps{
		Cfg: root,
		Log: *l,
	}

	// stores are only needed when snapshots come from the observation store
	if root.Prefix("CORE_SNAPSHOTS_").MayString("SOURCE", "store") == "store" {
		pgCfg := root.Prefix("SERVICE_PGSQL_")
		chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
		st, err := store.Open(context.Background(), store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled: true,
				URL:     chCfg.MustString("DBURL"),
				Role:    "driftwatch",
				Tag:     "monitor",
			},
		}, store.WithLogger(*l))
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		repokit.MustGuard(context.Background(), st)
		deps.PG = st.PG
		deps.CH = st.CH
	}

	// Build the snapshots module first and extract its ports
	sm := snapmod.New(deps)
	sp := module.MustPortsOf[snapmod.Ports](sm)

	// Build the monitor module with ports injected from the snapshots module
	mm := monitormod.New(
		deps,
		monitormod.Options{
			Threshold:  *threshold,
			Concurrent: *concurrent,
			RunTimeout: *timeout,
		},
		modkit.WithPorts(monitordom.Ports{
			Snapshots: sp.Reader,
			Catalog:   sp.Catalog,
			Recorder:  sp.Recorder,
		}),
	)

	// Register ports
	module.Register(sm.Name(), sm.Ports())
	module.Register(mm.Name(), mm.Ports())

	// Kick the runner
	runner := module.MustPortsOf[monitormod.Ports](mm).Runner
	sum, runErr := runner.Run(context.Background(), ref)

	// the report goes to stdout even when a later stage failed
	if sum.Report != nil {
		out, err := marshalReport(sum.Report, *pretty)
		if err != nil {
			l.Fatal().Err(err).Msg("report encode failed")
		}
		fmt.Println(string(out))
	}

	if runErr != nil {
		l.Fatal().
			Err(runErr).
			Str("model_id", ref.ModelID).
			Str("environment", ref.Environment).
			Msg("monitor run failed")
	}
}

func marshalReport(rep *drift.Report, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(rep, "", "  ")
	}
	return json.Marshal(rep)
}
