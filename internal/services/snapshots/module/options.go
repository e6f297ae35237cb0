package module

import (
	"time"

	"driftwatch/internal/platform/config"
	"driftwatch/internal/services/snapshots/service"
)

// Options configures the snapshots module
type Options struct {
	// Source selects where Reader snapshots come from:
	// "store" (postgres catalog + clickhouse windows), "http" (remote
	// feature store), or "synthetic" (seeded demo frames)
	Source string

	// BaseURL and HTTPTimeout apply to the http source only
	BaseURL     string
	HTTPTimeout time.Duration

	// Seed applies to the synthetic source only
	Seed int64

	// Window is the current-window span for the store source
	Window time.Duration
}

// FromConfig reads options from config.Conf
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("CORE_SNAPSHOTS_")
	return Options{
		Source:      sf.MayEnum("SOURCE", "store", "store", "http", "synthetic"),
		BaseURL:     sf.MayString("BASE_URL", ""),
		HTTPTimeout: sf.MayDuration("HTTP_TIMEOUT", 10*time.Second),
		Seed:        sf.MayInt64("SEED", service.DefaultSeed),
		Window:      sf.MayDuration("WINDOW", 24*time.Hour),
	}
}
