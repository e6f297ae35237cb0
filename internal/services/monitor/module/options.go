package module

import (
	"time"

	"driftwatch/internal/core/drift"
	"driftwatch/internal/platform/config"
)

// Options holds configuration settings for the monitor module
type Options struct {
	Threshold  float64
	Concurrent bool
	Schedule   string
	Workers    int
	RunTimeout time.Duration

	// Telemetry sink selection and backend settings
	Sink      string
	BaseURL   string
	Namespace string
	Timeout   time.Duration
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	mf := cfg.Prefix("CORE_MONITOR_")
	tf := cfg.Prefix("CORE_TELEMETRY_")
	return Options{
		Threshold:  mf.MayFloat64("THRESHOLD", drift.DefaultThreshold),
		Concurrent: mf.MayBool("CONCURRENT", false),
		Schedule:   mf.MayString("SCHEDULE", ""),
		Workers:    mf.MayInt("WORKERS", 4),
		RunTimeout: mf.MayDuration("RUN_TIMEOUT", 2*time.Minute),

		Sink:      tf.MayEnum("SINK", "vm", "vm", "log"),
		BaseURL:   tf.MayString("BASE_URL", ""),
		Namespace: tf.MayString("NAMESPACE", "MLOps/Monitoring"),
		Timeout:   tf.MayDuration("TIMEOUT", 10*time.Second),
	}
}
