// Package module provides the snapshots module
package module

import (
	"net/http"

	"driftwatch/internal/adapters/featurestore"
	"driftwatch/internal/modkit"
	"driftwatch/internal/modkit/httpkit"
	"driftwatch/internal/services/snapshots/domain"
	"driftwatch/internal/services/snapshots/repo"
	"driftwatch/internal/services/snapshots/service"
)

// Ports exposed by the snapshots module
type Ports struct {
	Reader   domain.ReaderPort
	Catalog  domain.CatalogPort
	Recorder domain.RecorderPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new snapshots module
// The catalog and recorder are store backed and stay nil without postgres;
// only the reader switches with Options.Source
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	var backed *service.Service
	if deps.PG != nil {
		backed = service.New(deps.PG, repo.NewPG(), repo.NewWindows(deps.CH), service.Config{
			CurrentWindow: opts.Window,
		})
	}

	var reader domain.ReaderPort
	switch opts.Source {
	case "http":
		reader = featurestore.NewClient(featurestore.Options{
			BaseURL: opts.BaseURL,
			Timeout: opts.HTTPTimeout,
		})
	case "synthetic":
		reader = service.NewSynthetic(opts.Seed)
	default:
		if backed == nil {
			panic("snapshots module: store source requires postgres")
		}
		if deps.CH == nil {
			panic("snapshots module: store source requires clickhouse")
		}
		reader = backed
	}

	m := &Module{deps: deps}
	m.ports = Ports{Reader: reader}
	if backed != nil {
		m.ports.Catalog = backed
		m.ports.Recorder = backed
	}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "snapshots" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
