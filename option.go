package selfie

import (
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/tracker"
)

type Option func(*Engine)

// WithLogger sets logger, by default the engine logs to stderr at the configured level
func WithLogger(logger hclog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog sets test catalog, it takes precedence over catalog.file
func WithCatalog(catalog gc.Catalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithRegisterer registers engine metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// WithStorage replaces snapshot file storage
func WithStorage(storage tracker.Storage) Option {
	return func(e *Engine) {
		e.storage = storage
	}
}
