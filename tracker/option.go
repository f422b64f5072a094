package tracker

import (
	"github.com/hashicorp/go-hclog"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/metrics"
)

type Option func(*Tracker)

// WithCatalog sets catalog used to find test methods that did not run
func WithCatalog(catalog gc.Catalog) Option {
	return func(t *Tracker) {
		t.catalog = catalog
	}
}

// WithLogger sets logger
func WithLogger(logger hclog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger.Named("tracker")
		}
	}
}

// WithMetrics sets engine metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithAllowEquivalentWrites permits writing one key twice in a run when both snapshots are equal
func WithAllowEquivalentWrites(allow bool) Option {
	return func(t *Tracker) {
		t.allowEquivalentWrites = allow
	}
}

// WithImmediateFlush saves the class file after every write instead of at class end
func WithImmediateFlush(immediate bool) Option {
	return func(t *Tracker) {
		t.immediateFlush = immediate
	}
}
