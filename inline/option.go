package inline

import (
	"github.com/hashicorp/go-hclog"
	"github.com/viant/selfie/metrics"
)

type Option func(*Engine)

// WithWrite sets write mode, pinned mismatches are rewritten instead of failing
func WithWrite(write bool) Option {
	return func(e *Engine) {
		e.write = write
	}
}

// WithLogger sets logger
func WithLogger(logger hclog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.Named("inline")
		}
	}
}

// WithMetrics sets engine metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
