// Package selfie is a snapshot testing engine.
//
// One Engine serves one test run. The host test framework reports class and test
// lifecycle through the Class and Test callbacks, and tests assert values with
// Expect (snapshots stored in per class files on disk) or ExpectLiteral (expected
// values written inline in the test source). In write mode mismatches are recorded
// instead of failing, inline literals are rewritten on Close, and snapshots no
// longer used by any test are pruned when their class finishes.
package selfie

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/selfie/config"
	"github.com/viant/selfie/disk"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/inline"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/metrics"
	"github.com/viant/selfie/tracker"
)

// Outcome is the result the host reports for a test or class
type Outcome = tracker.Outcome

const (
	Succeeded = tracker.OutcomeSucceeded
	Failed    = tracker.OutcomeFailed
	Aborted   = tracker.OutcomeAborted
)

// Engine runs snapshot assertions for one test run
type Engine struct {
	settings   *config.Settings
	runID      ulid.ULID
	logger     hclog.Logger
	registerer prometheus.Registerer
	catalog    gc.Catalog
	storage    tracker.Storage
	layout     *layout.Layout
	metrics    *metrics.Metrics
	tracker    *tracker.Tracker
	inline     *inline.Engine

	classes    atomic.Int64
	staleKeys  atomic.Int64
	staleFiles atomic.Int64
	closed     atomic.Bool
}

// RunID returns unique id of this run
func (e *Engine) RunID() string {
	return e.runID.String()
}

// Settings returns effective settings
func (e *Engine) Settings() config.Settings {
	return *e.settings
}

// Layout returns snapshot file layout
func (e *Engine) Layout() *layout.Layout {
	return e.layout
}

// Metrics returns engine metrics
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// ClassStarted reports a test class about to run, calling it is optional
func (e *Engine) ClassStarted(className string) {
	e.tracker.StartClass(className)
	e.logger.Trace("class started", "class", className)
}

// ClassFinished prunes stale snapshots of the class and saves its snapshot file
func (e *Engine) ClassFinished(ctx context.Context, className string, outcome Outcome) (*gc.Result, error) {
	e.classes.Add(1)
	result, err := e.tracker.FinishClass(ctx, className, outcome)
	if err != nil {
		e.metrics.RecordError("class_finish")
		e.logger.Error("failed to finish class", "class", className, "outcome", outcome.String(), "error", err)
		return result, fmt.Errorf("failed to finish class %v: %w", className, err)
	}
	if result != nil {
		e.staleKeys.Add(int64(len(result.Stale)))
		if result.WholeFile {
			e.staleFiles.Add(1)
		}
	}
	e.logger.Debug("class finished", "class", className, "outcome", outcome.String())
	return result, nil
}

// TestStarted reports a test about to run on the calling goroutine.
// The returned context identifies the test for snapshot calls made from other goroutines.
func (e *Engine) TestStarted(ctx context.Context, className, method string) context.Context {
	e.logger.Trace("test started", "class", className, "method", method)
	return e.tracker.Start(ctx, className, method)
}

// TestSkipped reports a test that did not run, its snapshots are kept
func (e *Engine) TestSkipped(className, method, reason string) {
	e.tracker.Skip(className, method)
	e.logger.Debug("test skipped", "class", className, "method", method, "reason", reason)
}

// TestFinished reports a finished test, it must be called on the goroutine that started it
func (e *Engine) TestFinished(className, method string, outcome Outcome) {
	e.tracker.Finish(className, method, outcome)
	e.layout.Forget()
	e.logger.Trace("test finished", "class", className, "method", method, "outcome", outcome.String())
}

// Preserve keeps snapshots of the calling test that it did not read or write in this run,
// no scenarios keeps all of them
func (e *Engine) Preserve(ctx context.Context, scenarios ...string) error {
	return e.tracker.Keep(ctx, scenarios...)
}

// Close writes pending source rewrites, the engine must not be used afterwards
func (e *Engine) Close(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	rewritten, err := e.inline.Flush(ctx)
	if err != nil {
		e.metrics.RecordError("flush")
		e.logger.Error("failed to rewrite sources", "error", err)
	}
	e.logger.Info("run finished",
		"mode", string(e.settings.Mode),
		"classes", e.classes.Load(),
		"stale_keys", e.staleKeys.Load(),
		"stale_files", e.staleFiles.Load(),
		"rewritten_files", rewritten)
	return err
}

// New creates an engine for one test run, nil settings are loaded from the SELFIE_ environment
func New(settings *config.Settings, opts ...Option) (*Engine, error) {
	if settings == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()
	ret := &Engine{runID: ulid.Make()}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = hclog.New(&hclog.LoggerOptions{
			Name:   "selfie",
			Level:  settings.LogLevel(),
			Output: os.Stderr,
		})
	}
	ret.logger = ret.logger.With("run_id", ret.runID.String())

	resolved := *settings
	if resolved.Source.Root == "" {
		project, err := layout.DetectProject(ctx, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to detect test root: %w", err)
		}
		resolved.Source.Root = project.TestRoot
		if resolved.Source.ModulePath == "" {
			resolved.Source.ModulePath = project.ModulePath
		}
		ret.logger.Debug("detected project", "type", project.Type, "root", project.TestRoot)
	}
	ret.settings = &resolved

	aLayout, err := layout.New(ctx, resolved.LayoutConfig())
	if err != nil {
		return nil, err
	}
	ret.layout = aLayout
	ret.metrics = metrics.New(ret.registerer)

	if ret.catalog == nil && resolved.Catalog.File != "" {
		catalog, err := gc.LoadCatalog(ctx, resolved.Catalog.File)
		if err != nil {
			return nil, err
		}
		ret.catalog = catalog
	}
	if ret.storage == nil {
		ret.storage = disk.New(aLayout, ret.logger)
	}
	trackerOptions := []tracker.Option{
		tracker.WithLogger(ret.logger),
		tracker.WithMetrics(ret.metrics),
		tracker.WithAllowEquivalentWrites(resolved.Snapshot.Equivalent),
		tracker.WithImmediateFlush(resolved.IsImmediateFlush()),
	}
	if ret.catalog != nil {
		trackerOptions = append(trackerOptions, tracker.WithCatalog(ret.catalog))
	}
	ret.tracker = tracker.New(ret.storage, trackerOptions...)
	ret.inline = inline.New(aLayout,
		inline.WithWrite(resolved.IsWrite()),
		inline.WithLogger(ret.logger),
		inline.WithMetrics(ret.metrics))
	ret.logger.Debug("engine created", "mode", string(resolved.Mode), "root", aLayout.RootFolder())
	return ret, nil
}
