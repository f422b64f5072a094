// Package tracker records which tests ran and which snapshot keys they used, and routes
// disk reads and writes to the test that issued them.
//
// Each class has a single owner that serializes every operation on the class usage and
// its snapshot file. Operations on different classes never contend.
//
// A snapshot call is attributed either to the identity carried by its context, or to the
// goroutine binding published by Start. Goroutines spawned by a test are not bound, so
// calls from them must pass the context returned by Start. A test that never finishes
// leaves its binding behind.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/goid"
	"github.com/viant/selfie/metrics"
	"github.com/viant/selfie/snapshot"
)

// Storage persists class snapshot files
type Storage interface {
	// Load returns the class file, an empty file when it does not exist
	Load(ctx context.Context, className string) (*snapshot.File, error)
	// Save writes the class file, deleting it when empty
	Save(ctx context.Context, className string, file *snapshot.File) error
	Delete(ctx context.Context, className string) error
	Exists(ctx context.Context, className string) (bool, error)
}

// Tracker tracks usage per class and method for one test run
type Tracker struct {
	storage               Storage
	catalog               gc.Catalog
	logger                hclog.Logger
	metrics               *metrics.Metrics
	allowEquivalentWrites bool
	immediateFlush        bool

	classes  sync.Map // class name -> *owner
	bindings sync.Map // goroutine id -> Identity
	starts   sync.Map // Identity -> goroutine id
}

type written struct {
	method string
	snap   snapshot.Snapshot
}

type owner struct {
	mux     sync.Mutex
	name    string
	records map[string]*Record
	file    *snapshot.File
	loadErr error
	touched bool
	writes  map[snapshot.Key]*written
}

// StartClass registers a class, calling it is optional
func (t *Tracker) StartClass(className string) {
	t.owner(className)
}

// Start records method as started and binds it to the calling goroutine,
// the returned context carries the identity for calls made from other goroutines
func (t *Tracker) Start(ctx context.Context, className, method string) context.Context {
	identity := Identity{Class: className, Method: method}
	t.withOwner(className, func(o *owner) {
		o.records[method] = &Record{State: StateStarted, Root: gc.KeepNothing(method)}
		for key, prev := range o.writes {
			if prev.method == method {
				delete(o.writes, key)
			}
		}
	})
	id := goid.Current()
	t.bindings.Store(id, identity)
	t.starts.Store(identity, id)
	if ctx == nil {
		ctx = context.Background()
	}
	return WithIdentity(ctx, identity)
}

// Skip records method as skipped, snapshots it already wrote stay
func (t *Tracker) Skip(className, method string) {
	t.withOwner(className, func(o *owner) {
		if record, ok := o.records[method]; ok {
			record.State = StateSkipped
			return
		}
		o.records[method] = &Record{State: StateSkipped, Root: gc.KeepAll(method)}
	})
}

// Finish records method outcome and clears its goroutine binding.
// A method that did not succeed keeps every snapshot it has.
func (t *Tracker) Finish(className, method string, outcome Outcome) {
	t.withOwner(className, func(o *owner) {
		record, ok := o.records[method]
		if !ok {
			record = &Record{Root: gc.KeepNothing(method)}
			o.records[method] = record
		}
		if outcome == OutcomeSucceeded {
			record.State = StateSucceeded
			return
		}
		record.State = StateSkipped
		record.Root = gc.KeepAll(method)
	})
	identity := Identity{Class: className, Method: method}
	if id, ok := t.starts.LoadAndDelete(identity); ok {
		t.bindings.CompareAndDelete(id, identity)
	}
}

// Record returns a copy of method usage
func (t *Tracker) Record(className, method string) (Record, bool) {
	var result Record
	var ok bool
	t.withOwner(className, func(o *owner) {
		var record *Record
		if record, ok = o.records[method]; ok {
			result = *record
		}
	})
	return result, ok
}

// Identity returns the test a call made with ctx is attributed to
func (t *Tracker) Identity(ctx context.Context) (Identity, error) {
	if identity, ok := IdentityFrom(ctx); ok {
		return identity, nil
	}
	id := goid.Current()
	if value, ok := t.bindings.Load(id); ok {
		return value.(Identity), nil
	}
	return Identity{}, &WrongThreadError{Goroutine: id}
}

// Read returns the snapshot for scenario of the calling test, or snapshot.ErrNotFound.
// A found key is kept, a missing one is not.
func (t *Tracker) Read(ctx context.Context, scenario string) (snapshot.Snapshot, error) {
	identity, err := t.Identity(ctx)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	key := snapshot.NewKey(identity.Method, scenario)
	if err = key.Validate(); err != nil {
		return snapshot.Snapshot{}, err
	}
	var result snapshot.Snapshot
	err = t.withOwnerErr(identity.Class, func(o *owner) error {
		file, err := t.load(ctx, o)
		if err != nil {
			return err
		}
		o.touched = true
		snap, ok := file.Get(key)
		t.metrics.RecordRead(ok)
		if !ok {
			return snapshot.ErrNotFound
		}
		o.keep(identity.Method, scenario)
		result = snap
		return nil
	})
	return result, err
}

// Write stores snapshot for scenario of the calling test
func (t *Tracker) Write(ctx context.Context, scenario string, snap snapshot.Snapshot) error {
	identity, err := t.Identity(ctx)
	if err != nil {
		return err
	}
	key := snapshot.NewKey(identity.Method, scenario)
	if err = key.Validate(); err != nil {
		return err
	}
	return t.withOwnerErr(identity.Class, func(o *owner) error {
		file, err := t.load(ctx, o)
		if err != nil {
			return err
		}
		if prev, ok := o.writes[key]; ok {
			if !t.allowEquivalentWrites || prev.snap.Hash() != snap.Hash() || !prev.snap.Equal(snap) {
				return &StaleFileCollisionError{Class: identity.Class, Key: key, Previous: prev.method, Method: identity.Method}
			}
		}
		o.touched = true
		o.writes[key] = &written{method: identity.Method, snap: snap}
		file.Set(key, snap)
		o.keep(identity.Method, scenario)
		t.metrics.RecordWrite()
		if t.immediateFlush && file.IsDirty() {
			return t.storage.Save(ctx, identity.Class, file)
		}
		return nil
	})
}

// Keep marks scenarios of the calling test as used, no scenarios keeps all of them
func (t *Tracker) Keep(ctx context.Context, scenarios ...string) error {
	identity, err := t.Identity(ctx)
	if err != nil {
		return err
	}
	t.withOwner(identity.Class, func(o *owner) {
		record := o.record(identity.Method)
		if len(scenarios) == 0 {
			record.Root = gc.KeepAll(identity.Method)
			return
		}
		for _, scenario := range scenarios {
			record.Root = record.Root.Plus(scenario)
		}
	})
	return nil
}

// FinishClass prunes stale snapshots of the class and saves its file.
// Pruning only happens when the class succeeded and at least one method was seen;
// catalog failures only disable synthetic roots.
func (t *Tracker) FinishClass(ctx context.Context, className string, outcome Outcome) (*gc.Result, error) {
	value, ok := t.classes.LoadAndDelete(className)
	if !ok {
		value = newOwner(className)
	}
	o := value.(*owner)
	o.mux.Lock()
	defer o.mux.Unlock()
	if o.loadErr != nil {
		return nil, o.loadErr
	}
	result := &gc.Result{Class: className}
	if outcome != OutcomeSucceeded || len(o.records) == 0 {
		if o.file != nil && o.file.IsDirty() {
			return result, t.storage.Save(ctx, className, o.file)
		}
		return result, nil
	}

	roots := make([]gc.Root, 0, len(o.records))
	for method, record := range o.records {
		roots = append(roots, record.gcRoot(method))
	}
	notRun, err := gc.MethodsNotRun(t.catalog, className, func(method string) bool {
		_, ok := o.records[method]
		return ok
	})
	catalogFailed := err != nil
	if catalogFailed {
		t.logger.Warn("failed to list test methods, skipping synthetic gc roots", "class", className, "error", err)
		notRun = nil
	}

	if !o.touched {
		exists, err := t.storage.Exists(ctx, className)
		if err != nil || !exists {
			return result, err
		}
		if !catalogFailed && gc.IsUnusedFileStale(true, roots, notRun) {
			if err = t.storage.Delete(ctx, className); err != nil {
				return nil, err
			}
			result.WholeFile = true
			t.metrics.RecordPrunedFile()
			t.logger.Info("pruned unused snapshot file", "class", className)
			return result, nil
		}
	}
	file, err := t.load(ctx, o)
	if err != nil {
		return nil, err
	}
	result.Stale = gc.FindStale(file.Keys(), gc.WithNotRun(roots, notRun))
	if removed := file.Remove(result.Stale...); removed > 0 {
		t.metrics.RecordStaleKeys(removed)
		t.logger.Info("pruned stale snapshots", "class", className, "keys", fmt.Sprint(result.Stale))
	}
	if file.IsDirty() {
		if err = t.storage.Save(ctx, className, file); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// load returns class file, a load failure is remembered and returned for every later call
func (t *Tracker) load(ctx context.Context, o *owner) (*snapshot.File, error) {
	if o.loadErr != nil {
		return nil, o.loadErr
	}
	if o.file != nil {
		return o.file, nil
	}
	file, err := t.storage.Load(ctx, o.name)
	if err != nil {
		o.loadErr = err
		t.logger.Error("failed to load snapshot file", "class", o.name, "error", err)
		return nil, err
	}
	o.file = file
	return file, nil
}

func (t *Tracker) owner(className string) *owner {
	if value, ok := t.classes.Load(className); ok {
		return value.(*owner)
	}
	value, _ := t.classes.LoadOrStore(className, newOwner(className))
	return value.(*owner)
}

func (t *Tracker) withOwner(className string, fn func(o *owner)) {
	o := t.owner(className)
	o.mux.Lock()
	defer o.mux.Unlock()
	fn(o)
}

func (t *Tracker) withOwnerErr(className string, fn func(o *owner) error) error {
	o := t.owner(className)
	o.mux.Lock()
	defer o.mux.Unlock()
	return fn(o)
}

func (o *owner) record(method string) *Record {
	record, ok := o.records[method]
	if !ok {
		record = &Record{State: StateStarted, Root: gc.KeepNothing(method)}
		o.records[method] = record
	}
	return record
}

func (o *owner) keep(method, scenario string) {
	record := o.record(method)
	record.Root = record.Root.Plus(scenario)
}

func newOwner(className string) *owner {
	return &owner{name: className, records: map[string]*Record{}, writes: map[snapshot.Key]*written{}}
}

// New creates a tracker persisting snapshot files with storage
func New(storage Storage, opts ...Option) *Tracker {
	ret := &Tracker{storage: storage, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
