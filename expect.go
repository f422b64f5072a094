package selfie

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/viant/selfie/inline"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
)

// DiskExpectation asserts a snapshot against the class snapshot file
type DiskExpectation struct {
	engine   *Engine
	ctx      context.Context
	snap     snapshot.Snapshot
	scenario string
	call     *layout.CallLocation
}

// Expect starts a disk expectation of the test identified by ctx
func (e *Engine) Expect(ctx context.Context, snap snapshot.Snapshot) *DiskExpectation {
	return &DiskExpectation{engine: e, ctx: ctx, snap: snap}
}

// ExpectString starts a disk expectation of a text snapshot
func (e *Engine) ExpectString(ctx context.Context, text string) *DiskExpectation {
	return e.Expect(ctx, snapshot.Of(text))
}

// ExpectBinary starts a disk expectation of a binary snapshot
func (e *Engine) ExpectBinary(ctx context.Context, data []byte) *DiskExpectation {
	return e.Expect(ctx, snapshot.OfBinary(data))
}

// Scenario names the snapshot within the test, the key becomes method/scenario
func (d *DiskExpectation) Scenario(name string) *DiskExpectation {
	ret := *d
	ret.scenario = name
	return &ret
}

// At sets the assertion call location, hosts reporting their own stack use it
// instead of the Go caller
func (d *DiskExpectation) At(call layout.CallLocation) *DiskExpectation {
	ret := *d
	ret.call = &call
	return &ret
}

// ToMatchDisk compares the snapshot with the stored one
func (d *DiskExpectation) ToMatchDisk() error {
	return d.check(false, callerLocation(2))
}

// ToMatchDiskTODO records the snapshot and renames the call to ToMatchDisk
func (d *DiskExpectation) ToMatchDiskTODO() error {
	return d.check(true, callerLocation(2))
}

func (d *DiskExpectation) check(todo bool, caller layout.CallLocation) error {
	e := d.engine
	identity, err := e.tracker.Identity(d.ctx)
	if err != nil {
		return err
	}
	call := caller
	if d.call != nil {
		call = *d.call
	}
	if call.Class == "" || d.call == nil {
		call.Class = identity.Class
	}
	if todo {
		site, err := e.inline.Inspect(d.ctx, call, inline.FamilyDisk)
		if err != nil {
			return err
		}
		if err = e.tracker.Write(d.ctx, d.scenario, d.snap); err != nil {
			return err
		}
		return e.inline.Apply(site, inline.Rewrite{Pin: true, StripOnce: true})
	}
	if e.settings.IsWrite() {
		if err = e.tracker.Write(d.ctx, d.scenario, d.snap); err != nil {
			return err
		}
		e.stripOnce(d.ctx, call)
		return nil
	}

	stored, err := e.tracker.Read(d.ctx, d.scenario)
	missing := errors.Is(err, snapshot.ErrNotFound)
	if err != nil && !missing {
		return err
	}
	if !missing && stored.Equal(d.snap) {
		return nil
	}
	if site, err := e.inline.Inspect(d.ctx, call, inline.FamilyDisk); err == nil && site.Marker != inline.MarkerNone {
		if err = e.tracker.Write(d.ctx, d.scenario, d.snap); err != nil {
			return err
		}
		return e.inline.Apply(site, inline.Rewrite{StripOnce: true})
	}
	mismatch := &DiskMismatchError{Call: call, Key: snapshot.NewKey(identity.Method, d.scenario), Actual: d.snap}
	if !missing {
		mismatch.Expected = &stored
	}
	return mismatch
}

// stripOnce removes a write once marker after a write mode write, failures are only logged
func (e *Engine) stripOnce(ctx context.Context, call layout.CallLocation) {
	site, err := e.inline.Inspect(ctx, call, inline.FamilyDisk)
	if err != nil {
		e.logger.Trace("no call site to clean", "call", call.String(), "error", err)
		return
	}
	if site.Marker != inline.MarkerOnce {
		return
	}
	if err = e.inline.Apply(site, inline.Rewrite{StripOnce: true}); err != nil {
		e.logger.Warn("failed to remove selfieonce marker", "call", call.String(), "error", err)
	}
}

// LiteralExpectation asserts a value against a literal written in the test source
type LiteralExpectation struct {
	engine *Engine
	ctx    context.Context
	actual interface{}
	call   *layout.CallLocation
}

// ExpectLiteral starts an inline literal expectation, supported values are
// integers, bool and string
func (e *Engine) ExpectLiteral(ctx context.Context, actual interface{}) *LiteralExpectation {
	return &LiteralExpectation{engine: e, ctx: ctx, actual: actual}
}

// At sets the assertion call location
func (l *LiteralExpectation) At(call layout.CallLocation) *LiteralExpectation {
	ret := *l
	ret.call = &call
	return &ret
}

// ToBe compares the actual value with the expected literal
func (l *LiteralExpectation) ToBe(expected interface{}) error {
	return l.check(false, expected, callerLocation(2))
}

// ToBeTODO writes the actual value into the source and renames the call to ToBe
func (l *LiteralExpectation) ToBeTODO(expected ...interface{}) error {
	var want interface{}
	if len(expected) > 0 {
		want = expected[0]
	}
	return l.check(true, want, callerLocation(2))
}

func (l *LiteralExpectation) check(todo bool, expected interface{}, caller layout.CallLocation) error {
	actual, err := inline.Of(l.actual)
	if err != nil {
		return err
	}
	var want inline.Literal
	if expected != nil {
		if want, err = inline.Of(expected); err != nil {
			return err
		}
	}
	call := caller
	if l.call != nil {
		call = *l.call
	}
	return l.engine.inline.CheckLiteral(l.ctx, call, todo, want, actual)
}

// callerLocation returns location of the function skip frames above it
func callerLocation(skip int) layout.CallLocation {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return layout.CallLocation{}
	}
	return layout.CallLocation{
		Class:    classOf(pc, file),
		FileName: filepath.Base(file),
		Path:     file,
		Line:     line,
	}
}

// classOf returns package path qualified file name: github.com/acme/app/pkg.service_test
func classOf(pc uintptr, file string) string {
	base := strings.TrimSuffix(filepath.Base(file), ".go")
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return base
	}
	name := fn.Name()
	lastSlash := strings.LastIndexByte(name, '/')
	dot := strings.IndexByte(name[lastSlash+1:], '.')
	if dot == -1 {
		return base
	}
	return name[:lastSlash+1+dot] + "." + base
}
