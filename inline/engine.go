// Package inline rewrites assertion calls in test sources.
//
// A call site is located by its line, then the call on that line with a recognized
// name is matched with a locator chosen by file extension: the go parser for Go,
// tree-sitter for Java, Kotlin, Scala and Groovy, and a string and comment aware scanner
// for everything else.
// Rewrites replace the call argument with the canonical literal text, rename TODO
// forms to their pinned name, and remove a write once marker. They are queued
// against the original file text and written by Flush, once per file.
package inline

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/viant/afs"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/metrics"
)

type locator interface {
	locate(location string, src []byte, lines lineIndex, line int) ([]*call, error)
}

func locatorFor(language Language) locator {
	switch language {
	case LanguageGo:
		return goLocator{}
	case LanguageJava:
		return javaLocator{}
	case LanguageKotlin:
		return kotlinLocator
	case LanguageScala:
		return scalaLocator
	case LanguageGroovy:
		return groovyLocator
	}
	return textLocator{}
}

// Site is a located assertion call
type Site struct {
	Path     string
	Language Language
	Line     int
	Name     string
	Form     Form
	Marker   Marker
	Args     string // current argument text

	call        *call
	markerStart int
	markerEnd   int
}

// Rewrite describes changes to a site
type Rewrite struct {
	Pin       bool     // rename a TODO form to its pinned name
	Literal   *Literal // replace call argument
	StripOnce bool     // remove a write once marker
}

// Engine locates and rewrites assertion calls
type Engine struct {
	layout  *layout.Layout
	fs      afs.Service
	write   bool
	logger  hclog.Logger
	metrics *metrics.Metrics
	mirrors sync.Map // path -> *mirror
}

// IsWrite returns true in write mode
func (e *Engine) IsWrite() bool {
	return e.write
}

// CheckLiteral compares a literal assertion and queues its rewrite when policy allows.
// A TODO form always rewrites. A pinned mismatch rewrites with a marker or in write mode,
// otherwise it fails with AssertionMismatchError and the source stays untouched.
func (e *Engine) CheckLiteral(ctx context.Context, callLocation layout.CallLocation, todo bool, expected, actual Literal) error {
	if !todo && expected.Equal(actual) {
		e.metrics.RecordLiteral(metrics.ResultHit)
		return nil
	}
	mismatch := &AssertionMismatchError{Call: callLocation, Expected: expected, Actual: actual}
	site, err := e.Inspect(ctx, callLocation, FamilyInline)
	if err != nil {
		if !todo && !e.write {
			e.logger.Debug("could not inspect call site", "call", callLocation.String(), "error", err)
			e.metrics.RecordLiteral(metrics.ResultMismatch)
			return mismatch
		}
		return err
	}
	rewrite := Rewrite{Literal: &actual, StripOnce: site.Marker == MarkerOnce}
	switch {
	case site.Form.IsTODO():
		rewrite.Pin = true
	case site.Marker == MarkerNone && !e.write:
		e.metrics.RecordLiteral(metrics.ResultMismatch)
		return mismatch
	}
	if err = e.Apply(site, rewrite); err != nil {
		return err
	}
	e.metrics.RecordLiteral(metrics.ResultWritten)
	return nil
}

// Inspect locates the assertion call of family at a call location
func (e *Engine) Inspect(ctx context.Context, callLocation layout.CallLocation, family Family) (*Site, error) {
	location, err := e.layout.SourcePathForCall(callLocation)
	if err != nil {
		return nil, err
	}
	m := e.mirror(location)
	m.mux.Lock()
	defer m.mux.Unlock()
	if err = m.load(ctx, e); err != nil {
		return nil, err
	}
	calls, err := locatorFor(m.language).locate(location, m.source, m.lines, callLocation.Line)
	if err != nil {
		return nil, err
	}
	var candidates []*call
	for _, candidate := range calls {
		if forms[candidate.name].form.Family() == family {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return nil, &CallNotFoundError{Path: location, Line: callLocation.Line, Family: family}
	}
	// a call named on the line itself wins over one merely spanning it
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].line == callLocation.Line && candidates[j].line != callLocation.Line
	})
	found := candidates[0]
	site := &Site{
		Path:     location,
		Language: m.language,
		Line:     found.line,
		Name:     found.name,
		Form:     forms[found.name].form,
		Args:     string(bytes.TrimSpace(m.source[found.argsStart:found.argsEnd])),
		call:     found,
	}
	if start, end, ok := m.lines.bounds(m.source, found.line); ok {
		site.Marker, site.markerStart, site.markerEnd = findMarker(m.source, start, end)
	}
	return site, nil
}

// Apply queues rewrite of a site, the file changes on Flush
func (e *Engine) Apply(site *Site, rewrite Rewrite) error {
	if site == nil || site.call == nil {
		return errors.New("site was nil")
	}
	m := e.mirror(site.Path)
	m.mux.Lock()
	defer m.mux.Unlock()
	var edits []*edit
	if rewrite.Pin {
		if pinned := forms[site.Name].pinned; pinned != site.Name {
			edits = append(edits, &edit{start: site.call.nameStart, end: site.call.nameEnd, text: pinned, line: site.Line})
		}
	}
	if rewrite.Literal != nil {
		edits = append(edits, &edit{start: site.call.argsStart, end: site.call.argsEnd, text: rewrite.Literal.Encode(site.Language), line: site.Line})
	}
	if rewrite.StripOnce && site.Marker == MarkerOnce {
		edits = append(edits, &edit{start: site.markerStart, end: site.markerEnd, line: site.Line})
	}
	for _, candidate := range edits {
		if err := m.add(candidate); err != nil {
			return err
		}
	}
	if len(edits) > 0 {
		e.logger.Debug("queued rewrite", "path", site.Path, "line", site.Line, "call", site.Name, "edits", len(edits))
	}
	return nil
}

// Flush writes every source file with pending rewrites, it returns number of written files
func (e *Engine) Flush(ctx context.Context) (int, error) {
	var errs []error
	written := 0
	e.mirrors.Range(func(key, value interface{}) bool {
		m := value.(*mirror)
		m.mux.Lock()
		defer m.mux.Unlock()
		if len(m.edits) == 0 {
			return true
		}
		updated := m.apply()
		if err := e.fs.Upload(ctx, m.path, 0644, bytes.NewReader(updated)); err != nil {
			errs = append(errs, err)
			return true
		}
		e.logger.Info("rewrote source file", "path", m.path, "edits", len(m.edits))
		m.source = updated
		m.lines = newLineIndex(updated)
		m.edits = nil
		written++
		return true
	})
	e.metrics.RecordRewrittenFiles(written)
	return written, errors.Join(errs...)
}

// Pending returns number of queued edits for a path
func (e *Engine) Pending(location string) int {
	value, ok := e.mirrors.Load(location)
	if !ok {
		return 0
	}
	m := value.(*mirror)
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.edits)
}

func (e *Engine) mirror(location string) *mirror {
	if value, ok := e.mirrors.Load(location); ok {
		return value.(*mirror)
	}
	value, _ := e.mirrors.LoadOrStore(location, &mirror{path: location, language: LanguageOf(location)})
	return value.(*mirror)
}

// New creates an engine resolving call sites with layout
func New(aLayout *layout.Layout, opts ...Option) *Engine {
	ret := &Engine{layout: aLayout, fs: afs.New(), logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
