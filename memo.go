package selfie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viant/selfie/inline"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
)

// Memo computes a value once and caches it in the class snapshot file.
// In read mode the stored value is returned without computing, in write mode
// or when the call carries a selfieonce/selfiewrite marker it is recomputed and stored.
type Memo[T any] struct {
	engine   *Engine
	ctx      context.Context
	compute  func() (T, error)
	encode   func(T) (snapshot.Snapshot, error)
	decode   func(snapshot.Snapshot) (T, error)
	scenario string
	call     *layout.CallLocation
}

// Memoize caches a text value of the test identified by ctx
func (e *Engine) Memoize(ctx context.Context, fn func() (string, error)) *Memo[string] {
	return &Memo[string]{
		engine:  e,
		ctx:     ctx,
		compute: fn,
		encode: func(value string) (snapshot.Snapshot, error) {
			return snapshot.Of(value), nil
		},
		decode: func(snap snapshot.Snapshot) (string, error) {
			return snap.Primary().Text()
		},
	}
}

// MemoizeBinary caches a binary value of the test identified by ctx
func (e *Engine) MemoizeBinary(ctx context.Context, fn func() ([]byte, error)) *Memo[[]byte] {
	return &Memo[[]byte]{
		engine:  e,
		ctx:     ctx,
		compute: fn,
		encode: func(value []byte) (snapshot.Snapshot, error) {
			return snapshot.OfBinary(value), nil
		},
		decode: func(snap snapshot.Snapshot) ([]byte, error) {
			return snap.Primary().Bytes(), nil
		},
	}
}

// MemoizeJSON caches a value as indented JSON text
func MemoizeJSON[T any](e *Engine, ctx context.Context, fn func() (T, error)) *Memo[T] {
	return &Memo[T]{
		engine:  e,
		ctx:     ctx,
		compute: fn,
		encode: func(value T) (snapshot.Snapshot, error) {
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return snapshot.Snapshot{}, fmt.Errorf("failed to encode memo: %w", err)
			}
			return snapshot.Of(string(data)), nil
		},
		decode: func(snap snapshot.Snapshot) (T, error) {
			var result T
			text, err := snap.Primary().Text()
			if err != nil {
				return result, err
			}
			if err = json.Unmarshal([]byte(text), &result); err != nil {
				return result, fmt.Errorf("failed to decode memo: %w", err)
			}
			return result, nil
		},
	}
}

// Scenario names the memo within the test, the key becomes method/scenario
func (m *Memo[T]) Scenario(name string) *Memo[T] {
	ret := *m
	ret.scenario = name
	return &ret
}

// At sets the call location
func (m *Memo[T]) At(call layout.CallLocation) *Memo[T] {
	ret := *m
	ret.call = &call
	return &ret
}

// ToMatchDisk returns the stored value, computing and storing it when writes are allowed
func (m *Memo[T]) ToMatchDisk() (T, error) {
	return m.resolve(false, callerLocation(2))
}

// ToMatchDiskTODO computes and stores the value and renames the call to ToMatchDisk
func (m *Memo[T]) ToMatchDiskTODO() (T, error) {
	return m.resolve(true, callerLocation(2))
}

func (m *Memo[T]) resolve(todo bool, caller layout.CallLocation) (T, error) {
	var zero T
	e := m.engine
	identity, err := e.tracker.Identity(m.ctx)
	if err != nil {
		return zero, err
	}
	call := caller
	if m.call != nil {
		call = *m.call
	}
	if call.Class == "" || m.call == nil {
		call.Class = identity.Class
	}

	var site *inline.Site
	switch {
	case todo:
		if site, err = e.inline.Inspect(m.ctx, call, inline.FamilyDisk); err != nil {
			return zero, err
		}
	case !e.settings.IsWrite():
		if site, err = e.inline.Inspect(m.ctx, call, inline.FamilyDisk); err != nil {
			e.logger.Trace("no memo call site", "call", call.String(), "error", err)
			site = nil
		}
	}
	write := todo || e.settings.IsWrite() || (site != nil && site.Marker != inline.MarkerNone)
	if !write {
		stored, err := e.tracker.Read(m.ctx, m.scenario)
		if errors.Is(err, snapshot.ErrNotFound) {
			return zero, &DiskMismatchError{Call: call, Key: snapshot.NewKey(identity.Method, m.scenario)}
		}
		if err != nil {
			return zero, err
		}
		return m.decode(stored)
	}

	value, err := m.compute()
	if err != nil {
		return zero, err
	}
	snap, err := m.encode(value)
	if err != nil {
		return zero, err
	}
	if err = e.tracker.Write(m.ctx, m.scenario, snap); err != nil {
		return zero, err
	}
	if site == nil {
		e.stripOnce(m.ctx, call)
		return value, nil
	}
	return value, e.inline.Apply(site, inline.Rewrite{Pin: todo, StripOnce: true})
}
