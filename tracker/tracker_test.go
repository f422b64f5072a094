package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/selfie/disk"
	"github.com/viant/selfie/gc"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
	"github.com/viant/selfie/tracker"
)

const className = "com.example.FooTest"

func newStore(t *testing.T) *disk.Store {
	t.Helper()
	cfg := layout.DefaultConfig()
	cfg.RootFolder = t.TempDir()
	aLayout, err := layout.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}
	return disk.New(aLayout, nil)
}

func seed(t *testing.T, store *disk.Store, content string) {
	t.Helper()
	location := store.Path(className)
	if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(location, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readKeys(t *testing.T, store *disk.Store) []snapshot.Key {
	t.Helper()
	file, err := store.Load(context.Background(), className)
	if err != nil {
		t.Fatal(err)
	}
	return file.Keys()
}

func TestTracker_ReadWrite(t *testing.T) {
	store := newStore(t)
	aTracker := tracker.New(store)
	aTracker.StartClass(className)
	ctx := aTracker.Start(context.Background(), className, "test1")

	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("a")))
	assert.NoError(t, aTracker.Write(context.Background(), "x", snapshot.Of("b")), "goroutine binding")

	snap, err := aTracker.Read(ctx, "x")
	assert.NoError(t, err)
	assert.True(t, snap.Equal(snapshot.Of("b")))

	_, err = aTracker.Read(ctx, "missing")
	assert.True(t, errors.Is(err, snapshot.ErrNotFound))

	record, ok := aTracker.Record(className, "test1")
	assert.True(t, ok)
	assert.Equal(t, tracker.StateStarted, record.State)
	assert.Equal(t, []string{"", "x"}, record.Root.Suffixes())

	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)
	_, err = aTracker.Read(context.Background(), "x")
	var wrongThread *tracker.WrongThreadError
	assert.True(t, errors.As(err, &wrongThread), "binding is cleared by finish")

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, []snapshot.Key{"test1", "test1/x"}, readKeys(t, store))
}

func TestTracker_WrongThread(t *testing.T) {
	aTracker := tracker.New(newStore(t))
	ctx := aTracker.Start(context.Background(), className, "test1")

	errs := make(chan error, 2)
	go func() {
		errs <- aTracker.Write(context.Background(), "", snapshot.Of("x"))
		errs <- aTracker.Write(ctx, "", snapshot.Of("x"))
	}()
	err := <-errs
	var wrongThread *tracker.WrongThreadError
	assert.True(t, errors.As(err, &wrongThread))
	assert.True(t, errors.Is(err, tracker.ErrNoIdentity))
	assert.NoError(t, <-errs, "explicit identity works from any goroutine")
}

func TestTracker_Collision(t *testing.T) {
	tests := []struct {
		name        string
		allow       bool
		second      snapshot.Snapshot
		expectError bool
	}{
		{name: "repeated write is an error", second: snapshot.Of("a"), expectError: true},
		{name: "equivalent write allowed", allow: true, second: snapshot.Of("a")},
		{name: "different write rejected even when allowed", allow: true, second: snapshot.Of("b"), expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aTracker := tracker.New(newStore(t), tracker.WithAllowEquivalentWrites(tt.allow))
			ctx := aTracker.Start(context.Background(), className, "test1")
			assert.NoError(t, aTracker.Write(ctx, "s", snapshot.Of("a")))
			err := aTracker.Write(ctx, "s", tt.second)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			var collision *tracker.StaleFileCollisionError
			if assert.True(t, errors.As(err, &collision)) {
				assert.Equal(t, snapshot.Key("test1/s"), collision.Key)
			}
		})
	}
}

func TestTracker_RestartClearsWrites(t *testing.T) {
	aTracker := tracker.New(newStore(t))
	ctx := aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("a")))
	aTracker.Finish(className, "test1", tracker.OutcomeFailed)
	ctx = aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("b")))
}

func TestTracker_FinishClass_GC(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ gone ═╗\n0\n╔═ test1 ═╗\n1\n╔═ test1/old ═╗\n1\n╔═ test2 ═╗\n2\n╔═ test2/x ═╗\n2\n╔═ test3 ═╗\n3\n╔═ [end of file] ═╗\n")
	catalog := gc.StaticCatalog{className: {"test1", "test2", "test3"}}
	aTracker := tracker.New(store, tracker.WithCatalog(catalog))

	ctx := aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("1")))
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)

	ctx = aTracker.Start(context.Background(), className, "test2")
	_, err := aTracker.Read(ctx, "never")
	assert.Error(t, err)
	aTracker.Finish(className, "test2", tracker.OutcomeFailed)

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	if !assert.NoError(t, err) {
		return
	}
	assert.False(t, result.WholeFile)
	assert.Equal(t, []snapshot.Key{"gone", "test1/old", "test3"}, result.Stale)
	assert.Equal(t, []snapshot.Key{"test1", "test2", "test2/x"}, readKeys(t, store))
}

func TestTracker_FinishClass_UnusedFile(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ old ═╗\n0\n╔═ [end of file] ═╗\n")
	aTracker := tracker.New(store, tracker.WithCatalog(gc.StaticCatalog{className: {"test1"}}))
	aTracker.Start(context.Background(), className, "test1")
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.NoError(t, err)
	assert.True(t, result.WholeFile)
	ok, _ := store.Exists(context.Background(), className)
	assert.False(t, ok)
}

func TestTracker_FinishClass_Preserve(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ test1/linux ═╗\n0\n╔═ test1/mac ═╗\n1\n╔═ [end of file] ═╗\n")
	aTracker := tracker.New(store, tracker.WithCatalog(gc.StaticCatalog{className: {"test1"}}))
	ctx := aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Keep(ctx, "mac"))
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.NoError(t, err)
	assert.Equal(t, []snapshot.Key{"test1/linux"}, result.Stale)
	assert.Equal(t, []snapshot.Key{"test1/mac"}, readKeys(t, store))
}

func TestTracker_FinishClass_Failed(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ other ═╗\n0\n╔═ [end of file] ═╗\n")
	aTracker := tracker.New(store)
	ctx := aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("1")))
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeFailed)
	assert.NoError(t, err)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, []snapshot.Key{"other", "test1"}, readKeys(t, store), "writes are saved, nothing pruned")
}

type failingCatalog struct{}

func (failingCatalog) MethodsOf(string) ([]string, error) { return nil, fmt.Errorf("class not found") }

func (failingCatalog) IsTestMethod(string, string) (bool, error) {
	return false, fmt.Errorf("class not found")
}

func TestTracker_FinishClass_CatalogFailure(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ test1 ═╗\n0\n╔═ test2 ═╗\n0\n╔═ [end of file] ═╗\n")
	aTracker := tracker.New(store, tracker.WithCatalog(failingCatalog{}))
	ctx := aTracker.Start(context.Background(), className, "test1")
	_, err := aTracker.Read(ctx, "")
	assert.NoError(t, err)
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)

	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.NoError(t, err)
	assert.Equal(t, []snapshot.Key{"test2"}, result.Stale)
}

func TestTracker_ParseErrorRemembered(t *testing.T) {
	store := newStore(t)
	seed(t, store, "╔═ test1 ═╗\nno footer\n")
	aTracker := tracker.New(store)
	ctx := aTracker.Start(context.Background(), className, "test1")
	for i := 0; i < 2; i++ {
		_, err := aTracker.Read(ctx, "")
		var parseError *snapshot.ParseError
		assert.True(t, errors.As(err, &parseError))
	}
	err := aTracker.Write(ctx, "", snapshot.Of("x"))
	var parseError *snapshot.ParseError
	assert.True(t, errors.As(err, &parseError))
	aTracker.Finish(className, "test1", tracker.OutcomeSucceeded)
	_, err = aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.Error(t, err)
	data, _ := os.ReadFile(store.Path(className))
	assert.Equal(t, "╔═ test1 ═╗\nno footer\n", string(data), "broken file is never overwritten")
}

func TestTracker_ImmediateFlush(t *testing.T) {
	store := newStore(t)
	aTracker := tracker.New(store, tracker.WithImmediateFlush(true))
	ctx := aTracker.Start(context.Background(), className, "test1")
	assert.NoError(t, aTracker.Write(ctx, "", snapshot.Of("now")))
	assert.Equal(t, []snapshot.Key{"test1"}, readKeys(t, store))
}

func TestTracker_Concurrent(t *testing.T) {
	store := newStore(t)
	aTracker := tracker.New(store)
	aTracker.StartClass(className)
	const workers = 32
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			method := fmt.Sprintf("test%02d", i)
			aTracker.Start(context.Background(), className, method)
			// no explicit context: attribution relies on the goroutine binding
			if err := aTracker.Write(context.Background(), "", snapshot.Of(method)); err != nil {
				t.Error(err)
			}
			if err := aTracker.Write(context.Background(), "sub", snapshot.Of(method)); err != nil {
				t.Error(err)
			}
			aTracker.Finish(className, method, tracker.OutcomeSucceeded)
		}(i)
	}
	wg.Wait()
	result, err := aTracker.FinishClass(context.Background(), className, tracker.OutcomeSucceeded)
	assert.NoError(t, err)
	assert.Empty(t, result.Stale)
	actual := readKeys(t, store)
	assert.Len(t, actual, workers*2)
	for i := 0; i < workers; i++ {
		method := fmt.Sprintf("test%02d", i)
		assert.Contains(t, actual, snapshot.Key(method))
		assert.Contains(t, actual, snapshot.NewKey(method, "sub"))
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "STARTED", tracker.StateStarted.String())
	assert.Equal(t, "SUCCEEDED", tracker.StateSucceeded.String())
	assert.Equal(t, "SKIPPED", tracker.StateSkipped.String())
	assert.Equal(t, "failed", tracker.OutcomeFailed.String())
}
