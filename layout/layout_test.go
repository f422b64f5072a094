package layout_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/selfie/layout"
)

func writeFile(t *testing.T, location, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(location), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(location, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %v: %v", location, err)
	}
}

func newLayout(t *testing.T, mutate func(cfg *layout.Config)) *layout.Layout {
	t.Helper()
	cfg := layout.DefaultConfig()
	cfg.RootFolder = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	aLayout, err := layout.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}
	return aLayout
}

func TestLayout_SnapshotPathForClass(t *testing.T) {
	tests := []struct {
		name       string
		folder     string
		modulePath string
		className  string
		expect     string
	}{
		{name: "jvm class with folder", folder: "__snapshots__", className: "com.example.FooTest", expect: "com/example/__snapshots__/FooTest.ss"},
		{name: "jvm class alongside", folder: "", className: "com.example.FooTest", expect: "com/example/FooTest.ss"},
		{name: "default package", folder: "__snapshots__", className: "FooTest", expect: "__snapshots__/FooTest.ss"},
		{name: "go module class", folder: "__snapshots__", modulePath: "github.com/acme/app", className: "github.com/acme/app/service.Suite", expect: "service/__snapshots__/Suite.ss"},
		{name: "go module root class", folder: "", modulePath: "github.com/acme/app", className: "github.com/acme/app.Suite", expect: "Suite.ss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aLayout := newLayout(t, func(cfg *layout.Config) {
				cfg.SnapshotFolderName = tt.folder
				cfg.ModulePath = tt.modulePath
			})
			actual := aLayout.SnapshotPathForClass(tt.className)
			assert.Equal(t, filepath.Join(aLayout.RootFolder(), filepath.FromSlash(tt.expect)), actual)

			relative, err := filepath.Rel(aLayout.RootFolder(), actual)
			assert.NoError(t, err)
			className, err := aLayout.ClassForSnapshotPath(relative)
			assert.NoError(t, err)
			assert.Equal(t, tt.className, className)
		})
	}
}

func TestLayout_ClassForSnapshotPath_Errors(t *testing.T) {
	aLayout := newLayout(t, nil)
	_, err := aLayout.ClassForSnapshotPath("com/example/FooTest.ss")
	assert.Error(t, err)
	_, err = aLayout.ClassForSnapshotPath("com/example/__snapshots__/FooTest.txt")
	assert.Error(t, err)
}

func TestLayout_SourcePathForCall(t *testing.T) {
	root := t.TempDir()
	extra := t.TempDir()
	writeFile(t, filepath.Join(root, "com", "example", "FooTest.kt"), "class FooTest\n")
	writeFile(t, filepath.Join(extra, "pkg", "bar_suite_test.go"), "package pkg\n")
	writeFile(t, filepath.Join(extra, "other", "Named.java"), "class Named {}\n")

	cfg := layout.DefaultConfig()
	cfg.RootFolder = root
	cfg.OtherSourceRoots = []string{extra}
	aLayout, err := layout.New(context.Background(), cfg)
	if !assert.NoError(t, err) {
		return
	}

	location, err := aLayout.SourcePathForCall(layout.CallLocation{Class: "com.example.FooTest$Inner", Line: 3})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "com", "example", "FooTest.kt"), location)

	walks := aLayout.Walks()
	_, err = aLayout.SourcePathForCall(layout.CallLocation{Class: "com.example.FooTest$Inner", Line: 9})
	assert.NoError(t, err)
	assert.Equal(t, walks, aLayout.Walks(), "same call path must be served from goroutine cache")

	location, err = aLayout.SourcePathForCall(layout.CallLocation{Class: "example.com/pkg.BarSuite", Line: 1})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(extra, "pkg", "bar_suite_test.go"), location)

	location, err = aLayout.SourcePathForCall(layout.CallLocation{Class: "any.Thing", FileName: "Named.java", Line: 1})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(extra, "other", "Named.java"), location)

	_, err = aLayout.SourcePathForCall(layout.CallLocation{Class: "com.example.Missing", Line: 1})
	var notFound *layout.SourceNotFoundError
	if assert.True(t, errors.As(err, &notFound)) {
		assert.Equal(t, []string{root, extra}, notFound.Roots)
		assert.Contains(t, err.Error(), "com.example.Missing")
	}
}

func TestLayout_SourcePathForCall_Concurrent(t *testing.T) {
	aLayout := newLayout(t, nil)
	expect := filepath.Join(aLayout.RootFolder(), "a", "ConcurrentTest.java")
	writeFile(t, expect, "class ConcurrentTest {}\n")
	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			location, err := aLayout.SourcePathForCall(layout.CallLocation{Class: "a.ConcurrentTest", Line: 1})
			assert.NoError(t, err)
			assert.Equal(t, expect, location)
			aLayout.Forget()
		}()
	}
	wg.Wait()
}

func TestLayout_UnixNewlines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "line1\r\nline2\r\n")
	cfg := layout.DefaultConfig()
	cfg.RootFolder = root
	aLayout, err := layout.New(context.Background(), cfg)
	assert.NoError(t, err)
	assert.False(t, aLayout.UnixNewlines())

	empty := newLayout(t, nil)
	assert.True(t, empty.UnixNewlines())
}

func TestLayout_SnapshotFiles(t *testing.T) {
	aLayout := newLayout(t, nil)
	root := aLayout.RootFolder()
	writeFile(t, filepath.Join(root, "com", "__snapshots__", "A.ss"), "")
	writeFile(t, filepath.Join(root, "com", "B.ss"), "")
	writeFile(t, filepath.Join(root, ".git", "__snapshots__", "C.ss"), "")
	files, err := aLayout.SnapshotFiles()
	assert.NoError(t, err)
	assert.Equal(t, []string{"com/__snapshots__/A.ss"}, files)
}

func TestDetectProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module github.com/acme/app\n\ngo 1.23\n")
	writeFile(t, filepath.Join(root, "svc", "svc_test.go"), "package svc\n")
	project, err := layout.DetectProject(context.Background(), filepath.Join(root, "svc"))
	if assert.NoError(t, err) {
		assert.Equal(t, "go", project.Type)
		assert.Equal(t, "github.com/acme/app", project.ModulePath)
		assert.Equal(t, root, project.TestRoot)
	}

	jvm := t.TempDir()
	writeFile(t, filepath.Join(jvm, "build.gradle"), "")
	writeFile(t, filepath.Join(jvm, "src", "test", "kotlin", "A.kt"), "")
	project, err = layout.DetectProject(context.Background(), jvm)
	if assert.NoError(t, err) {
		assert.Equal(t, "java", project.Type)
		assert.Equal(t, filepath.Join(jvm, "src", "test", "kotlin"), project.TestRoot)
	}
}
