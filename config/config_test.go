package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	settingsFile := filepath.Join(t.TempDir(), "selfie.yaml")
	require.NoError(t, os.WriteFile(settingsFile, []byte(`mode: write
source:
  root: /tmp/project/src/test/java
  roots:
    - /tmp/project/src/test/kotlin
snapshot:
  folder: snaps
  equivalent: true
catalog:
  file: /tmp/catalog.yaml
`), 0644))

	tests := []struct {
		name    string
		env     map[string]string
		options []LoaderOption
		expect  func(t *testing.T, settings *Settings)
		wantErr bool
	}{
		{
			name: "defaults",
			expect: func(t *testing.T, settings *Settings) {
				assert.Equal(t, ModeRead, settings.Mode)
				assert.Equal(t, "__snapshots__", settings.Snapshot.Folder)
				assert.Equal(t, ".ss", settings.Snapshot.Extension)
				assert.Equal(t, FlushClass, settings.Snapshot.Flush)
				assert.Equal(t, hclog.Warn, settings.LogLevel())
			},
		},
		{
			name:    "file",
			options: []LoaderOption{WithFile(settingsFile)},
			expect: func(t *testing.T, settings *Settings) {
				assert.True(t, settings.IsWrite())
				assert.Equal(t, "snaps", settings.Snapshot.Folder)
				assert.Equal(t, ".ss", settings.Snapshot.Extension, "default kept")
				assert.True(t, settings.Snapshot.Equivalent)
				assert.Equal(t, []string{"/tmp/project/src/test/kotlin"}, settings.Source.Roots)
				assert.Equal(t, "/tmp/catalog.yaml", settings.Catalog.File)
			},
		},
		{
			name:    "env overrides file",
			env:     map[string]string{"SELFIE_MODE": "READ", "SELFIE_SNAPSHOT_FLUSH": "immediate", "SELFIE_SOURCE_ROOTS": "/a,/b"},
			options: []LoaderOption{WithFile(settingsFile)},
			expect: func(t *testing.T, settings *Settings) {
				assert.Equal(t, ModeRead, settings.Mode)
				assert.True(t, settings.IsImmediateFlush())
				assert.Equal(t, []string{"/a", "/b"}, settings.Source.Roots)
			},
		},
		{
			name:    "values override env",
			env:     map[string]string{"SELFIE_MODE": "read", "SELFIE_LOG_LEVEL": "info"},
			options: []LoaderOption{WithValues(map[string]interface{}{"mode": "write", "source.root": "/src"})},
			expect: func(t *testing.T, settings *Settings) {
				assert.True(t, settings.IsWrite())
				assert.Equal(t, "/src", settings.Source.Root)
				assert.Equal(t, hclog.Info, settings.LogLevel())
			},
		},
		{
			name:    "custom env prefix",
			env:     map[string]string{"SNAP_SNAPSHOT_EXTENSION": ".snap"},
			options: []LoaderOption{WithEnvPrefix("SNAP_")},
			expect: func(t *testing.T, settings *Settings) {
				assert.Equal(t, ".snap", settings.Snapshot.Extension)
			},
		},
		{
			name:    "invalid mode",
			env:     map[string]string{"SELFIE_MODE": "overwrite"},
			wantErr: true,
		},
		{
			name:    "invalid folder",
			options: []LoaderOption{WithValues(map[string]interface{}{"snapshot.folder": "a/b"})},
			wantErr: true,
		},
		{
			name:    "missing file",
			options: []LoaderOption{WithFile(filepath.Join(t.TempDir(), "missing.yaml"))},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			settings, err := Load(tt.options...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.expect(t, settings)
		})
	}
}

func TestSettings_LayoutConfig(t *testing.T) {
	settings := Default()
	settings.Source.Root = "/src"
	settings.Source.Roots = []string{"/other"}
	settings.Source.ModulePath = "github.com/acme/app"
	settings.Snapshot.Extension = ""
	cfg := settings.LayoutConfig()
	assert.Equal(t, "/src", cfg.RootFolder)
	assert.Equal(t, []string{"/other"}, cfg.OtherSourceRoots)
	assert.Equal(t, "__snapshots__", cfg.SnapshotFolderName)
	assert.Equal(t, ".ss", cfg.Extension)
	assert.Equal(t, "github.com/acme/app", cfg.ModulePath)
}
