// Package config defines run settings, loaded with priority values > env > file > default.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/viant/selfie/layout"
)

// Mode decides whether mismatches fail or are corrected
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// Flush policy of snapshot files
const (
	FlushClass     = "class"
	FlushImmediate = "immediate"
)

// Settings holds run settings
type Settings struct {
	Mode     Mode     `koanf:"mode"`
	Source   Source   `koanf:"source"`
	Snapshot Snapshot `koanf:"snapshot"`
	Catalog  Catalog  `koanf:"catalog"`
	Log      Log      `koanf:"log"`
}

// Source holds test source roots
type Source struct {
	Root       string   `koanf:"root"`
	Roots      []string `koanf:"roots"`
	ModulePath string   `koanf:"module"`
}

// Snapshot holds snapshot file options
type Snapshot struct {
	Folder     string `koanf:"folder"`
	Extension  string `koanf:"extension"`
	Flush      string `koanf:"flush"`
	Equivalent bool   `koanf:"equivalent"` // allow repeated equal writes of one key
}

// Catalog holds test catalog location
type Catalog struct {
	File string `koanf:"file"`
}

// Log holds logging options
type Log struct {
	Level string `koanf:"level"`
}

// Default returns default settings
func Default() *Settings {
	return &Settings{
		Mode: ModeRead,
		Snapshot: Snapshot{
			Folder:    "__snapshots__",
			Extension: ".ss",
			Flush:     FlushClass,
		},
		Log: Log{Level: "warn"},
	}
}

// IsWrite returns true in write mode
func (s *Settings) IsWrite() bool {
	return s.Mode == ModeWrite
}

// IsImmediateFlush returns true when every write is saved at once
func (s *Settings) IsImmediateFlush() bool {
	return s.Snapshot.Flush == FlushImmediate
}

// Validate checks settings
func (s *Settings) Validate() error {
	s.Mode = Mode(strings.ToLower(strings.TrimSpace(string(s.Mode))))
	switch s.Mode {
	case ModeRead, ModeWrite:
	case "":
		s.Mode = ModeRead
	default:
		return fmt.Errorf("unsupported mode %q, expected %v or %v", s.Mode, ModeRead, ModeWrite)
	}
	switch s.Snapshot.Flush {
	case FlushClass, FlushImmediate:
	case "":
		s.Snapshot.Flush = FlushClass
	default:
		return fmt.Errorf("unsupported snapshot flush %q, expected %v or %v", s.Snapshot.Flush, FlushClass, FlushImmediate)
	}
	if strings.ContainsAny(s.Snapshot.Folder, `/\`) {
		return fmt.Errorf("snapshot folder %q must be a single directory name", s.Snapshot.Folder)
	}
	if s.Log.Level != "" && hclog.LevelFromString(s.Log.Level) == hclog.NoLevel {
		return fmt.Errorf("unsupported log level %q", s.Log.Level)
	}
	return nil
}

// LayoutConfig returns snapshot layout config
func (s *Settings) LayoutConfig() *layout.Config {
	ret := layout.DefaultConfig()
	ret.RootFolder = s.Source.Root
	ret.OtherSourceRoots = append([]string(nil), s.Source.Roots...)
	ret.SnapshotFolderName = s.Snapshot.Folder
	if s.Snapshot.Extension != "" {
		ret.Extension = s.Snapshot.Extension
	}
	ret.ModulePath = s.Source.ModulePath
	return ret
}

// LogLevel returns hclog level, warn when unset
func (s *Settings) LogLevel() hclog.Level {
	if level := hclog.LevelFromString(s.Log.Level); level != hclog.NoLevel {
		return level
	}
	return hclog.Warn
}
