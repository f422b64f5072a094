package layout

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/viant/afs"
	"golang.org/x/sync/singleflight"
)

// Config holds snapshot file layout options
type Config struct {
	RootFolder         string   // root of test sources, snapshot paths are relative to it
	OtherSourceRoots   []string // extra roots searched for sources
	SnapshotFolderName string   // snapshots live in this folder beside the source, empty means alongside the source
	Extension          string   // snapshot file extension
	SourceExtensions   []string // extensions tried when a call has no file name
	ModulePath         string   // go module path of RootFolder, enables go style class names
}

// DefaultConfig returns default layout config
func DefaultConfig() *Config {
	return &Config{
		SnapshotFolderName: "__snapshots__",
		Extension:          ".ss",
		SourceExtensions:   []string{"go", "kt", "java", "scala", "groovy", "clj", "cljc"},
	}
}

// Layout maps classes to snapshot files and calls to source files
type Layout struct {
	config       Config
	fs           afs.Service
	unixNewlines bool
	cache        sync.Map // goroutine id -> *cachedPath
	group        singleflight.Group
	walks        atomic.Int64 // number of source tree walks, exposed for diagnostics
}

// New creates a layout, it infers the default line ending from files under the root folder
func New(ctx context.Context, config *Config) (*Layout, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.RootFolder == "" {
		return nil, fmt.Errorf("layout root folder was empty")
	}
	if cfg.Extension == "" {
		cfg.Extension = ".ss"
	}
	if !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}
	if len(cfg.SourceExtensions) == 0 {
		cfg.SourceExtensions = DefaultConfig().SourceExtensions
	}
	root, err := filepath.Abs(cfg.RootFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root folder %v: %w", cfg.RootFolder, err)
	}
	cfg.RootFolder = root
	ret := &Layout{config: cfg, fs: afs.New()}
	ret.unixNewlines = ret.inferUnixNewlines(ctx)
	return ret, nil
}

// Config returns effective layout config
func (l *Layout) Config() Config {
	return l.config
}

// RootFolder returns absolute root folder
func (l *Layout) RootFolder() string {
	return l.config.RootFolder
}

// Extension returns snapshot file extension
func (l *Layout) Extension() string {
	return l.config.Extension
}

// UnixNewlines returns true when new snapshot files should use \n line endings
func (l *Layout) UnixNewlines() bool {
	return l.unixNewlines
}

// SnapshotPathForClass returns snapshot file location for a fully qualified class name
func (l *Layout) SnapshotPathForClass(className string) string {
	dir, simpleName := l.splitClass(className)
	folder := filepath.Join(l.config.RootFolder, filepath.FromSlash(dir))
	if l.config.SnapshotFolderName != "" {
		folder = filepath.Join(folder, l.config.SnapshotFolderName)
	}
	return filepath.Join(folder, simpleName+l.config.Extension)
}

// ClassForSnapshotPath returns class name for a snapshot file path relative to the root folder
func (l *Layout) ClassForSnapshotPath(subpath string) (string, error) {
	subpath = filepath.ToSlash(subpath)
	if !strings.HasSuffix(subpath, l.config.Extension) {
		return "", fmt.Errorf("expected %v to end with %v", subpath, l.config.Extension)
	}
	dir, file := path.Split(strings.TrimSuffix(subpath, l.config.Extension))
	dir = strings.TrimSuffix(dir, "/")
	if folder := l.config.SnapshotFolderName; folder != "" {
		parent, name := path.Split(dir)
		if name != folder {
			return "", fmt.Errorf("expected %v to be in a folder named %v", subpath, folder)
		}
		dir = strings.TrimSuffix(parent, "/")
	}
	if l.config.ModulePath != "" {
		if dir == "" {
			return l.config.ModulePath + "." + file, nil
		}
		return l.config.ModulePath + "/" + dir + "." + file, nil
	}
	if dir == "" {
		return file, nil
	}
	return strings.ReplaceAll(dir, "/", ".") + "." + file, nil
}

// SnapshotFiles returns paths, relative to the root folder, of all snapshot files
func (l *Layout) SnapshotFiles() ([]string, error) {
	var result []string
	err := filepath.WalkDir(l.config.RootFolder, func(location string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if location != l.config.RootFolder && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), l.config.Extension) || !entry.Type().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(l.config.RootFolder, location)
		if err != nil {
			return err
		}
		if l.config.SnapshotFolderName != "" && filepath.Base(filepath.Dir(relative)) != l.config.SnapshotFolderName {
			return nil
		}
		result = append(result, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot files in %v: %w", l.config.RootFolder, err)
	}
	return result, nil
}

// splitClass returns slash separated directory relative to root and the simple class name
func (l *Layout) splitClass(className string) (string, string) {
	lastDot := strings.LastIndexByte(className, '.')
	if lastDot == -1 {
		return "", className
	}
	pkg, simpleName := className[:lastDot], className[lastDot+1:]
	if modulePath := l.config.ModulePath; modulePath != "" {
		if pkg == modulePath {
			return "", simpleName
		}
		if strings.HasPrefix(pkg, modulePath+"/") {
			return pkg[len(modulePath)+1:], simpleName
		}
	}
	if strings.Contains(pkg, "/") {
		return pkg, simpleName
	}
	return strings.ReplaceAll(pkg, ".", "/"), simpleName
}

// inferUnixNewlines looks for the first text file under root containing a newline
func (l *Layout) inferUnixNewlines(ctx context.Context) bool {
	unix := true
	_ = filepath.WalkDir(l.config.RootFolder, func(location string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if location != l.config.RootFolder && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := entry.Info(); err != nil || !info.Mode().IsRegular() || info.Size() > maxSourceSize {
			return nil
		}
		content, err := l.fs.DownloadWithURL(ctx, location)
		if err != nil || containsNul(content) {
			return nil
		}
		idx := strings.IndexByte(string(content), '\n')
		if idx == -1 {
			return nil
		}
		unix = !strings.Contains(string(content), "\r")
		return filepath.SkipAll
	})
	return unix
}

const maxSourceSize = 1 << 20

func containsNul(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

func isRegularFile(location string) bool {
	info, err := os.Stat(location)
	return err == nil && info.Mode().IsRegular()
}
