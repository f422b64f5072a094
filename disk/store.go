// Package disk persists snapshot files, one per class, at paths given by a layout.
package disk

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/viant/afs"
	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
)

// Store loads and saves class snapshot files
type Store struct {
	layout *layout.Layout
	fs     afs.Service
	logger hclog.Logger
}

// Path returns snapshot file location for a class
func (s *Store) Path(className string) string {
	return s.layout.SnapshotPathForClass(className)
}

// Exists returns true if the class snapshot file exists
func (s *Store) Exists(ctx context.Context, className string) (bool, error) {
	ok, err := s.fs.Exists(ctx, s.Path(className))
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot file for %v: %w", className, err)
	}
	return ok, nil
}

// Load reads and parses the class snapshot file, a missing file yields an empty one
func (s *Store) Load(ctx context.Context, className string) (*snapshot.File, error) {
	location := s.Path(className)
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot file %v: %w", location, err)
	}
	if !ok {
		return snapshot.NewFile(!s.layout.UnixNewlines()), nil
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file %v: %w", location, err)
	}
	file, err := snapshot.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %v: %w", location, err)
	}
	if len(data) == 0 {
		file.WindowsNewlines = !s.layout.UnixNewlines()
	}
	s.logger.Trace("loaded snapshot file", "class", className, "path", location, "keys", file.Len())
	return file, nil
}

// Save writes the class snapshot file, an empty file is deleted instead
func (s *Store) Save(ctx context.Context, className string, file *snapshot.File) error {
	if file.IsEmpty() {
		if err := s.Delete(ctx, className); err != nil {
			return err
		}
		file.MarkClean()
		return nil
	}
	location := s.Path(className)
	if err := s.fs.Upload(ctx, location, 0644, bytes.NewReader(snapshot.Serialize(file))); err != nil {
		return fmt.Errorf("failed to write snapshot file %v: %w", location, err)
	}
	file.MarkClean()
	s.logger.Debug("saved snapshot file", "class", className, "path", location, "keys", file.Len())
	return nil
}

// Delete removes the class snapshot file if it exists
func (s *Store) Delete(ctx context.Context, className string) error {
	location := s.Path(className)
	ok, err := s.fs.Exists(ctx, location)
	if err != nil || !ok {
		return err
	}
	if err = s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("failed to delete snapshot file %v: %w", location, err)
	}
	s.logger.Debug("deleted snapshot file", "class", className, "path", location)
	return nil
}

// New creates a store for layout
func New(aLayout *layout.Layout, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{layout: aLayout, fs: afs.New(), logger: logger.Named("disk")}
}
