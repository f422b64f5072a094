package gc

import (
	"fmt"
	"path/filepath"

	"github.com/viant/selfie/layout"
)

// StaleFile is a snapshot file whose class declares no test methods
type StaleFile struct {
	Path  string // relative to layout root folder
	Class string
}

// Location returns absolute file location
func (f *StaleFile) Location(aLayout *layout.Layout) string {
	return filepath.Join(aLayout.RootFolder(), filepath.FromSlash(f.Path))
}

// FindStaleFiles walks snapshot files under the layout root and returns those whose
// class is unknown to the catalog or has no test methods.
// Classes the catalog fails to look up are left alone.
func FindStaleFiles(aLayout *layout.Layout, catalog Catalog) ([]*StaleFile, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog was nil")
	}
	files, err := aLayout.SnapshotFiles()
	if err != nil {
		return nil, err
	}
	var result []*StaleFile
	for _, subpath := range files {
		className, err := aLayout.ClassForSnapshotPath(subpath)
		if err != nil {
			continue
		}
		methods, err := catalog.MethodsOf(className)
		if err != nil || len(methods) > 0 {
			continue // lookup failures never prune
		}
		result = append(result, &StaleFile{Path: subpath, Class: className})
	}
	return result, nil
}
