// Package gc finds snapshot keys and snapshot files that no live test claims.
//
// Every key is named method or method/scenario. A key survives only when a root for
// its method keeps its suffix. Keys that no root claims are stale, and so are keys of
// catalog methods that never ran, because those get a keep nothing root.
package gc

import (
	"strings"

	"github.com/viant/selfie/snapshot"
)

// Result is the outcome of garbage collection for one class file
type Result struct {
	Class     string
	Stale     []snapshot.Key
	WholeFile bool // file was untouched and nothing in the class could have used it
}

// IsEmpty returns true when nothing needs pruning
func (r *Result) IsEmpty() bool {
	return r == nil || (!r.WholeFile && len(r.Stale) == 0)
}

// FindStale returns keys not kept by any root, in key order.
// Inputs are not modified; sorted copies are merged in lock-step.
func FindStale(keys []snapshot.Key, roots []Root) []snapshot.Key {
	sortedKeys := make([]snapshot.Key, len(keys))
	copy(sortedKeys, keys)
	snapshot.SortKeys(sortedKeys)
	sortedRoots := normalize(roots)

	var stale []snapshot.Key
	keyIdx, rootIdx := 0, 0
	for keyIdx < len(sortedKeys) {
		key := sortedKeys[keyIdx]
		if rootIdx >= len(sortedRoots) {
			stale = append(stale, key)
			keyIdx++
			continue
		}
		root := sortedRoots[rootIdx]
		// Method() cuts at the first '/', so "t1" never claims "t10/x"
		switch strings.Compare(key.Method(), root.Method) {
		case -1:
			stale = append(stale, key)
			keyIdx++
		case 1:
			rootIdx++
		default:
			if !root.Keeps(key.Suffix()) {
				stale = append(stale, key)
			}
			keyIdx++
		}
	}
	return stale
}

// IsUnusedFileStale decides whether a snapshot file that nobody read or wrote this run can
// be pruned without a per key scan: the class succeeded, every method that ran kept nothing,
// and no catalog method was left out.
func IsUnusedFileStale(classSucceeded bool, roots []Root, notRun []string) bool {
	if !classSucceeded || len(notRun) > 0 {
		return false
	}
	for _, root := range roots {
		if !root.KeepsNothing() {
			return false
		}
	}
	return true
}
