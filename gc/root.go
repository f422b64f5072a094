package gc

import (
	"sort"
	"strings"
)

// Root is the per-method decision about which snapshot key suffixes to keep.
// An empty suffix stands for the bare method key.
type Root struct {
	Method   string
	keepAll  bool
	suffixes map[string]bool
}

// KeepNothing creates a root that keeps no key of the method
func KeepNothing(method string) Root {
	return Root{Method: method}
}

// KeepAll creates a root that keeps every key of the method
func KeepAll(method string) Root {
	return Root{Method: method, keepAll: true}
}

// KeepSuffixes creates a root that keeps only listed suffixes
func KeepSuffixes(method string, suffixes ...string) Root {
	ret := Root{Method: method}
	for _, suffix := range suffixes {
		ret = ret.Plus(suffix)
	}
	return ret
}

// Plus returns a root additionally keeping suffix
func (r Root) Plus(suffix string) Root {
	if r.keepAll {
		return r
	}
	suffixes := make(map[string]bool, len(r.suffixes)+1)
	for k := range r.suffixes {
		suffixes[k] = true
	}
	suffixes[suffix] = true
	r.suffixes = suffixes
	return r
}

// Merge returns a root keeping what either root keeps
func (r Root) Merge(other Root) Root {
	if r.keepAll || other.keepAll {
		return KeepAll(r.Method)
	}
	for suffix := range other.suffixes {
		r = r.Plus(suffix)
	}
	return r
}

// Keeps returns true if the key with suffix survives
func (r Root) Keeps(suffix string) bool {
	return r.keepAll || r.suffixes[suffix]
}

// KeepsAll returns true for the keep everything sentinel
func (r Root) KeepsAll() bool {
	return r.keepAll
}

// KeepsNothing returns true when no key of the method survives
func (r Root) KeepsNothing() bool {
	return !r.keepAll && len(r.suffixes) == 0
}

// Suffixes returns sorted kept suffixes, nil for keep all
func (r Root) Suffixes() []string {
	if r.keepAll {
		return nil
	}
	result := make([]string, 0, len(r.suffixes))
	for suffix := range r.suffixes {
		result = append(result, suffix)
	}
	sort.Strings(result)
	return result
}

func (r Root) String() string {
	if r.keepAll {
		return r.Method + "{*}"
	}
	return r.Method + "{" + strings.Join(r.Suffixes(), ",") + "}"
}

// WithNotRun appends keep nothing roots for methods that have no root yet
func WithNotRun(roots []Root, notRun []string) []Root {
	result := make([]Root, 0, len(roots)+len(notRun))
	result = append(result, roots...)
	for _, method := range notRun {
		result = append(result, KeepNothing(method))
	}
	return result
}

// normalize sorts roots by method and merges roots of the same method
func normalize(roots []Root) []Root {
	sorted := make([]Root, len(roots))
	copy(sorted, roots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Method < sorted[j].Method })
	result := sorted[:0]
	for _, root := range sorted {
		if n := len(result); n > 0 && result[n-1].Method == root.Method {
			result[n-1] = result[n-1].Merge(root)
			continue
		}
		result = append(result, root)
	}
	return result
}
