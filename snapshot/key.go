package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// Separator divides method name from scenario in a key
const Separator = '/'

// Key identifies a snapshot within a class file, formatted as method or method/scenario
type Key string

// NewKey creates a key for method and optional scenario
func NewKey(method, scenario string) Key {
	if scenario == "" {
		return Key(method)
	}
	return Key(method + string(Separator) + scenario)
}

// Method returns the method part of the key
func (k Key) Method() string {
	if idx := strings.IndexByte(string(k), Separator); idx != -1 {
		return string(k[:idx])
	}
	return string(k)
}

// Suffix returns scenario part of the key, empty for bare method keys
func (k Key) Suffix() string {
	if idx := strings.IndexByte(string(k), Separator); idx != -1 {
		return string(k[idx+1:])
	}
	return ""
}

// Validate checks that a key can be written in a header
func (k Key) Validate() error {
	switch {
	case k == "":
		return fmt.Errorf("snapshot key must not be empty")
	case k.Method() == "":
		return fmt.Errorf("snapshot key %q has an empty method name", string(k))
	case string(k) == endOfFile:
		return fmt.Errorf("snapshot key %q is reserved", string(k))
	case strings.ContainsAny(string(k), "[]\r\n"):
		return fmt.Errorf("snapshot key %q must not contain '[', ']' or line breaks", string(k))
	}
	return nil
}

// CompareKeys orders keys by method name first, then by suffix
func CompareKeys(a, b Key) int {
	if c := strings.Compare(a.Method(), b.Method()); c != 0 {
		return c
	}
	aHasSuffix := strings.IndexByte(string(a), Separator) != -1
	bHasSuffix := strings.IndexByte(string(b), Separator) != -1
	if aHasSuffix != bHasSuffix {
		if aHasSuffix {
			return 1
		}
		return -1
	}
	return strings.Compare(a.Suffix(), b.Suffix())
}

// SortKeys sorts keys in place using CompareKeys
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return CompareKeys(keys[i], keys[j]) < 0 })
}
