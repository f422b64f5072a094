package snapshot

import (
	"errors"
	"sort"
)

// ErrNotFound is returned when a key has no snapshot
var ErrNotFound = errors.New("no such snapshot")

// File represents all snapshots recorded for one class, ordered by key
type File struct {
	WindowsNewlines bool

	keys      []Key
	snapshots map[Key]Snapshot
	dirty     bool
}

// NewFile creates an empty snapshot file
func NewFile(windowsNewlines bool) *File {
	return &File{WindowsNewlines: windowsNewlines, snapshots: make(map[Key]Snapshot)}
}

// Get returns snapshot for a key
func (f *File) Get(key Key) (Snapshot, bool) {
	snap, ok := f.snapshots[key]
	return snap, ok
}

// Lookup returns snapshot for a key or ErrNotFound
func (f *File) Lookup(key Key) (Snapshot, error) {
	snap, ok := f.snapshots[key]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Add inserts a new snapshot, it fails with DuplicateKeyError if the key exists
func (f *File) Add(key Key, snap Snapshot) error {
	if _, ok := f.snapshots[key]; ok {
		return &DuplicateKeyError{Key: key}
	}
	f.Set(key, snap)
	return nil
}

// Set inserts or replaces a snapshot
func (f *File) Set(key Key, snap Snapshot) {
	if f.snapshots == nil {
		f.snapshots = make(map[Key]Snapshot)
	}
	if prev, ok := f.snapshots[key]; ok {
		if !prev.Equal(snap) {
			f.dirty = true
		}
		f.snapshots[key] = snap
		return
	}
	idx := sort.Search(len(f.keys), func(i int) bool { return CompareKeys(f.keys[i], key) >= 0 })
	f.keys = append(f.keys, "")
	copy(f.keys[idx+1:], f.keys[idx:])
	f.keys[idx] = key
	f.snapshots[key] = snap
	f.dirty = true
}

// Remove deletes snapshots for the supplied keys, it returns number of removed entries
func (f *File) Remove(keys ...Key) int {
	removed := 0
	for _, key := range keys {
		if _, ok := f.snapshots[key]; !ok {
			continue
		}
		delete(f.snapshots, key)
		idx := sort.Search(len(f.keys), func(i int) bool { return CompareKeys(f.keys[i], key) >= 0 })
		if idx < len(f.keys) && f.keys[idx] == key {
			f.keys = append(f.keys[:idx], f.keys[idx+1:]...)
		}
		removed++
	}
	if removed > 0 {
		f.dirty = true
	}
	return removed
}

// Keys returns sorted keys
func (f *File) Keys() []Key {
	result := make([]Key, len(f.keys))
	copy(result, f.keys)
	return result
}

// Len returns number of snapshots
func (f *File) Len() int {
	return len(f.keys)
}

// IsEmpty returns true when the file has no snapshots
func (f *File) IsEmpty() bool {
	return len(f.keys) == 0
}

// IsDirty returns true if the file was modified since it was parsed or last marked clean
func (f *File) IsDirty() bool {
	return f.dirty
}

// MarkClean resets dirty flag, typically after the file was persisted
func (f *File) MarkClean() {
	f.dirty = false
}
