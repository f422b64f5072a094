package inline

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type edit struct {
	start int
	end   int
	text  string
	line  int
}

func (e *edit) overlaps(other *edit) bool {
	if e.start == other.start && e.end == other.end {
		return true
	}
	return e.start < other.end && other.start < e.end
}

// mirror is the in memory copy of one source file, edits are kept against the
// original text until flushed
type mirror struct {
	mux      sync.Mutex
	path     string
	language Language
	source   []byte
	lines    lineIndex
	edits    []*edit
}

func (m *mirror) load(ctx context.Context, e *Engine) error {
	if m.source != nil {
		return nil
	}
	source, err := e.fs.DownloadWithURL(ctx, m.path)
	if err != nil {
		return fmt.Errorf("failed to read source %v: %w", m.path, err)
	}
	if source == nil {
		source = []byte{}
	}
	m.source = source
	m.lines = newLineIndex(source)
	return nil
}

// add queues an edit, an identical pending edit is a no-op and an overlapping one a conflict
func (m *mirror) add(candidate *edit) error {
	for _, pending := range m.edits {
		if !pending.overlaps(candidate) {
			continue
		}
		if pending.start == candidate.start && pending.end == candidate.end && pending.text == candidate.text {
			return nil
		}
		return &ConflictError{Path: m.path, Line: candidate.line}
	}
	m.edits = append(m.edits, candidate)
	return nil
}

// apply returns source with all pending edits, applied from the last offset backwards
func (m *mirror) apply() []byte {
	edits := make([]*edit, len(m.edits))
	copy(edits, m.edits)
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	result := append([]byte(nil), m.source...)
	for _, e := range edits {
		tail := append([]byte(e.text), result[e.end:]...)
		result = append(result[:e.start], tail...)
	}
	return result
}
