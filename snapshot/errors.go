package snapshot

import "fmt"

// ParseError represents malformed snapshot file content
type ParseError struct {
	Line   int    // 1-based line number
	Text   string // offending line
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed snapshot file at line %d (%s): %q", e.Line, e.Reason, e.Text)
}

// DuplicateKeyError represents a key, or a key facet, recorded more than once in a file
type DuplicateKeyError struct {
	Key   Key
	Facet string
}

func (e *DuplicateKeyError) Error() string {
	if e.Facet != "" {
		return fmt.Sprintf("duplicate snapshot facet %s[%s]", e.Key, e.Facet)
	}
	return fmt.Sprintf("duplicate snapshot key %s", e.Key)
}
