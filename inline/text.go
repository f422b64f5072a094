package inline

import (
	"bytes"
	"strings"
)

// call is a located assertion call, offsets are byte offsets into the source
type call struct {
	name      string
	line      int // line of the call name
	nameStart int
	nameEnd   int
	argsStart int // just after '('
	argsEnd   int // at ')'
}

// lineIndex holds byte offsets of line starts
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	result := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			result = append(result, i+1)
		}
	}
	return result
}

// bounds returns [start, end) of a 1-based line, end excludes the line break
func (l lineIndex) bounds(src []byte, line int) (int, int, bool) {
	if line < 1 || line > len(l) {
		return 0, 0, false
	}
	start := l[line-1]
	end := len(src)
	if line < len(l) {
		end = l[line] - 1
	}
	if end > start && src[end-1] == '\r' {
		end--
	}
	return start, end, true
}

// lineOf returns 1-based line of offset
func (l lineIndex) lineOf(offset int) int {
	lo, hi := 0, len(l)
	for lo < hi {
		mid := (lo + hi) / 2
		if l[mid] <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// skipToken returns index just after a string, char, or comment starting at i, or i when none starts there
func skipToken(src []byte, i int) int {
	switch {
	case bytes.HasPrefix(src[i:], []byte(`"""`)):
		if end := bytes.Index(src[i+3:], []byte(`"""`)); end != -1 {
			return i + 3 + end + 3
		}
		return len(src)
	case src[i] == '"' || src[i] == '\'':
		quote := src[i]
		for j := i + 1; j < len(src); j++ {
			switch src[j] {
			case '\\':
				j++
			case quote:
				return j + 1
			case '\n':
				return j
			}
		}
		return len(src)
	case src[i] == '`':
		if end := bytes.IndexByte(src[i+1:], '`'); end != -1 {
			return i + 1 + end + 1
		}
		return len(src)
	case bytes.HasPrefix(src[i:], []byte("//")):
		if end := bytes.IndexByte(src[i:], '\n'); end != -1 {
			return i + end
		}
		return len(src)
	case bytes.HasPrefix(src[i:], []byte("/*")):
		if end := bytes.Index(src[i+2:], []byte("*/")); end != -1 {
			return i + 2 + end + 2
		}
		return len(src)
	}
	return i
}

// closingParen returns index of ')' matching '(' at open, or -1
func closingParen(src []byte, open int) int {
	depth := 0
	for i := open; i < len(src); {
		if next := skipToken(src, i); next != i {
			i = next
			continue
		}
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// lineComment returns offset of a '//' comment on [start, end) outside of literals, or -1
func lineComment(src []byte, start, end int) int {
	for i := start; i < end; {
		if bytes.HasPrefix(src[i:], []byte("//")) {
			return i
		}
		if next := skipToken(src, i); next != i {
			i = next
			continue
		}
		i++
	}
	return -1
}

// findMarker returns marker of the comment on [start, end) and the span to remove for a once marker
func findMarker(src []byte, start, end int) (Marker, int, int) {
	comment := lineComment(src, start, end)
	if comment == -1 {
		return MarkerNone, 0, 0
	}
	body := string(src[comment+2 : end])
	trimmed := strings.TrimLeft(body, " \t")
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, markerForever):
		return MarkerForever, 0, 0
	case strings.HasPrefix(lower, markerOnce):
		wordStart := comment + 2 + len(body) - len(trimmed)
		markerEnd := skipBlanks(src, wordStart+len(markerOnce), end)
		if markerEnd < end && src[markerEnd] != '\r' {
			// the comment goes on, only the marker word is removed
			return MarkerOnce, wordStart, markerEnd
		}
		markerStart := comment
		for markerStart > start && (src[markerStart-1] == ' ' || src[markerStart-1] == '\t') {
			markerStart--
		}
		return MarkerOnce, markerStart, markerEnd
	}
	return MarkerNone, 0, 0
}

func skipBlanks(src []byte, i, end int) int {
	for i < end && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// textLocator finds `.name(` calls on a line with a lexer aware of strings and comments
type textLocator struct{}

func (textLocator) locate(_ string, src []byte, lines lineIndex, line int) ([]*call, error) {
	start, end, ok := lines.bounds(src, line)
	if !ok {
		return nil, nil
	}
	var result []*call
	for i := start; i < end; {
		if next := skipToken(src, i); next != i {
			i = next
			continue
		}
		if !isIdentStart(src[i]) || (i > 0 && isIdentPart(src[i-1])) {
			i++
			continue
		}
		nameStart := i
		for i < end && isIdentPart(src[i]) {
			i++
		}
		name := string(src[nameStart:i])
		if _, ok := forms[name]; !ok || !precededByDot(src, nameStart) {
			continue
		}
		open := i
		for open < len(src) && (src[open] == ' ' || src[open] == '\t') {
			open++
		}
		if open >= len(src) || src[open] != '(' {
			continue
		}
		closing := closingParen(src, open)
		if closing == -1 {
			continue
		}
		result = append(result, &call{name: name, line: line, nameStart: nameStart, nameEnd: nameStart + len(name), argsStart: open + 1, argsEnd: closing})
	}
	return result, nil
}

func precededByDot(src []byte, offset int) bool {
	for j := offset - 1; j >= 0; j-- {
		switch src[j] {
		case ' ', '\t', '\r', '\n':
			continue
		case '.':
			return true
		}
		return false
	}
	return false
}
