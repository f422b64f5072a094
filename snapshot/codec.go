package snapshot

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const (
	headerStart  = "╔═ "
	primaryClose = " ═╗"
	facetClose   = " ─╗"
	binaryMarker = " base64"
	endOfFile    = "[end of file]"
	escapeRune   = "𐝁"
	headerRune   = "╔"
)

type header struct {
	key    Key
	facet  string
	binary bool
	eof    bool
}

type entry struct {
	header
	line int
	body []string
}

// Parse decodes snapshot file content, both \n and \r\n line endings are accepted.
// The ending of the first line applies to the whole file, a \r inside content is kept.
func Parse(data []byte) (*File, error) {
	text := string(data)
	newline := "\n"
	if idx := strings.IndexByte(text, '\n'); idx > 0 && text[idx-1] == '\r' {
		newline = "\r\n"
	}
	file := NewFile(newline == "\r\n")
	if strings.TrimSpace(text) == "" {
		return file, nil
	}

	var (
		current *entry
		pending *Snapshot
		key     Key
		ended   bool
	)
	commit := func() error {
		if current == nil {
			return nil
		}
		value, err := current.value()
		if err != nil {
			return err
		}
		if current.facet == "" {
			snap := OfValue(value)
			pending = &snap
		} else {
			if _, ok := pending.Facet(current.facet); ok {
				return &DuplicateKeyError{Key: key, Facet: current.facet}
			}
			snap, err := pending.Plus(current.facet, value)
			if err != nil {
				return &ParseError{Line: current.line, Reason: err.Error()}
			}
			pending = &snap
		}
		current = nil
		return nil
	}
	store := func() error {
		if pending == nil {
			return nil
		}
		if err := file.Add(key, *pending); err != nil {
			return err
		}
		pending = nil
		return nil
	}

	for i, line := range strings.Split(text, newline) {
		lineNo := i + 1
		if ended {
			if strings.TrimSpace(line) != "" {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "content after end of file"}
			}
			continue
		}
		if !strings.HasPrefix(line, headerStart) {
			if current == nil {
				if line == "" {
					continue
				}
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "content before first header"}
			}
			current.body = append(current.body, unescapeLine(line))
			continue
		}
		h, err := parseHeader(line, lineNo)
		if err != nil {
			return nil, err
		}
		if err = commit(); err != nil {
			return nil, err
		}
		switch {
		case h.eof:
			if err = store(); err != nil {
				return nil, err
			}
			ended = true
			continue
		case h.facet == "":
			if err = store(); err != nil {
				return nil, err
			}
			if _, ok := file.Get(h.key); ok {
				return nil, &DuplicateKeyError{Key: h.key}
			}
			key = h.key
		case pending == nil || h.key != key:
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "facet without a preceding primary entry"}
		}
		current = &entry{header: *h, line: lineNo}
	}
	if !ended {
		return nil, &ParseError{Line: strings.Count(text, newline) + 1, Reason: "missing " + endOfFile + " footer"}
	}
	file.MarkClean()
	return file, nil
}

func parseHeader(line string, lineNo int) (*header, error) {
	rest := strings.TrimPrefix(line, headerStart)
	result := &header{}
	if strings.HasSuffix(rest, binaryMarker) {
		result.binary = true
		rest = strings.TrimSuffix(rest, binaryMarker)
	}
	var name string
	var isFacet bool
	switch {
	case strings.HasSuffix(rest, primaryClose):
		name = strings.TrimSuffix(rest, primaryClose)
	case strings.HasSuffix(rest, facetClose):
		name = strings.TrimSuffix(rest, facetClose)
		isFacet = true
	default:
		return nil, &ParseError{Line: lineNo, Text: line, Reason: "header is not closed"}
	}
	if name == endOfFile {
		if isFacet || result.binary {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "malformed footer"}
		}
		result.eof = true
		return result, nil
	}
	if isFacet {
		open := strings.IndexByte(name, '[')
		if open == -1 || !strings.HasSuffix(name, "]") {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "facet header without [facet]"}
		}
		result.facet = name[open+1 : len(name)-1]
		name = name[:open]
		if err := ValidateFacetName(result.facet); err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: err.Error()}
		}
	}
	result.key = Key(name)
	if err := result.key.Validate(); err != nil {
		return nil, &ParseError{Line: lineNo, Text: line, Reason: err.Error()}
	}
	return result, nil
}

func (e *entry) value() (Value, error) {
	content := strings.Join(e.body, "\n")
	if !e.binary {
		return TextValue(content), nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return Value{}, &ParseError{Line: e.line, Reason: "invalid base64 content: " + err.Error()}
	}
	return BinaryValue(data), nil
}

// Serialize encodes snapshot file using its line ending
func Serialize(file *File) []byte {
	newline := "\n"
	if file.WindowsNewlines {
		newline = "\r\n"
	}
	buf := &bytes.Buffer{}
	for _, key := range file.Keys() {
		snap, _ := file.Get(key)
		for _, facet := range snap.Facets() {
			buf.WriteString(headerStart)
			buf.WriteString(string(key))
			if facet.Name == "" {
				buf.WriteString(primaryClose)
			} else {
				buf.WriteString("[" + facet.Name + "]")
				buf.WriteString(facetClose)
			}
			if facet.Value.IsBinary() {
				buf.WriteString(binaryMarker)
				buf.WriteString(newline)
				buf.WriteString(base64.StdEncoding.EncodeToString(facet.Value.Bytes()))
				buf.WriteString(newline)
				continue
			}
			buf.WriteString(newline)
			text, _ := facet.Value.Text()
			for _, line := range strings.Split(text, "\n") {
				buf.WriteString(escapeLine(line))
				buf.WriteString(newline)
			}
		}
	}
	buf.WriteString(headerStart + endOfFile + primaryClose)
	buf.WriteString(newline)
	return buf.Bytes()
}

func escapeLine(line string) string {
	if strings.HasPrefix(line, headerRune) || strings.HasPrefix(line, escapeRune) {
		return escapeRune + line
	}
	return line
}

func unescapeLine(line string) string {
	return strings.TrimPrefix(line, escapeRune)
}
