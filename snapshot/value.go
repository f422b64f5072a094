package snapshot

import (
	"bytes"
	"fmt"
)

// Kind distinguishes text from binary snapshot content
type Kind int

const (
	Text Kind = iota
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "text"
}

// Value is the content of one facet, either text or binary
type Value struct {
	kind   Kind
	text   string
	binary []byte
}

// TextValue creates a text value
func TextValue(text string) Value {
	return Value{kind: Text, text: text}
}

// BinaryValue creates a binary value, the slice is copied
func BinaryValue(data []byte) Value {
	clone := make([]byte, len(data))
	copy(clone, data)
	return Value{kind: Binary, binary: clone}
}

// Kind returns value kind
func (v Value) Kind() Kind {
	return v.kind
}

// IsBinary returns true for binary content
func (v Value) IsBinary() bool {
	return v.kind == Binary
}

// Text returns text content, it fails for binary values
func (v Value) Text() (string, error) {
	if v.kind != Text {
		return "", fmt.Errorf("value is %v, not text", v.kind)
	}
	return v.text, nil
}

// Bytes returns a copy of binary content, text is returned as its UTF-8 bytes
func (v Value) Bytes() []byte {
	if v.kind == Text {
		return []byte(v.text)
	}
	clone := make([]byte, len(v.binary))
	copy(clone, v.binary)
	return clone
}

// Equal compares kind and content
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == Text {
		return v.text == other.text
	}
	return bytes.Equal(v.binary, other.binary)
}

func (v Value) String() string {
	if v.kind == Text {
		return v.text
	}
	return fmt.Sprintf("binary[%d bytes]", len(v.binary))
}
