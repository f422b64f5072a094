package inline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Language selects literal syntax of a source file
type Language int

const (
	LanguageOther Language = iota
	LanguageGo
	LanguageJava
	LanguageKotlin
	LanguageScala
	LanguageGroovy
)

func (l Language) String() string {
	switch l {
	case LanguageGo:
		return "go"
	case LanguageJava:
		return "java"
	case LanguageKotlin:
		return "kotlin"
	case LanguageScala:
		return "scala"
	case LanguageGroovy:
		return "groovy"
	}
	return "other"
}

// LanguageOf returns language for a source path extension
func LanguageOf(location string) Language {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".go":
		return LanguageGo
	case ".java":
		return LanguageJava
	case ".kt", ".kts":
		return LanguageKotlin
	case ".scala", ".sc":
		return LanguageScala
	case ".groovy", ".gradle":
		return LanguageGroovy
	}
	return LanguageOther
}

// Kind is a literal kind
type Kind int

const (
	KindInt Kind = iota
	KindLong
	KindBool
	KindString
)

// Literal is a value that can be written into source code
type Literal struct {
	Kind   Kind
	Number int64
	Bool   bool
	Text   string
}

// Int creates int literal
func Int(v int) Literal { return Literal{Kind: KindInt, Number: int64(v)} }

// Long creates long literal
func Long(v int64) Literal { return Literal{Kind: KindLong, Number: v} }

// Bool creates boolean literal
func Bool(v bool) Literal { return Literal{Kind: KindBool, Bool: v} }

// String creates string literal
func String(v string) Literal { return Literal{Kind: KindString, Text: v} }

// Of creates literal from a supported Go value
func Of(value interface{}) (Literal, error) {
	switch actual := value.(type) {
	case Literal:
		return actual, nil
	case int:
		return Int(actual), nil
	case int8:
		return Int(int(actual)), nil
	case int16:
		return Int(int(actual)), nil
	case int32:
		return Int(int(actual)), nil
	case int64:
		return Long(actual), nil
	case uint8:
		return Int(int(actual)), nil
	case uint16:
		return Int(int(actual)), nil
	case uint32:
		return Long(int64(actual)), nil
	case bool:
		return Bool(actual), nil
	case string:
		return String(actual), nil
	}
	return Literal{}, fmt.Errorf("unsupported inline literal type %T", value)
}

// IsInteger returns true for int and long literals
func (l Literal) IsInteger() bool {
	return l.Kind == KindInt || l.Kind == KindLong
}

// Equal returns true for literals of the same kind and value.
// Int and long compare by value, an untyped Go constant reads back as int.
func (l Literal) Equal(other Literal) bool {
	if l.IsInteger() && other.IsInteger() {
		return l.Number == other.Number
	}
	return l == other
}

func (l Literal) String() string {
	return l.Encode(LanguageGo)
}

// Encode returns canonical source text of the literal
func (l Literal) Encode(language Language) string {
	switch l.Kind {
	case KindInt:
		return strconv.FormatInt(l.Number, 10)
	case KindLong:
		if language == LanguageGo {
			return strconv.FormatInt(l.Number, 10)
		}
		return strconv.FormatInt(l.Number, 10) + "L"
	case KindBool:
		return strconv.FormatBool(l.Bool)
	}
	switch language {
	case LanguageGo:
		if strings.Contains(l.Text, "\n") && !strings.ContainsAny(l.Text, "`\r") {
			return "`" + l.Text + "`"
		}
		return strconv.Quote(l.Text)
	case LanguageKotlin, LanguageGroovy:
		return quoteJVM(l.Text, true)
	}
	return quoteJVM(l.Text, false)
}

// quoteJVM quotes text as a java string, escapeDollar for languages interpolating $ in strings
func quoteJVM(text string, escapeDollar bool) string {
	builder := strings.Builder{}
	builder.WriteByte('"')
	for _, r := range text {
		switch r {
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		case '$':
			if escapeDollar {
				builder.WriteString(`\$`)
				continue
			}
			builder.WriteRune(r)
		default:
			if r < 0x20 {
				builder.WriteString(fmt.Sprintf(`\u%04x`, r))
				continue
			}
			builder.WriteRune(r)
		}
	}
	builder.WriteByte('"')
	return builder.String()
}
