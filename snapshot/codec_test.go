package snapshot_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/viant/selfie/snapshot"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[snapshot.Key]snapshot.Snapshot
		windows bool
	}{
		{
			name:  "single entry",
			input: "╔═ example ═╗\n5\n╔═ [end of file] ═╗\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"example": snapshot.Of("5"),
			},
		},
		{
			name:  "windows newlines",
			input: "╔═ example ═╗\r\n5\r\n╔═ [end of file] ═╗\r\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"example": snapshot.Of("5"),
			},
			windows: true,
		},
		{
			name:  "scenario and multiline",
			input: "╔═ test ═╗\nline1\nline2\n╔═ test/html ═╗\n<b>\n╔═ [end of file] ═╗\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"test":      snapshot.Of("line1\nline2"),
				"test/html": snapshot.Of("<b>"),
			},
		},
		{
			name:  "empty content",
			input: "╔═ empty ═╗\n\n╔═ [end of file] ═╗\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"empty": snapshot.Of(""),
			},
		},
		{
			name:  "binary entry",
			input: "╔═ bin ═╗ base64\nAAEC\n╔═ [end of file] ═╗\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"bin": snapshot.OfBinary([]byte{0, 1, 2}),
			},
		},
		{
			name:  "escaped header in content",
			input: "╔═ esc ═╗\n𐝁╔═ fake ═╗\n𐝁𐝁x\n╔═ [end of file] ═╗\n",
			want: map[snapshot.Key]snapshot.Snapshot{
				"esc": snapshot.Of("╔═ fake ═╗\n𐝁x"),
			},
		},
		{
			name:  "empty file",
			input: "",
			want:  map[snapshot.Key]snapshot.Snapshot{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := snapshot.Parse([]byte(tt.input))
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, len(tt.want), file.Len())
			assert.Equal(t, tt.windows, file.WindowsNewlines)
			for key, expect := range tt.want {
				actual, ok := file.Get(key)
				if assert.True(t, ok, "missing %v", key) {
					assert.True(t, expect.Equal(actual), "key %v: expected %q, got %q", key, expect, actual)
				}
			}
		})
	}
}

func TestParse_Facets(t *testing.T) {
	input := "╔═ page ═╗\nbody\n╔═ page[md] ─╗\n# title\n╔═ page[status] ─╗\n200\n╔═ [end of file] ═╗\n"
	file, err := snapshot.Parse([]byte(input))
	if !assert.NoError(t, err) {
		return
	}
	snap, ok := file.Get("page")
	assert.True(t, ok)
	md, ok := snap.Facet("md")
	assert.True(t, ok)
	assert.Equal(t, "# title", md.String())
	status, ok := snap.Facet("status")
	assert.True(t, ok)
	assert.Equal(t, "200", status.String())
	assert.Equal(t, input, string(snapshot.Serialize(file)))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		line      int
		duplicate bool
	}{
		{name: "unclosed header", input: "╔═ broken\nx\n╔═ [end of file] ═╗\n", line: 1},
		{name: "content before header", input: "oops\n╔═ [end of file] ═╗\n", line: 1},
		{name: "missing footer", input: "╔═ a ═╗\nx\n", line: 3},
		{name: "facet without primary", input: "╔═ a[f] ─╗\nx\n╔═ [end of file] ═╗\n", line: 1},
		{name: "facet for other key", input: "╔═ a ═╗\nx\n╔═ b[f] ─╗\ny\n╔═ [end of file] ═╗\n", line: 3},
		{name: "content after footer", input: "╔═ a ═╗\nx\n╔═ [end of file] ═╗\nz\n", line: 4},
		{name: "duplicate key", input: "╔═ a ═╗\nx\n╔═ a ═╗\ny\n╔═ [end of file] ═╗\n", duplicate: true},
		{name: "duplicate facet", input: "╔═ a ═╗\nx\n╔═ a[f] ─╗\ny\n╔═ a[f] ─╗\nz\n╔═ [end of file] ═╗\n", duplicate: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.Parse([]byte(tt.input))
			if !assert.Error(t, err) {
				return
			}
			if tt.duplicate {
				var dupErr *snapshot.DuplicateKeyError
				assert.True(t, errors.As(err, &dupErr), "expected DuplicateKeyError, got %v", err)
				return
			}
			var parseErr *snapshot.ParseError
			if assert.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err) {
				assert.Equal(t, tt.line, parseErr.Line)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	file := snapshot.NewFile(false)
	file.Set("zeta", snapshot.Of("z"))
	file.Set("alpha/b", snapshot.Of("ab"))
	file.Set("alpha", snapshot.Of("a"))
	file.Set("alpha-x", snapshot.Of("ax"))
	expect := "╔═ alpha ═╗\na\n╔═ alpha/b ═╗\nab\n╔═ alpha-x ═╗\nax\n╔═ zeta ═╗\nz\n╔═ [end of file] ═╗\n"
	assert.Equal(t, expect, string(snapshot.Serialize(file)))

	file.WindowsNewlines = true
	file.Remove("alpha/b", "alpha-x", "zeta")
	assert.Equal(t, "╔═ alpha ═╗\r\na\r\n╔═ [end of file] ═╗\r\n", string(snapshot.Serialize(file)))
}

func TestRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("parse returns what serialize wrote", prop.ForAll(
		func(methods []string, scenario string, contents []string, cr string, windows bool) bool {
			file := snapshot.NewFile(windows)
			for i, method := range methods {
				if method == "" {
					continue
				}
				content := ""
				if len(contents) > 0 {
					content = contents[i%len(contents)]
				}
				content += cr
				file.Set(snapshot.NewKey(method, ""), snapshot.Of(content))
				if scenario != "" {
					file.Set(snapshot.NewKey(method, scenario), snapshot.Of(content+"\n"+scenario))
				}
			}
			parsed, err := snapshot.Parse(snapshot.Serialize(file))
			if err != nil {
				return false
			}
			if parsed.Len() != file.Len() || parsed.WindowsNewlines != windows {
				return false
			}
			for _, key := range file.Keys() {
				expect, _ := file.Get(key)
				actual, ok := parsed.Get(key)
				if !ok || !expect.Equal(actual) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
		gen.SliceOf(gen.AnyString()),
		gen.OneConstOf("", "\r", "\r\n", "a\r\nb", "\r\n\r\n"),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestRoundTrip_CarriageReturn(t *testing.T) {
	tests := []struct {
		name    string
		windows bool
		content string
	}{
		{name: "unix crlf content", content: "a\r\nb"},
		{name: "unix trailing cr", content: "a\r"},
		{name: "unix lone cr", content: "a\rb"},
		{name: "windows crlf content", windows: true, content: "a\r\nb"},
		{name: "windows trailing cr", windows: true, content: "a\r"},
		{name: "windows lf content", windows: true, content: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := snapshot.NewFile(tt.windows)
			file.Set("test", snapshot.Of(tt.content))
			parsed, err := snapshot.Parse(snapshot.Serialize(file))
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.windows, parsed.WindowsNewlines)
			snap, ok := parsed.Get("test")
			assert.True(t, ok)
			text, _ := snap.Primary().Text()
			assert.Equal(t, tt.content, text)
		})
	}
}

func TestNoCrossTalk_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("reading A is independent of B", prop.ForAll(
		func(a, b string) bool {
			alone := snapshot.NewFile(false)
			alone.Set("testA", snapshot.Of(a))
			both := snapshot.NewFile(false)
			both.Set("testA", snapshot.Of(a))
			both.Set("testB", snapshot.Of(b))

			left, err := snapshot.Parse(snapshot.Serialize(alone))
			if err != nil {
				return false
			}
			right, err := snapshot.Parse(snapshot.Serialize(both))
			if err != nil {
				return false
			}
			x, _ := left.Get("testA")
			y, _ := right.Get("testA")
			return x.Equal(y) && x.Equal(snapshot.Of(a))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
