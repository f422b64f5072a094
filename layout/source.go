package layout

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/viant/selfie/goid"
)

// CallLocation identifies a call site
type CallLocation struct {
	Class    string // fully qualified class, or go package qualified suite name
	FileName string // optional source file base name
	Path     string // optional absolute source path hint, used when it exists
	Line     int    // 1-based line number
}

// SamePathAs returns true when both calls resolve to the same source file
func (c CallLocation) SamePathAs(other CallLocation) bool {
	return c.Class == other.Class && c.FileName == other.FileName && c.Path == other.Path
}

func (c CallLocation) String() string {
	name := c.FileName
	if name == "" {
		name = simpleName(c.Class)
	}
	return fmt.Sprintf("%v(%v:%d)", c.Class, name, c.Line)
}

func (c CallLocation) identity() string {
	return c.Class + "\x00" + c.FileName + "\x00" + c.Path
}

type cachedPath struct {
	call CallLocation
	path string
}

// SourcePathForCall returns source file declaring the call, it fails with SourceNotFoundError
func (l *Layout) SourcePathForCall(call CallLocation) (string, error) {
	id := goid.Current()
	if value, ok := l.cache.Load(id); ok {
		if cached := value.(*cachedPath); cached.call.SamePathAs(call) {
			return cached.path, nil
		}
	}
	value, err, _ := l.group.Do(call.identity(), func() (interface{}, error) {
		return l.computePathForCall(call), nil
	})
	if err != nil {
		return "", err
	}
	location := value.(string)
	if location == "" {
		return "", &SourceNotFoundError{Call: call, Roots: l.roots()}
	}
	l.cache.Store(id, &cachedPath{call: call, path: location})
	return location, nil
}

// Forget drops the calling goroutine's cached source path
func (l *Layout) Forget() {
	l.cache.Delete(goid.Current())
}

// Walks returns how many times source roots were walked
func (l *Layout) Walks() int64 {
	return l.walks.Load()
}

func (l *Layout) roots() []string {
	return append([]string{l.config.RootFolder}, l.config.OtherSourceRoots...)
}

func (l *Layout) computePathForCall(call CallLocation) string {
	if call.Path != "" && isRegularFile(call.Path) {
		return call.Path
	}
	var candidates map[string]bool
	if call.FileName != "" {
		candidates = map[string]bool{call.FileName: true}
	} else {
		candidates = l.candidateNames(call.Class)
	}
	for _, root := range l.roots() {
		if found := l.walkFor(root, candidates); found != "" {
			return found
		}
	}
	return ""
}

func (l *Layout) walkFor(root string, candidates map[string]bool) string {
	l.walks.Add(1)
	found := ""
	_ = filepath.WalkDir(root, func(location string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if location != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() && candidates[entry.Name()] {
			found = location
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

func (l *Layout) candidateNames(className string) map[string]bool {
	name := simpleName(className)
	result := map[string]bool{}
	for _, ext := range l.config.SourceExtensions {
		ext = strings.TrimPrefix(ext, ".")
		result[name+"."+ext] = true
		if ext == "go" {
			snake := toSnake(name)
			result[snake+".go"] = true
			if !strings.HasSuffix(snake, "_test") {
				result[snake+"_test.go"] = true
			}
		}
	}
	return result
}

// simpleName strips package and inner class parts: com.example.Outer$Inner -> Outer
func simpleName(className string) string {
	if idx := strings.LastIndexAny(className, "./"); idx != -1 {
		className = className[idx+1:]
	}
	if idx := strings.IndexByte(className, '$'); idx != -1 {
		className = className[:idx]
	}
	return className
}

func toSnake(name string) string {
	builder := strings.Builder{}
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				builder.WriteByte('_')
			}
			builder.WriteRune(unicode.ToLower(r))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
