package layout

import (
	"context"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Project represents a detected project holding test sources
type Project struct {
	RootPath   string // directory holding the project marker
	Type       string // go, java, javascript or unknown
	ModulePath string // go module path, only for go projects
	TestRoot   string // directory where test sources live
}

var markers = []string{
	"go.mod",           // Go projects
	"pom.xml",          // Java/Maven projects
	"build.gradle",     // Java/Gradle projects
	"build.gradle.kts", // Kotlin/Gradle projects
	"package.json",     // JavaScript/Node projects
}

var standardTestDirs = []string{
	"src/test/java",
	"src/test/kotlin",
	"src/test/groovy",
	"src/test/scala",
	"src/test/resources",
}

// DetectProject searches up from dir for a project marker and resolves its test root
func DetectProject(ctx context.Context, dir string) (*Project, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	project := &Project{Type: "unknown", RootPath: absPath, TestRoot: absPath}
	rootPath, marker := findProjectRoot(absPath)
	if rootPath == "" {
		return project, nil
	}
	project.RootPath = rootPath
	project.TestRoot = rootPath
	project.Type = projectType(marker)
	if project.Type == "go" {
		project.ModulePath = ModulePath(ctx, filepath.Join(rootPath, marker))
		return project, nil
	}
	for _, candidate := range standardTestDirs {
		location := filepath.Join(rootPath, filepath.FromSlash(candidate))
		if info, err := os.Stat(location); err == nil && info.IsDir() {
			project.TestRoot = location
			break
		}
	}
	return project, nil
}

// ModulePath returns module path declared in go.mod, or empty string
func ModulePath(ctx context.Context, goModPath string) string {
	fs := afs.New()
	content, err := fs.DownloadWithURL(ctx, goModPath)
	if err != nil || len(content) == 0 {
		return ""
	}
	return modfile.ModulePath(content)
}

func findProjectRoot(startDir string) (string, string) {
	dir := startDir
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, marker
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ""
}

func projectType(marker string) string {
	switch marker {
	case "go.mod":
		return "go"
	case "pom.xml", "build.gradle", "build.gradle.kts":
		return "java"
	case "package.json":
		return "javascript"
	default:
		return "unknown"
	}
}
