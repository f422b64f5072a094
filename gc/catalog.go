package gc

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Catalog lists test methods declared by a class, regardless of whether they ran
type Catalog interface {
	MethodsOf(className string) ([]string, error)
	IsTestMethod(className, method string) (bool, error)
}

// StaticCatalog is a catalog backed by a class to methods map
type StaticCatalog map[string][]string

// MethodsOf returns sorted test methods of a class, unknown class has none
func (c StaticCatalog) MethodsOf(className string) ([]string, error) {
	methods := append([]string(nil), c[className]...)
	sort.Strings(methods)
	return methods, nil
}

// IsTestMethod returns true if the class declares method as a test
func (c StaticCatalog) IsTestMethod(className, method string) (bool, error) {
	for _, candidate := range c[className] {
		if candidate == method {
			return true, nil
		}
	}
	return false, nil
}

type catalogDocument struct {
	Classes map[string][]string `yaml:"classes"`
}

// LoadCatalog reads a YAML catalog:
//
//	classes:
//	  com.example.FooTest: [test1, test2]
func LoadCatalog(ctx context.Context, URL string) (StaticCatalog, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %v: %w", URL, err)
	}
	document := catalogDocument{}
	if err = yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %v: %w", URL, err)
	}
	if document.Classes == nil {
		document.Classes = map[string][]string{}
	}
	return document.Classes, nil
}

// MethodsNotRun returns catalog test methods of a class for which ran returns false
func MethodsNotRun(catalog Catalog, className string, ran func(method string) bool) ([]string, error) {
	if catalog == nil {
		return nil, nil
	}
	methods, err := catalog.MethodsOf(className)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, method := range methods {
		if !ran(method) {
			result = append(result, method)
		}
	}
	return result, nil
}
