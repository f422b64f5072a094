package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is environment variable prefix, SELFIE_SNAPSHOT_FOLDER maps to snapshot.folder
const DefaultEnvPrefix = "SELFIE_"

// Loader loads settings from a YAML file, environment and explicit values
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	values    map[string]interface{}
}

type LoaderOption func(*Loader)

// WithEnvPrefix sets environment variable prefix
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithFile sets YAML settings file
func WithFile(location string) LoaderOption {
	return func(l *Loader) {
		l.filePath = location
	}
}

// WithValues sets values overriding every other source, keys are dotted (snapshot.folder)
func WithValues(values map[string]interface{}) LoaderOption {
	return func(l *Loader) {
		l.values = values
	}
}

// NewLoader creates a loader
func NewLoader(opts ...LoaderOption) *Loader {
	ret := &Loader{k: koanf.New("."), envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Load returns default settings overridden by file, env and values
func (l *Loader) Load() (*Settings, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load settings file %v: %w", l.filePath, err)
		}
	}
	prefix := l.envPrefix
	transform := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", ".")
	}
	if err := l.k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
		return nil, fmt.Errorf("failed to load settings env: %w", err)
	}
	if len(l.values) > 0 {
		if err := l.k.Load(valueProvider(l.values), nil); err != nil {
			return nil, fmt.Errorf("failed to load settings values: %w", err)
		}
	}
	settings := Default()
	if err := l.k.Unmarshal("", settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Load loads settings with default loader
func Load(opts ...LoaderOption) (*Settings, error) {
	return NewLoader(opts...).Load()
}

var errReadBytesNotSupported = errors.New("value provider supports Read only")

// valueProvider is a koanf provider of dotted key values
type valueProvider map[string]interface{}

func (v valueProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (v valueProvider) Read() (map[string]interface{}, error) {
	result := map[string]interface{}{}
	for key, value := range v {
		parts := strings.Split(key, ".")
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return result, nil
}
