// Package config supplies the active text search configuration.
//
// Providers are read at the moment a fragment is synthesized, never cached
// by the callers, so changing the configuration takes effect on the next
// build or compile call.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// EnvTextSearchConfig is the environment variable read by Env.
const EnvTextSearchConfig = "FULLTEXT_TEXT_SEARCH_CONFIG"

// Provider returns the name of the text search configuration to use.
type Provider interface {
	TextSearchConfig() (string, error)
}

// Resolve reads p and rejects empty values with a ConfigurationMissing error.
func Resolve(p Provider) (string, error) {
	if p == nil {
		return "", fterr.ConfigMissing("config.Resolve", errors.New("no provider"))
	}
	name, err := p.TextSearchConfig()
	if err != nil {
		if fterr.IsConfigMissing(err) {
			return "", err
		}
		return "", fterr.ConfigMissing("config.Resolve", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fterr.ConfigMissing("config.Resolve", nil)
	}
	return name, nil
}

// Static is an in-memory provider. Set may be called concurrently with reads.
type Static struct {
	mu   sync.RWMutex
	name string
}

// NewStatic creates a Static provider holding name.
func NewStatic(name string) *Static {
	return &Static{name: name}
}

// TextSearchConfig returns the current name.
func (s *Static) TextSearchConfig() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name, nil
}

// Set replaces the current name.
func (s *Static) Set(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Env reads a configuration name from an environment variable on every call.
type Env struct {
	// Key is the variable name; empty means EnvTextSearchConfig.
	Key string
}

// TextSearchConfig returns the variable's current value.
func (e Env) TextSearchConfig() (string, error) {
	key := e.Key
	if key == "" {
		key = EnvTextSearchConfig
	}
	return os.Getenv(key), nil
}

// Chain returns the first non-empty value among its providers.
// Provider errors other than ConfigurationMissing stop the chain.
type Chain []Provider

// TextSearchConfig implements Provider.
func (c Chain) TextSearchConfig() (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		name, err := p.TextSearchConfig()
		if err != nil {
			if fterr.IsConfigMissing(err) {
				continue
			}
			return "", err
		}
		if strings.TrimSpace(name) != "" {
			return name, nil
		}
	}
	return "", nil
}

// Settings is the on-disk settings document.
//
//	text_search_config: english
//	table_prefix: app_
//	default_algorithm: gin
type Settings struct {
	// TextSearchConfig names the PostgreSQL text search configuration.
	TextSearchConfig string `yaml:"text_search_config"`

	// TablePrefix is prepended to table names in generated DDL.
	TablePrefix string `yaml:"table_prefix,omitempty"`

	// DefaultAlgorithm is the index access method for full-text indexes.
	DefaultAlgorithm string `yaml:"default_algorithm,omitempty"`
}

// LoadSettings reads and parses a settings YAML file.
// Unknown fields are rejected to catch typos.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings parses a settings YAML document.
// An empty document yields zero Settings with the default algorithm applied.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if s.DefaultAlgorithm == "" {
		s.DefaultAlgorithm = schema.DefaultAlgorithm
	}
	return &s, nil
}

// File reads the settings file on every call.
type File struct {
	Path string
}

// TextSearchConfig implements Provider.
func (f File) TextSearchConfig() (string, error) {
	s, err := LoadSettings(f.Path)
	if err != nil {
		return "", fterr.ConfigMissing("config.File", err)
	}
	return s.TextSearchConfig, nil
}
