// Package config loads tether's layered configuration: embedded
// defaults first, then an optional .tether.toml at the project root.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tetherhq/tether/pkg/errors"
)

// OverrideFilename is the per-project configuration override file.
const OverrideFilename = ".tether.toml"

// Manifest holds manifest-file merge policy configuration
type Manifest struct {
	// Filename is the manifest basename workspaces are identified by.
	Filename string `koanf:"filename" toml:"filename"`
	// ProtectedFields always keep the project's current value.
	ProtectedFields []string `koanf:"protected_fields" toml:"protected_fields"`
	// MergeFields are deep-merged one level; diverging sub-keys emit
	// conflict markers.
	MergeFields []string `koanf:"merge_fields" toml:"merge_fields"`
}

// Workspaces holds workspace discovery configuration
type Workspaces struct {
	// Categories are the directories scanned for workspaces.
	Categories []string `koanf:"categories" toml:"categories"`
	// Fallbacks maps a category directory to the generic template
	// workspace used when no name match exists.
	Fallbacks map[string]string `koanf:"fallbacks" toml:"fallbacks"`
}

// Patterns holds ignore patterns
type Patterns struct {
	// IgnoreBasenames are never diffed or applied.
	IgnoreBasenames []string `koanf:"ignore_basenames" toml:"ignore_basenames"`
}

// Config is the root configuration structure
type Config struct {
	Manifest   Manifest   `koanf:"manifest" toml:"manifest"`
	Workspaces Workspaces `koanf:"workspaces" toml:"workspaces"`
	Patterns   Patterns   `koanf:"patterns" toml:"patterns"`
}

// IsProtectedField reports whether key keeps the project's value.
func (c *Config) IsProtectedField(key string) bool {
	return contains(c.Manifest.ProtectedFields, key)
}

// IsMergeField reports whether key is merged sub-key by sub-key.
func (c *Config) IsMergeField(key string) bool {
	return contains(c.Manifest.MergeFields, key)
}

// IsIgnoredBasename reports whether a file basename is excluded from
// diffing and applying.
func (c *Config) IsIgnoredBasename(name string) bool {
	return contains(c.Patterns.IgnoreBasenames, name)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

var (
	defaultOnce sync.Once
	defaultCfg  *Config
)

// Default returns the embedded default configuration. The result is
// cached; loading the embedded defaults cannot fail at runtime, so a
// failure here panics.
func Default() *Config {
	defaultOnce.Do(func() {
		cfg, err := Load("")
		if err != nil {
			panic(err)
		}
		defaultCfg = cfg
	})
	return defaultCfg
}

// Load builds the configuration from the embedded defaults, overlaid
// with .tether.toml from projectRoot if present. An empty projectRoot
// loads defaults only.
func Load(projectRoot string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load embedded defaults")
	}

	if projectRoot != "" {
		path := filepath.Join(projectRoot, OverrideFilename)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load project config").
					WithDetail("path", path)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}
