package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"clrhost/internal/common/fsutil"
	"clrhost/internal/locator"
	"clrhost/pkg/coreclr"
)

// Config holds settings that may also come from the environment.
// Zero values mean "unspecified"; environment variables and flags win.
type Config struct {
	CoreCLRRoot string            `json:"coreclr_root" yaml:"coreclr_root" toml:"coreclr_root"`
	SDKRoot     string            `json:"sdk_root" yaml:"sdk_root" toml:"sdk_root"`
	LogLevel    string            `json:"log_level" yaml:"log_level" toml:"log_level"`
	AppDomain   string            `json:"app_domain" yaml:"app_domain" toml:"app_domain"`
	RPath       bool              `json:"rpath" yaml:"rpath" toml:"rpath"`
	Properties  map[string]string `json:"properties" yaml:"properties" toml:"properties"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if cfg.CoreCLRRoot, err = fsutil.ExpandHome(cfg.CoreCLRRoot); err != nil {
		return cfg, err
	}
	if cfg.SDKRoot, err = fsutil.ExpandHome(cfg.SDKRoot); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Env exposes the root settings under the locator's variable names so the
// config can sit below the process environment in a locator.LayeredEnv.
func (c Config) Env() locator.MapEnv {
	return locator.MapEnv{
		locator.RootVar:    c.CoreCLRRoot,
		locator.SDKRootVar: c.SDKRoot,
	}
}

// RuntimeProperties returns Properties sorted by name.
func (c Config) RuntimeProperties() []coreclr.Property {
	names := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]coreclr.Property, 0, len(names))
	for _, k := range names {
		out = append(out, coreclr.Property{Name: k, Value: c.Properties[k]})
	}
	return out
}
