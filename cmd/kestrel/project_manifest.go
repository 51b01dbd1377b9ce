package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"kestrel/internal/driver"
	"kestrel/internal/scope"
	"kestrel/internal/scopescript"
)

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Scopes scopesConfig `toml:"scopes"`
	Output outputConfig `toml:"output"`
}

type scopesConfig struct {
	Policy     string  `toml:"policy"`
	Buckets    int     `toml:"buckets"`
	LoadFactor float64 `toml:"load_factor"`
}

type outputConfig struct {
	Format string `toml:"format"`
}

// settings is what the scopes command runs with after merging the manifest.
type settings struct {
	defaults scopescript.Options
	format   scopescript.Format
}

func defaultSettings() settings {
	return settings{defaults: scopescript.DefaultOptions(), format: scopescript.FormatText}
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, driver.ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return projectConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("scopes", "policy") {
		if _, err := scope.ParsePolicy(cfg.Scopes.Policy); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [scopes].policy: %w", path, err)
		}
	}
	if meta.IsDefined("scopes", "buckets") && (cfg.Scopes.Buckets <= 0 || cfg.Scopes.Buckets > scope.MaxBuckets) {
		return projectConfig{}, fmt.Errorf("%s: [scopes].buckets must be in [1, %d]", path, scope.MaxBuckets)
	}
	if meta.IsDefined("scopes", "load_factor") && (cfg.Scopes.LoadFactor <= 0 || cfg.Scopes.LoadFactor > 8) {
		return projectConfig{}, fmt.Errorf("%s: [scopes].load_factor must be in (0, 8]", path)
	}
	if meta.IsDefined("output", "format") {
		if _, err := scopescript.ParseFormat(cfg.Output.Format); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [output].format: %w", path, err)
		}
	}
	return cfg, nil
}

// apply overlays the manifest on s. Values were validated on load.
func (m *projectManifest) apply(s settings) settings {
	if m == nil {
		return s
	}
	c := m.Config
	if c.Scopes.Policy != "" {
		s.defaults.Policy, _ = scope.ParsePolicy(c.Scopes.Policy)
	}
	if c.Scopes.Buckets > 0 {
		s.defaults.Buckets = c.Scopes.Buckets
	}
	if c.Scopes.LoadFactor > 0 {
		s.defaults.LoadFactor = c.Scopes.LoadFactor
	}
	if c.Output.Format != "" {
		s.format, _ = scopescript.ParseFormat(c.Output.Format)
	}
	return s
}
