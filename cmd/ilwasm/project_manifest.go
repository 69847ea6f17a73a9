package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const manifestName = "ilwasm.toml"

const noManifestMessage = "no " + manifestName + " found\nplease name the inputs explicitly, e.g.:\n  ilwasm build path/to/program.irmp"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
	Run     runConfig     `toml:"run"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	Inputs []string `toml:"inputs"`
	OutDir string   `toml:"out_dir"`
	Jobs   int      `toml:"jobs"`
	// Cache is a pointer so an absent key keeps the default (enabled).
	Cache *bool `toml:"cache"`
}

type runConfig struct {
	Main      string `toml:"main"`
	StdoutDir string `toml:"stdout_dir"`
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
		candidate := filepath.Join(dir, manifestName)
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
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0].String())
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if meta.IsDefined("build", "jobs") && cfg.Build.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	for _, in := range cfg.Build.Inputs {
		if strings.TrimSpace(in) == "" {
			return projectConfig{}, fmt.Errorf("%s: empty entry in [build].inputs", path)
		}
	}
	return cfg, nil
}

// resolve makes a manifest-relative path absolute.
func (m *projectManifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// buildInputs returns the configured inputs, defaulting to the manifest root.
func (m *projectManifest) buildInputs() []string {
	if len(m.Config.Build.Inputs) == 0 {
		return []string{m.Root}
	}
	out := make([]string, 0, len(m.Config.Build.Inputs))
	for _, in := range m.Config.Build.Inputs {
		out = append(out, m.resolve(in))
	}
	return out
}

func (m *projectManifest) cacheEnabled() bool {
	return m == nil || m.Config.Build.Cache == nil || *m.Config.Build.Cache
}
