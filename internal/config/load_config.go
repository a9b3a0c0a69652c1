package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when the install tables fail validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// LoadConfig returns the install tables for this run.
// With an empty path the built-in defaults are used. Otherwise the file is decoded
// on top of the defaults, so keys left out of the file keep their built-in values.
// The format is picked from the extension: .toml for TOML, anything else is YAML.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(raw), &cfg); err != nil {
				return Config{}, fmt.Errorf("decode toml config %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode yaml config %s: %w", path, err)
			}
		}
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// withDefaults fills the per-repository fields that may be left implicit.
func (c Config) withDefaults() Config {
	if c.GitBackend == "" {
		c.GitBackend = GitBackendExec
	}
	repos := make([]Repository, len(c.Repositories))
	for i, r := range c.Repositories {
		r.Name = strings.TrimSpace(r.Name)
		r.Source = strings.ToLower(strings.TrimSpace(r.Source))
		if r.Source == "" {
			r.Source = SourceGit
		}
		if r.InstallPath == "" && r.Name != "" {
			r.InstallPath = filepath.Join(c.ToolsDir, r.Name)
		}
		repos[i] = r
	}
	c.Repositories = repos
	return c
}

// Validate checks the install tables and reports every problem found.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, a...)))
	}

	if !filepath.IsAbs(c.ToolsDir) {
		add("tools_dir must be an absolute path, got %q", c.ToolsDir)
	}
	if !filepath.IsAbs(c.BinDir) {
		add("bin_dir must be an absolute path, got %q", c.BinDir)
	}
	switch c.GitBackend {
	case GitBackendExec, GitBackendGoGit:
	default:
		add("git_backend must be %q or %q, got %q", GitBackendExec, GitBackendGoGit, c.GitBackend)
	}

	for i, pkg := range c.AptPackages {
		if strings.TrimSpace(pkg) == "" {
			add("apt_packages[%d] is empty", i)
		}
	}
	for i, tool := range c.PipTools {
		if strings.TrimSpace(tool) == "" {
			add("pip_tools[%d] is empty", i)
		}
	}

	seen := make(map[string]bool)
	for i, r := range c.Repositories {
		if !validName(r.Name) {
			add("repositories[%d] has invalid name %q", i, r.Name)
			continue
		}
		if seen[r.Name] {
			add("repository %s is listed more than once", r.Name)
		}
		seen[r.Name] = true

		switch r.Source {
		case SourceGit:
			if r.Repo == "" {
				add("repository %s: missing repo url", r.Name)
			}
		case SourceArchive:
			if r.URL == "" {
				add("repository %s: missing archive url", r.Name)
			}
		default:
			add("repository %s: unknown source %q", r.Name, r.Source)
		}

		if !filepath.IsAbs(r.InstallPath) {
			add("repository %s: install_path must be absolute, got %q", r.Name, r.InstallPath)
		} else if c.Protected(r.InstallPath) {
			add("repository %s: install_path %q would replace tools_dir or bin_dir", r.Name, r.InstallPath)
		}
		if r.Entry == "" || !filepath.IsLocal(r.Entry) {
			add("repository %s: entry must be a relative path inside the install directory, got %q", r.Name, r.Entry)
		}
	}

	if len(c.Capabilities.Binaries) > 0 && strings.TrimSpace(c.Capabilities.Set) == "" {
		add("capabilities.set is empty")
	}

	return errors.Join(errs...)
}

// validName reports whether name can be used both as a directory under tools_dir
// and as a command under bin_dir.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`)
}

// Protected reports whether removing path would also remove the root directory,
// tools_dir or bin_dir. Install directories are deleted before every reinstall.
func (c Config) Protected(path string) bool {
	for _, dir := range []string{c.ToolsDir, c.BinDir} {
		if dir != "" && within(path, dir) {
			return true
		}
	}
	return within(path, "/")
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

// ToolNames returns every configured tool name in configuration order:
// apt packages, then pip tools, then repository tools.
func (c Config) ToolNames() []string {
	names := make([]string, 0, len(c.AptPackages)+len(c.PipTools)+len(c.Repositories))
	names = append(names, c.AptPackages...)
	names = append(names, c.PipTools...)
	for _, r := range c.Repositories {
		names = append(names, r.Name)
	}
	return names
}
