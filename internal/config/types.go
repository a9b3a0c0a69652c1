package config

// Source kinds for a repository tool.
const (
	SourceGit     = "git"
	SourceArchive = "archive"
)

// Git backends used for SourceGit tools.
const (
	GitBackendExec  = "exec"   // shell out to the git binary
	GitBackendGoGit = "go-git" // clone in-process
)

// Config is the top-level structure holding the static install tables.
// It is built once at startup and never mutated afterwards.
type Config struct {
	ToolsDir     string       `yaml:"tools_dir" toml:"tools_dir"`
	BinDir       string       `yaml:"bin_dir" toml:"bin_dir"`
	GitBackend   string       `yaml:"git_backend" toml:"git_backend"`
	AptPackages  []string     `yaml:"apt_packages" toml:"apt_packages"`
	PipTools     []string     `yaml:"pip_tools" toml:"pip_tools"`
	Repositories []Repository `yaml:"repositories" toml:"repositories"`
	Capabilities Capabilities `yaml:"capabilities" toml:"capabilities"`
}

// Repository represents a tool fetched from source and linked into the bin directory.
// - Name: command name created under BinDir.
// - Source: "git" (default) or "archive".
// - Repo: clone URL for git sources.
// - URL: download URL for archive sources.
// - InstallPath: target directory, defaults to ToolsDir/Name.
// - Entry: entry-point script relative to InstallPath.
type Repository struct {
	Name        string `yaml:"name" toml:"name"`
	Source      string `yaml:"source" toml:"source"`
	Repo        string `yaml:"repo" toml:"repo"`
	URL         string `yaml:"url" toml:"url"`
	InstallPath string `yaml:"install_path" toml:"install_path"`
	Entry       string `yaml:"entry" toml:"entry"`
}

// Capabilities describes the setcap assignment for packet-capture binaries.
type Capabilities struct {
	Set      string   `yaml:"set" toml:"set"`
	Binaries []string `yaml:"binaries" toml:"binaries"`
}
