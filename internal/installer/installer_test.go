package installer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"sectools/internal/config"
)

func TestMain(m *testing.M) {
	color.Output = io.Discard
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeRunner struct {
	commands [][]string
	// fail returns a non-nil error for commands that should fail.
	fail func(cmd []string) error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, -1, err
	}
	cmd := append([]string{name}, args...)
	r.commands = append(r.commands, cmd)
	if r.fail != nil {
		if err := r.fail(cmd); err != nil {
			return nil, []byte("fake failure"), 100, err
		}
	}
	return nil, nil, 0, nil
}

func (r *fakeRunner) joined() []string {
	out := make([]string, len(r.commands))
	for i, c := range r.commands {
		out[i] = strings.Join(c, " ")
	}
	return out
}

func (r *fakeRunner) ran(cmd string) bool {
	for _, c := range r.joined() {
		if c == cmd {
			return true
		}
	}
	return false
}

// fakeCloner populates dest with the files listed for the repository URL.
type fakeCloner struct {
	files   map[string][]string
	fail    map[string]error
	cloned  []string
	onClone func(dest string)
}

func (c *fakeCloner) Clone(ctx context.Context, repoURL, dest string) error {
	if c.onClone != nil {
		c.onClone(dest)
	}
	c.cloned = append(c.cloned, repoURL)
	if err := c.fail[repoURL]; err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, rel := range c.files[repoURL] {
		p := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		ToolsDir:   filepath.Join(root, "opt"),
		BinDir:     filepath.Join(root, "bin"),
		GitBackend: config.GitBackendExec,
	}
	return cfg
}

func withRepos(cfg config.Config, repos ...config.Repository) config.Config {
	for i := range repos {
		if repos[i].Source == "" {
			repos[i].Source = config.SourceGit
		}
		if repos[i].InstallPath == "" {
			repos[i].InstallPath = filepath.Join(cfg.ToolsDir, repos[i].Name)
		}
	}
	cfg.Repositories = repos
	return cfg
}

func TestInstallPackagesContinuesAfterFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.AptPackages = []string{"nmap", "nikto", "tcpdump"}
	r := &fakeRunner{fail: func(cmd []string) error {
		if cmd[len(cmd)-1] == "nikto" {
			return errors.New("exit status 100")
		}
		return nil
	}}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	if err := inst.InstallPackages(context.Background()); err != nil {
		t.Fatalf("install packages: %v", err)
	}

	for _, pkg := range cfg.AptPackages {
		if !r.ran("apt-get install -y " + pkg) {
			t.Fatalf("expected %s to be attempted, commands: %v", pkg, r.joined())
		}
	}
	report := inst.Report()
	if o, _ := report.Lookup(StageApt, "nikto"); o.Status != StatusFailed {
		t.Fatalf("expected nikto failed, got %+v", o)
	}
	if o, _ := report.Lookup(StageApt, "tcpdump"); o.Status != StatusOK {
		t.Fatalf("expected tcpdump ok, got %+v", o)
	}
	if len(report.Failed()) != 1 {
		t.Fatalf("expected exactly one failure, got %+v", report.Failed())
	}
}

func TestUpdateIndexesFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.AptPackages = []string{"nmap"}
	r := &fakeRunner{fail: func(cmd []string) error {
		if cmd[1] == "update" {
			return errors.New("exit status 100")
		}
		return nil
	}}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	report, err := inst.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if o, _ := report.Lookup(StageIndexes, "apt-get update"); o.Status != StatusFailed {
		t.Fatalf("expected update failure recorded, got %+v", o)
	}
	if !r.ran("apt-get install -y nmap") {
		t.Fatalf("expected packages to be installed after a failed update, commands: %v", r.joined())
	}
}

func TestInstallPipToolsUpgradesPipFirst(t *testing.T) {
	cfg := testConfig(t)
	cfg.PipTools = []string{"theHarvester", "shodan"}
	r := &fakeRunner{fail: func(cmd []string) error {
		if cmd[len(cmd)-1] == "theHarvester" {
			return errors.New("exit status 1")
		}
		return nil
	}}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	if err := inst.InstallPipTools(context.Background()); err != nil {
		t.Fatalf("install pip tools: %v", err)
	}
	want := []string{
		"pip3 install --upgrade pip",
		"pip3 install theHarvester",
		"pip3 install shodan",
	}
	got := r.joined()
	if len(got) != len(want) {
		t.Fatalf("unexpected commands %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if o, _ := inst.Report().Lookup(StagePip, "shodan"); o.Status != StatusOK {
		t.Fatalf("expected shodan ok, got %+v", o)
	}
}

func TestInstallRepositoriesReplacesPreviousInstall(t *testing.T) {
	cfg := withRepos(testConfig(t), config.Repository{
		Name:  "sqlmap",
		Repo:  "https://github.com/sqlmapproject/sqlmap.git",
		Entry: "sqlmap.py",
	})
	installPath := cfg.Repositories[0].InstallPath
	stale := filepath.Join(installPath, "stale.txt")
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	cloner := &fakeCloner{
		files: map[string][]string{cfg.Repositories[0].Repo: {"sqlmap.py"}},
		onClone: func(dest string) {
			if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected %s to be removed before cloning, stat err=%v", dest, err)
			}
		},
	}
	inst := New(cfg, Options{Runner: &fakeRunner{}, Cloner: cloner})

	if err := inst.InstallRepositories(context.Background()); err != nil {
		t.Fatalf("install repositories: %v", err)
	}

	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale file to be gone, stat err=%v", err)
	}
	script := filepath.Join(installPath, "sqlmap.py")
	link := filepath.Join(cfg.BinDir, "sqlmap")
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != script {
		t.Fatalf("link points to %q, want %q", target, script)
	}
	info, err := os.Stat(script)
	if err != nil {
		t.Fatalf("stat script: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
}

func TestMissingEntryPointSkipsLinkAndContinues(t *testing.T) {
	cfg := withRepos(testConfig(t),
		config.Repository{Name: "nikto", Repo: "https://github.com/sullo/nikto.git", Entry: "program/nikto.pl"},
		config.Repository{Name: "sqlmap", Repo: "https://github.com/sqlmapproject/sqlmap.git", Entry: "sqlmap.py"},
	)
	cloner := &fakeCloner{files: map[string][]string{
		"https://github.com/sullo/nikto.git":          {"README.md"},
		"https://github.com/sqlmapproject/sqlmap.git": {"sqlmap.py"},
	}}
	inst := New(cfg, Options{Runner: &fakeRunner{}, Cloner: cloner})

	if err := inst.InstallRepositories(context.Background()); err != nil {
		t.Fatalf("install repositories: %v", err)
	}

	if _, err := os.Lstat(filepath.Join(cfg.BinDir, "nikto")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no nikto link, lstat err=%v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.BinDir, "sqlmap")); err != nil {
		t.Fatalf("expected sqlmap link: %v", err)
	}
	if o, _ := inst.Report().Lookup(StageLink, "nikto"); o.Status != StatusSkipped {
		t.Fatalf("expected nikto link skipped, got %+v", o)
	}
}

func TestCloneFailureSkipsRemainingStepsForThatTool(t *testing.T) {
	cfg := withRepos(testConfig(t),
		config.Repository{Name: "broken", Repo: "https://example.com/broken.git", Entry: "run.py"},
		config.Repository{Name: "sqlmap", Repo: "https://github.com/sqlmapproject/sqlmap.git", Entry: "sqlmap.py"},
	)
	cloner := &fakeCloner{
		files: map[string][]string{"https://github.com/sqlmapproject/sqlmap.git": {"sqlmap.py"}},
		fail:  map[string]error{"https://example.com/broken.git": errors.New("repository not found")},
	}
	r := &fakeRunner{}
	inst := New(cfg, Options{Runner: r, Cloner: cloner})

	if err := inst.InstallRepositories(context.Background()); err != nil {
		t.Fatalf("install repositories: %v", err)
	}

	report := inst.Report()
	if o, _ := report.Lookup(StageFetch, "broken"); o.Status != StatusFailed {
		t.Fatalf("expected broken fetch failure, got %+v", o)
	}
	if _, ok := report.Lookup(StageLink, "broken"); ok {
		t.Fatalf("expected no link attempt for broken")
	}
	if len(cloner.cloned) != 2 {
		t.Fatalf("expected both repositories to be attempted, got %v", cloner.cloned)
	}
	if o, _ := report.Lookup(StageLink, "sqlmap"); o.Status != StatusOK {
		t.Fatalf("expected sqlmap linked, got %+v", o)
	}
}

func TestRequirementsInstalledOnlyWhenPresent(t *testing.T) {
	cfg := withRepos(testConfig(t),
		config.Repository{Name: "theHarvester", Repo: "https://github.com/laramies/theHarvester.git", Entry: "theHarvester.py"},
		config.Repository{Name: "setoolkit", Repo: "https://github.com/trustedsec/social-engineer-toolkit.git", Entry: "setoolkit"},
	)
	cloner := &fakeCloner{files: map[string][]string{
		"https://github.com/laramies/theHarvester.git":              {"theHarvester.py", "requirements.txt"},
		"https://github.com/trustedsec/social-engineer-toolkit.git": {"setoolkit"},
	}}
	r := &fakeRunner{}
	inst := New(cfg, Options{Runner: r, Cloner: cloner})

	if err := inst.InstallRepositories(context.Background()); err != nil {
		t.Fatalf("install repositories: %v", err)
	}

	manifest := filepath.Join(cfg.Repositories[0].InstallPath, "requirements.txt")
	if !r.ran("pip3 install -r " + manifest) {
		t.Fatalf("expected requirements install, commands: %v", r.joined())
	}
	if len(r.commands) != 1 {
		t.Fatalf("expected a single pip call, got %v", r.joined())
	}
	if o, _ := inst.Report().Lookup(StageDeps, "setoolkit"); o.Status != StatusSkipped {
		t.Fatalf("expected setoolkit deps skipped, got %+v", o)
	}
}

func TestLinkEntryReplacesDanglingLink(t *testing.T) {
	cfg := withRepos(testConfig(t), config.Repository{Name: "sqlmap", Repo: "x", Entry: "sqlmap.py"})
	repo := cfg.Repositories[0]
	if err := os.MkdirAll(repo.InstallPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repo.InstallPath, "sqlmap.py"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(cfg.BinDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	link := filepath.Join(cfg.BinDir, "sqlmap")
	if err := os.Symlink(filepath.Join(cfg.ToolsDir, "gone", "sqlmap.py"), link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	inst := New(cfg, Options{Runner: &fakeRunner{}, Cloner: &fakeCloner{}})
	if err := inst.LinkEntry(repo); err != nil {
		t.Fatalf("link entry: %v", err)
	}
	target, err := os.Readlink(link)
	if err != nil || target != filepath.Join(repo.InstallPath, "sqlmap.py") {
		t.Fatalf("unexpected link target %q err=%v", target, err)
	}
}

func TestLinkEntryMissingReturnsSentinel(t *testing.T) {
	cfg := withRepos(testConfig(t), config.Repository{Name: "nikto", Repo: "x", Entry: "program/nikto.pl"})
	inst := New(cfg, Options{Runner: &fakeRunner{}, Cloner: &fakeCloner{}})
	if err := inst.LinkEntry(cfg.Repositories[0]); !errors.Is(err, ErrEntryMissing) {
		t.Fatalf("expected ErrEntryMissing, got %v", err)
	}
}

func TestAssignCapabilitiesSkipsMissingBinaries(t *testing.T) {
	cfg := testConfig(t)
	present := filepath.Join(t.TempDir(), "tcpdump")
	if err := os.WriteFile(present, nil, 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(t.TempDir(), "dumpcap")
	cfg.Capabilities = config.Capabilities{
		Set:      "cap_net_raw,cap_net_admin=eip",
		Binaries: []string{present, missing},
	}
	r := &fakeRunner{}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	if err := inst.AssignCapabilities(context.Background()); err != nil {
		t.Fatalf("assign capabilities: %v", err)
	}

	got := r.joined()
	if len(got) != 1 || got[0] != "setcap cap_net_raw,cap_net_admin=eip "+present {
		t.Fatalf("unexpected commands %v", got)
	}
	if o, _ := inst.Report().Lookup(StageCaps, missing); o.Status != StatusSkipped {
		t.Fatalf("expected missing binary skipped, got %+v", o)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cfg := withRepos(testConfig(t), config.Repository{Name: "sqlmap", Repo: "x", Entry: "sqlmap.py"})
	cfg.AptPackages = []string{"nmap", "nikto"}
	r := &fakeRunner{}
	cloner := &fakeCloner{}
	inst := New(cfg, Options{Runner: r, Cloner: cloner})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inst.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(r.commands) != 0 || len(cloner.cloned) != 0 {
		t.Fatalf("expected no work after cancellation, commands=%v cloned=%v", r.joined(), cloner.cloned)
	}
}

func TestRunCancelledMidwayStopsBatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.AptPackages = []string{"nmap", "nikto", "tcpdump"}
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{fail: func(cmd []string) error {
		if cmd[len(cmd)-1] == "nikto" {
			cancel()
			return context.Canceled
		}
		return nil
	}}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	if _, err := inst.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.ran("apt-get install -y tcpdump") {
		t.Fatalf("expected tcpdump not to be attempted after cancellation")
	}
}

func TestNewSelectsClonerFromBackend(t *testing.T) {
	cfg := testConfig(t)
	if _, ok := New(cfg, Options{Runner: &fakeRunner{}}).cloner.(ExecCloner); !ok {
		t.Fatalf("expected ExecCloner for exec backend")
	}
	cfg.GitBackend = config.GitBackendGoGit
	if _, ok := New(cfg, Options{Runner: &fakeRunner{}}).cloner.(GoGitCloner); !ok {
		t.Fatalf("expected GoGitCloner for go-git backend")
	}
}

func TestFetchRefusesToReplaceToolsDir(t *testing.T) {
	cfg := withRepos(testConfig(t), config.Repository{Name: "everything", Repo: "https://example.com/x.git", Entry: "run.sh"})
	cfg.Repositories[0].InstallPath = cfg.ToolsDir
	keep := filepath.Join(cfg.ToolsDir, "sqlmap", "sqlmap.py")
	if err := os.MkdirAll(filepath.Dir(keep), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(keep, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cloner := &fakeCloner{}
	inst := New(cfg, Options{Runner: &fakeRunner{}, Cloner: cloner})

	if err := inst.InstallRepositories(context.Background()); err != nil {
		t.Fatalf("install repositories: %v", err)
	}

	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected other tools to survive: %v", err)
	}
	o, _ := inst.Report().Lookup(StageFetch, "everything")
	if o.Status != StatusFailed || !strings.Contains(o.Detail, "refusing to replace") {
		t.Fatalf("expected refused fetch, got %+v", o)
	}
	if len(cloner.cloned) != 0 {
		t.Fatalf("expected no clone, got %v", cloner.cloned)
	}
}

func TestRunOnlySelectedStages(t *testing.T) {
	cfg := testConfig(t)
	cfg.AptPackages = []string{"nmap"}
	cfg.PipTools = []string{"theHarvester"}
	r := &fakeRunner{}
	inst := New(cfg, Options{Runner: r, Cloner: &fakeCloner{}})

	report, err := inst.Run(context.Background(), inst.InstallPipTools)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.ran("apt-get update") || r.ran("apt-get install -y nmap") {
		t.Fatalf("expected apt stages not to run, commands: %v", r.joined())
	}
	if o, _ := report.Lookup(StagePip, "theHarvester"); o.Status != StatusOK {
		t.Fatalf("expected theHarvester ok, got %+v", o)
	}
}
