package installer

import (
	"context"
	"errors"
	"net/http"

	"sectools/internal/config"
	"sectools/internal/logger"
	"sectools/internal/runner"
)

// Options carries the collaborators of an Installer. Nil fields get the real implementations.
type Options struct {
	Runner   runner.CommandRunner
	Cloner   Cloner
	Archives ArchiveFetcher
}

// Installer runs the install stages for one configuration.
// Stages run strictly in sequence and every external command blocks until it exits.
type Installer struct {
	cfg      config.Config
	runner   runner.CommandRunner
	cloner   Cloner
	archives ArchiveFetcher
	report   *Report
}

// New builds an Installer. The git backend is chosen from cfg.GitBackend unless opts.Cloner is set.
func New(cfg config.Config, opts Options) *Installer {
	r := opts.Runner
	if r == nil {
		r = runner.NewExecRunner()
	}

	cloner := opts.Cloner
	if cloner == nil {
		if cfg.GitBackend == config.GitBackendGoGit {
			cloner = GoGitCloner{}
		} else {
			cloner = ExecCloner{Runner: r}
		}
	}

	archives := opts.Archives
	if archives == nil {
		archives = HTTPArchiveFetcher{Client: http.DefaultClient}
	}

	return &Installer{
		cfg:      cfg,
		runner:   r,
		cloner:   cloner,
		archives: archives,
		report:   &Report{},
	}
}

// Report returns the outcomes recorded so far.
func (i *Installer) Report() *Report {
	return i.report
}

// Stages returns every stage in run order: package indexes, apt packages, pip tools,
// repositories and capabilities.
func (i *Installer) Stages() []func(context.Context) error {
	return []func(context.Context) error{
		i.UpdateIndexes,
		i.InstallPackages,
		i.InstallPipTools,
		i.InstallRepositories,
		i.AssignCapabilities,
	}
}

// Run executes stages in order, or every stage from Stages when none are given.
// Per-item failures are recorded in the report and never stop the run.
// The only error returned is a cancellation of ctx.
func (i *Installer) Run(ctx context.Context, stages ...func(context.Context) error) (*Report, error) {
	if len(stages) == 0 {
		stages = i.Stages()
	}
	for _, stage := range stages {
		if err := stage(ctx); err != nil {
			return i.report, err
		}
	}
	return i.report, nil
}

// cancelled reports whether err comes from the run context being stopped.
func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (i *Installer) check(ctx context.Context, name string, args ...string) error {
	logger.Debug("[DEBUG] Running command: %s %v\n", name, args)
	return runner.Check(ctx, i.runner, name, args...)
}
