package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sectools/internal/config"
	"sectools/internal/logger"
)

// InstallRepositories fetches, prepares and links every repository tool.
// A tool whose fetch fails is skipped; the next tool is still processed.
func (i *Installer) InstallRepositories(ctx context.Context) error {
	logger.Section("\n[*] Installing tools from source...\n")

	for _, repo := range i.cfg.Repositories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := i.installRepository(ctx, repo); err != nil {
			return err
		}
	}
	return nil
}

// installRepository runs fetch, dependencies and link for one tool.
// It only returns an error when the run is cancelled.
func (i *Installer) installRepository(ctx context.Context, repo config.Repository) error {
	logger.Step("\n  -> processing %s...\n", repo.Name)

	if err := i.fetch(ctx, repo); err != nil {
		if cancelled(err) {
			return err
		}
		logger.Error("[ERROR] Failed to fetch %s: %v\n", repo.Name, err)
		i.report.add(StageFetch, repo.Name, StatusFailed, err.Error())
		return nil
	}
	i.report.add(StageFetch, repo.Name, StatusOK, repo.InstallPath)

	if err := i.installRequirements(ctx, repo); err != nil {
		return err
	}

	if err := i.LinkEntry(repo); err != nil {
		return nil
	}

	logger.Info("[INFO] %s installed successfully\n", repo.Name)
	return nil
}

// fetch replaces the install directory with a fresh copy of the tool.
// An existing directory is removed first: a rerun never merges into an old checkout.
func (i *Installer) fetch(ctx context.Context, repo config.Repository) error {
	if i.cfg.Protected(repo.InstallPath) {
		return fmt.Errorf("%w: refusing to replace %s", config.ErrInvalidConfig, repo.InstallPath)
	}
	if err := removeExisting(repo.Name, repo.InstallPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(repo.InstallPath), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", repo.InstallPath, err)
	}

	switch repo.Source {
	case config.SourceArchive:
		logger.Step("  -> downloading %s...\n", repo.Name)
		return i.archives.Fetch(ctx, repo.URL, repo.InstallPath)
	default:
		logger.Step("  -> cloning %s...\n", repo.Name)
		return i.cloner.Clone(ctx, repo.Repo, repo.InstallPath)
	}
}

// removeExisting deletes a previous install directory, including one left half-cloned by an interrupted run.
func removeExisting(name, path string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("inspect %s: %w", path, err)
	}

	logger.Warn("[WARN] %s already exists at %s, reinstalling...\n", name, path)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove previous install %s: %w", path, err)
	}
	logger.Debug("[DEBUG] Removed %s\n", path)
	return nil
}
