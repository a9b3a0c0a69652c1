package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"sectools/internal/config"
	"sectools/internal/logger"
)

// requirementsFile is the dependency manifest looked up at the root of each repository.
const requirementsFile = "requirements.txt"

// InstallPipTools upgrades pip and installs every configured pip tool.
// A failed tool is only a warning: its repository copy, when configured, still gets installed.
func (i *Installer) InstallPipTools(ctx context.Context) error {
	logger.Section("\n[*] Installing Python tools...\n")

	if len(i.cfg.PipTools) == 0 {
		logger.Debug("[DEBUG] No pip tools configured\n")
		return nil
	}

	// Best effort: an old pip still installs most packages.
	if err := i.check(ctx, "pip3", "install", "--upgrade", "pip"); err != nil {
		if cancelled(err) {
			return err
		}
		logger.Debug("[DEBUG] pip upgrade failed: %v\n", err)
	}

	for _, tool := range i.cfg.PipTools {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Step("  -> installing %s from pip...\n", tool)
		err := i.check(ctx, "pip3", "install", tool)
		if err != nil {
			if cancelled(err) {
				return err
			}
			logger.Warn("[WARN] Failed to install %s from pip, the repository install will be used instead\n", tool)
			logger.Debug("[DEBUG] pip install %s: %v\n", tool, err)
			i.report.add(StagePip, tool, StatusFailed, err.Error())
			continue
		}

		logger.Info("[INFO] Installed %s\n", tool)
		i.report.add(StagePip, tool, StatusOK, "")
	}
	return nil
}

// installRequirements installs the repository's requirements.txt when present.
// A repository without one has no Python dependencies; that is recorded as skipped.
func (i *Installer) installRequirements(ctx context.Context, repo config.Repository) error {
	manifest := filepath.Join(repo.InstallPath, requirementsFile)

	if _, err := os.Stat(manifest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("[DEBUG] %s has no %s\n", repo.Name, requirementsFile)
			i.report.add(StageDeps, repo.Name, StatusSkipped, "no "+requirementsFile)
			return nil
		}
		logger.Warn("[WARN] Cannot read %s: %v\n", manifest, err)
		i.report.add(StageDeps, repo.Name, StatusFailed, err.Error())
		return nil
	}

	logger.Step("  -> installing %s dependencies...\n", repo.Name)
	err := i.check(ctx, "pip3", "install", "-r", manifest)
	if err != nil {
		if cancelled(err) {
			return err
		}
		logger.Warn("[WARN] Some dependencies of %s failed to install\n", repo.Name)
		logger.Debug("[DEBUG] pip install -r %s: %v\n", manifest, err)
		i.report.add(StageDeps, repo.Name, StatusFailed, err.Error())
		return nil
	}

	logger.Info("[INFO] Dependencies installed\n")
	i.report.add(StageDeps, repo.Name, StatusOK, "")
	return nil
}
