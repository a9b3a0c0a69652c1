package installer

import (
	"context"

	"sectools/internal/logger"
)

// UpdateIndexes refreshes the apt package lists.
// A failure is reported as a warning and the run continues with the current lists.
func (i *Installer) UpdateIndexes(ctx context.Context) error {
	logger.Section("\n[*] Updating package lists...\n")

	err := i.check(ctx, "apt-get", "update")
	switch {
	case err == nil:
		logger.Info("[INFO] Package lists updated\n")
		i.report.add(StageIndexes, "apt-get update", StatusOK, "")
	case cancelled(err):
		return err
	default:
		logger.Error("[ERROR] Failed to update package lists: %v\n", err)
		logger.Warn("[WARN] Continuing with the existing package lists\n")
		i.report.add(StageIndexes, "apt-get update", StatusFailed, err.Error())
	}
	return nil
}

// InstallPackages installs every configured apt package one at a time.
// A failed package is recorded and the next one is still attempted.
func (i *Installer) InstallPackages(ctx context.Context) error {
	logger.Section("\n[*] Installing apt packages...\n")

	for _, pkg := range i.cfg.AptPackages {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Step("  -> installing %s...\n", pkg)
		err := i.check(ctx, "apt-get", "install", "-y", pkg)
		if err != nil {
			if cancelled(err) {
				return err
			}
			logger.Warn("[WARN] Failed to install %s: %v\n", pkg, err)
			i.report.add(StageApt, pkg, StatusFailed, err.Error())
			continue
		}

		logger.Info("[INFO] Installed %s\n", pkg)
		i.report.add(StageApt, pkg, StatusOK, "")
	}
	return nil
}
