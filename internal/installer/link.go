package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sectools/internal/config"
	"sectools/internal/logger"
)

// ErrEntryMissing is returned when a tool's entry-point script is absent after fetching.
var ErrEntryMissing = errors.New("installer: entry-point script not found")

// LinkEntry makes the tool's entry-point executable and links it into the bin directory
// as BinDir/<name>. A missing entry-point is recorded as skipped and no link is created.
func (i *Installer) LinkEntry(repo config.Repository) error {
	script := filepath.Join(repo.InstallPath, repo.Entry)
	link := filepath.Join(i.cfg.BinDir, repo.Name)

	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		logger.Warn("[WARN] Entry point %s not found for %s, no link created\n", repo.Entry, repo.Name)
		i.report.add(StageLink, repo.Name, StatusSkipped, "entry point missing")
		return fmt.Errorf("%w: %s", ErrEntryMissing, script)
	}

	if err := linkScript(script, link); err != nil {
		logger.Error("[ERROR] Failed to link %s: %v\n", repo.Name, err)
		i.report.add(StageLink, repo.Name, StatusFailed, err.Error())
		return err
	}

	logger.Info("[INFO] Created link: %s -> %s\n", link, script)
	i.report.add(StageLink, repo.Name, StatusOK, link)
	return nil
}

// linkScript sets mode 0755 on script and points link at it, replacing any previous link or file.
func linkScript(script, link string) error {
	if err := os.Chmod(script, 0o755); err != nil {
		return fmt.Errorf("chmod %s: %w", script, err)
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(link), err)
	}

	// Lstat so a dangling link from a removed install is replaced too.
	if _, err := os.Lstat(link); err == nil {
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("remove old link %s: %w", link, err)
		}
	}

	if err := os.Symlink(script, link); err != nil {
		return fmt.Errorf("symlink %s: %w", link, err)
	}
	return nil
}
