package installer

import (
	"context"
	"os"

	"sectools/internal/logger"
)

// AssignCapabilities grants raw-socket capabilities to the configured packet-capture
// binaries so they can run without full root. Binaries that are not installed are skipped.
func (i *Installer) AssignCapabilities(ctx context.Context) error {
	logger.Section("\n[*] Final setup...\n")

	caps := i.cfg.Capabilities
	for _, bin := range caps.Binaries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := os.Stat(bin); err != nil {
			logger.Warn("[WARN] %s not found, skipping capabilities\n", bin)
			i.report.add(StageCaps, bin, StatusSkipped, "not installed")
			continue
		}

		logger.Step("  -> granting %s to %s...\n", caps.Set, bin)
		err := i.check(ctx, "setcap", caps.Set, bin)
		if err != nil {
			if cancelled(err) {
				return err
			}
			logger.Warn("[WARN] setcap failed for %s: %v\n", bin, err)
			i.report.add(StageCaps, bin, StatusFailed, err.Error())
			continue
		}
		i.report.add(StageCaps, bin, StatusOK, caps.Set)
	}

	logger.Info("[INFO] Final setup done\n")
	return nil
}
