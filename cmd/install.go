package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sectools/internal/installer"
	"sectools/internal/logger"
)

// strict turns per-item failures into a non-zero exit status.
var strict bool

// stageFunc picks the stages of an Installer a command runs.
type stageFunc func(inst *installer.Installer) []func(context.Context) error

// installCmd runs every stage: package lists, apt, pip, source tools and capabilities.
var installCmd = &cobra.Command{
	Use:         "install",
	Short:       "Install all configured tools",
	Annotations: map[string]string{annotationRequiresRoot: "true"},
	RunE: runStages(func(inst *installer.Installer) []func(context.Context) error {
		return inst.Stages()
	}),
}

// installAptCmd refreshes package lists and installs only the apt packages.
var installAptCmd = &cobra.Command{
	Use:         "apt",
	Short:       "Install only the apt packages",
	Annotations: map[string]string{annotationRequiresRoot: "true"},
	RunE: runStages(func(inst *installer.Installer) []func(context.Context) error {
		return []func(context.Context) error{inst.UpdateIndexes, inst.InstallPackages}
	}),
}

// installPipCmd installs only the pip tools.
var installPipCmd = &cobra.Command{
	Use:         "pip",
	Short:       "Install only the pip tools",
	Annotations: map[string]string{annotationRequiresRoot: "true"},
	RunE: runStages(func(inst *installer.Installer) []func(context.Context) error {
		return []func(context.Context) error{inst.InstallPipTools}
	}),
}

// installReposCmd fetches and links only the source tools.
var installReposCmd = &cobra.Command{
	Use:         "repos",
	Short:       "Install only the tools fetched from source",
	Annotations: map[string]string{annotationRequiresRoot: "true"},
	RunE: runStages(func(inst *installer.Installer) []func(context.Context) error {
		return []func(context.Context) error{inst.InstallRepositories}
	}),
}

// installCapsCmd only assigns packet-capture capabilities.
var installCapsCmd = &cobra.Command{
	Use:         "caps",
	Short:       "Only grant raw-socket capabilities to capture binaries",
	Annotations: map[string]string{annotationRequiresRoot: "true"},
	RunE: runStages(func(inst *installer.Installer) []func(context.Context) error {
		return []func(context.Context) error{inst.AssignCapabilities}
	}),
}

// runStages builds the RunE of an install command: banner, stages, summary.
func runStages(pick stageFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rule := strings.Repeat("=", 60)
		logger.Section("%s\n  Kali Security Tools Auto-Installer\n%s\n", rule, rule)

		logger.Debug("[DEBUG] Configured tools: %s\n", strings.Join(cfg.ToolNames(), ", "))

		inst := installer.New(cfg, installer.Options{})
		report, err := inst.Run(cmd.Context(), pick(inst)...)
		if err != nil {
			return err
		}

		installer.WriteSummary(cmd.OutOrStdout(), cfg, report)

		if failed := report.Failed(); strict && len(failed) > 0 {
			return fmt.Errorf("%d install step(s) failed", len(failed))
		}
		return nil
	}
}

func init() {
	installCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit with status 1 when any item fails")

	installCmd.AddCommand(installAptCmd)
	installCmd.AddCommand(installPipCmd)
	installCmd.AddCommand(installReposCmd)
	installCmd.AddCommand(installCapsCmd)
	rootCmd.AddCommand(installCmd)
}
