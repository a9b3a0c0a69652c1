package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sectools/internal/config"
	"sectools/internal/logger"
	"sectools/internal/privilege"
)

// Exit codes returned by Main.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// annotationRequiresRoot marks commands that must pass the privilege check before doing anything.
const annotationRequiresRoot = "sectools/requires-root"

var (
	// debug flag indicates whether debug logging should be enabled.
	debug bool
	// configPath optionally overrides the built-in install tables.
	configPath string
	// logFilePath receives a JSON copy of every log line when set.
	logFilePath string

	// cfg is loaded once in PersistentPreRunE and read by every subcommand.
	cfg config.Config
)

// rootCmd is the base command for the CLI tool `sectools`.
var rootCmd = &cobra.Command{
	Use:           "sectools",
	Short:         "Install a fixed set of security tools on Kali Linux",
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE runs before any subcommand: logger first, then the
	// privilege check for installing commands, then the configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(debug, logFilePath); err != nil {
			return err
		}
		if cmd.Annotations[annotationRequiresRoot] == "true" {
			if err := privilege.RequireCurrentRoot(); err != nil {
				return err
			}
		}

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("[DEBUG] Loaded %d apt packages, %d pip tools, %d repositories\n",
			len(cfg.AptPackages), len(cfg.PipTools), len(cfg.Repositories))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or TOML file overriding the built-in tool tables")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "Append a JSON log of the run to this file")
}

// Main runs the CLI and returns the process exit code.
// Interrupts cancel the run context; a panic anywhere is reported and exits 1.
func Main() (code int) {
	defer logger.Close()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("\n[ERROR] An unexpected error occurred: %v\n", r)
			code = exitFailure
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(rootCmd.ExecuteContext(ctx))
}

// Execute runs the CLI and exits the process with the resulting status.
func Execute() {
	os.Exit(Main())
}

// exitCode reports err to the console and maps it to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		logger.Warn("\n\n[WARN] Installation cancelled by user\n")
		return exitInterrupted
	case errors.Is(err, privilege.ErrNotRoot):
		logger.Error("[ERROR] %v!\n", err)
		logger.Warn("%s\n", privilege.Hint)
		return exitFailure
	default:
		logger.Error("[ERROR] %v\n", err)
		return exitFailure
	}
}
