package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sectools/internal/installer"
)

// version is set via -ldflags at build time.
var version = "dev"

// listCmd prints the configured tool set. It needs no privileges.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools that install would set up",
	RunE: func(cmd *cobra.Command, args []string) error {
		installer.WriteToolTable(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sectools version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sectools %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}
