package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sectools/internal/privilege"
)

// captureOutput redirects the colored logger into a buffer for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := color.Output, color.NoColor
	color.Output = &buf
	color.NoColor = true
	t.Cleanup(func() {
		color.Output = prevOut
		color.NoColor = prevNoColor
	})
	return &buf
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		output string
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "cancelled", err: context.Canceled, want: exitInterrupted, output: "Installation cancelled by user"},
		{name: "wrapped cancel", err: fmt.Errorf("install repos: %w", context.Canceled), want: exitInterrupted, output: "Installation cancelled by user"},
		{name: "not root", err: privilege.ErrNotRoot, want: exitFailure, output: privilege.Hint},
		{name: "other failure", err: errors.New("3 install step(s) failed"), want: exitFailure, output: "[ERROR] 3 install step(s) failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
			if tt.output == "" && out.Len() != 0 {
				t.Fatalf("expected no output, got %q", out.String())
			}
			if !strings.Contains(out.String(), tt.output) {
				t.Fatalf("expected %q in output, got %q", tt.output, out.String())
			}
		})
	}
}

func TestMainRecoversFromPanic(t *testing.T) {
	out := captureOutput(t)

	boom := &cobra.Command{
		Use: "boom",
		Run: func(cmd *cobra.Command, args []string) {
			panic("unexpected nil tool table")
		},
	}
	rootCmd.AddCommand(boom)
	rootCmd.SetArgs([]string{"boom"})
	t.Cleanup(func() {
		rootCmd.RemoveCommand(boom)
		rootCmd.SetArgs(nil)
	})

	if code := Main(); code != exitFailure {
		t.Fatalf("Main() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out.String(), "An unexpected error occurred: unexpected nil tool table") {
		t.Fatalf("expected panic report, got %q", out.String())
	}
}

func TestMainCancelledContextExits130(t *testing.T) {
	out := captureOutput(t)

	stop := &cobra.Command{
		Use: "stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("install apt: %w", context.Canceled)
		},
	}
	rootCmd.AddCommand(stop)
	rootCmd.SetArgs([]string{"stop"})
	t.Cleanup(func() {
		rootCmd.RemoveCommand(stop)
		rootCmd.SetArgs(nil)
	})

	if code := Main(); code != exitInterrupted {
		t.Fatalf("Main() = %d, want %d", code, exitInterrupted)
	}
	if !strings.Contains(out.String(), "Installation cancelled by user") {
		t.Fatalf("expected cancellation message, got %q", out.String())
	}
}
