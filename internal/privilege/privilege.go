// Package privilege guards commands that modify system directories.
package privilege

import (
	"errors"
	"os"
)

// ErrNotRoot is returned when the process does not run with an effective uid of 0.
var ErrNotRoot = errors.New("this program must be run as root")

// Hint is printed after ErrNotRoot to tell the operator how to re-run.
const Hint = "use: sudo sectools install"

// RequireRoot returns ErrNotRoot unless euid is 0.
func RequireRoot(euid int) error {
	if euid != 0 {
		return ErrNotRoot
	}
	return nil
}

// RequireCurrentRoot checks the effective uid of the running process.
func RequireCurrentRoot() error {
	return RequireRoot(os.Geteuid())
}
