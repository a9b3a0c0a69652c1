package main

import (
	"sectools/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// sectools provisions a Kali Linux host with a fixed set of security tools:
//   - refreshes apt package lists and installs a list of apt packages
//   - installs Python tools with pip
//   - clones tool repositories under a tools directory (/opt), installs their
//     requirements.txt and links each entry-point script into /usr/local/bin
//   - grants raw-socket capabilities to tcpdump and dumpcap
//
// Error handling strategy:
//   - Every failed item is logged and the run moves on to the next one
//   - Missing root privileges, invalid configuration and panics exit with status 1
//   - An interrupt (Ctrl-C) stops the run and exits with status 130
func main() {
	cmd.Execute()
}
