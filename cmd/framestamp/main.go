// Command framestamp is the entrypoint for the framestamp batch overlay CLI.
// It wires cobra subcommands to the config, check, and pipeline packages.
package main

import (
	"errors"
	"fmt"
	"os"
)

// version and commit are set at build time via -ldflags (e.g. Makefile).
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

// exitError carries a process exit code out of a RunE. The command has
// already logged the reason, so main prints nothing more.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	if err := newRootCmd(os.Args[1:]).Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "framestamp: %v\n", err)
		os.Exit(1)
	}
}
