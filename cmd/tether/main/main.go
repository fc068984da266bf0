package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/tetherhq/tether/cmd/tether"
	"github.com/tetherhq/tether/pkg/logging"
)

func main() {
	rootCmd := tether.NewRootCmd()
	err := rootCmd.Execute()

	// Buffered log output is written to the log file at the end of the
	// run; at higher verbosity it already streamed.
	logging.Flush()

	if err != nil {
		fmt.Fprintln(os.Stderr, pterm.Error.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}
