// Command imbolc is the CLI entry point wrapping the scheduler, device
// enumeration, and configuration loading as independent subcommands.
//
// Grounded on the teacher's main.go for signal-based cleanup and the
// pattern of running a bubbletea program against a
// background engine; cobra is wired here since the teacher declared it
// as a dependency but never used it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "imbolc",
		Short: "multi-track audio-thread scheduler runtime",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMonitorCmd())
	root.AddCommand(newDevicesCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
