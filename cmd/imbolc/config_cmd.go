package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schollz/imbolc/internal/config"
)

func newConfigCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "inspect the merged effective configuration",
	}
	root.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "print the merged effective defaults",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			defaults := cfg.Defaults()
			fmt.Printf("bpm = %d\n", defaults.BPM)
			fmt.Printf("key = %s\n", defaults.Key)
			fmt.Printf("scale = %s\n", defaults.Scale)
			fmt.Printf("tuning_a4 = %.2f\n", defaults.TuningA4)
			fmt.Printf("time_signature = [%d, %d]\n", defaults.TimeSignature[0], defaults.TimeSignature[1])
			fmt.Printf("snap = %t\n", defaults.Snap)
			fmt.Printf("bus_count = %d\n", cfg.DefaultBusCount())
		},
	})
	return root
}
