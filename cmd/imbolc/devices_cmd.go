package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schollz/imbolc/internal/devices"
)

func newDevicesCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devices",
		Short: "inspect audio devices and the persisted device selection",
	}
	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "enumerate audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			found := devices.EnumerateDevices()
			midiDevices := devices.MidiOutputDevices()
			if len(found) == 0 && len(midiDevices) == 0 {
				fmt.Println("no devices found")
				return nil
			}
			for _, d := range found {
				kind := "output"
				if d.InputChannels != nil {
					kind = "input"
				}
				fmt.Printf("%-8s %s\n", kind, d.Name)
			}
			for _, name := range midiDevices {
				fmt.Printf("%-8s %s\n", "midi", name)
			}
			return nil
		},
	})
	return root
}
