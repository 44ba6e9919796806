package devices

import (
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MidiOutputDevices lists the names of available MIDI output ports, as
// printed by the `devices list` subcommand.
//
// Grounded on the teacher's internal/midiconnector.Devices().
func MidiOutputDevices() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}
