// Package devices enumerates system audio devices for scsynth's -H flag,
// persists the user's buffer-size/device selection, and blacklists the
// iOS continuity devices known to crash scsynth during initialization.
//
// Grounded on devices.rs: same BufferSize enum and latency_ms formula,
// same iphone/ipad substring blacklist, same
// ~/.config/imbolc/audio_devices.json persistence shape (JSON here via
// jsoniter rather than serde_json, matching the teacher's JSON library).
// Device enumeration itself is re-grounded on the teacher's
// runtime.GOOS-branching style in findSclangPath: the Rust source shells
// out to macOS's system_profiler, which has no Linux equivalent, so this
// port instead shells out to ALSA's arecord/aplay -l (ALSA being what
// scsynth's -H flag expects on Linux) and leaves non-Linux platforms with
// an empty device list, same as the teacher leaves non-matching GOOS
// branches with no candidate paths.
package devices

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// BufferSize is one of scsynth's supported hardware buffer block sizes.
type BufferSize int

const (
	B64 BufferSize = 64
	B128 BufferSize = 128
	B256 BufferSize = 256
	B512 BufferSize = 512
	B1024 BufferSize = 1024
	B2048 BufferSize = 2048
)

// AllBufferSizes lists every selectable buffer size, in ascending order.
var AllBufferSizes = [6]BufferSize{B64, B128, B256, B512, B1024, B2048}

// AsSamples returns the buffer size in sample frames.
func (b BufferSize) AsSamples() uint32 {
	return uint32(b)
}

// LatencyMs computes the buffer's latency in milliseconds at sampleRate.
func (b BufferSize) LatencyMs(sampleRate uint32) float32 {
	return (float32(b.AsSamples()) / float32(sampleRate)) * 1000.0
}

func bufferSizeFromSamples(n uint64) (BufferSize, bool) {
	switch n {
	case 64:
		return B64, true
	case 128:
		return B128, true
	case 256:
		return B256, true
	case 512:
		return B512, true
	case 1024:
		return B1024, true
	case 2048:
		return B2048, true
	default:
		return 0, false
	}
}

// AudioDevice is one device discovered on the system.
type AudioDevice struct {
	Name            string
	InputChannels   *uint32
	OutputChannels  *uint32
	SampleRate      *uint32
	IsDefaultInput  bool
	IsDefaultOutput bool
}

// AudioDeviceConfig is the user's persisted device/buffer-size selection.
type AudioDeviceConfig struct {
	InputDevice  *string    `json:"input_device"`
	OutputDevice *string    `json:"output_device"`
	BufferSize   BufferSize `json:"buffer_size"`
	SampleRate   uint32     `json:"sample_rate"`
}

// NewAudioDeviceConfig returns the system-default configuration: no
// explicit device names, 512-frame buffer, 44.1kHz.
func NewAudioDeviceConfig() AudioDeviceConfig {
	return AudioDeviceConfig{BufferSize: B512, SampleRate: 44100}
}

// EnumerateDevices lists ALSA playback/capture devices on Linux via
// `arecord -l`/`aplay -l`; other platforms return an empty list, since no
// equivalent enumeration path was retrieved for them.
func EnumerateDevices() []AudioDevice {
	if runtime.GOOS != "linux" {
		return nil
	}

	var devices []AudioDevice
	devices = append(devices, parseAlsaList("aplay", "-l", false)...)
	devices = append(devices, parseAlsaList("arecord", "-l", true)...)

	filtered := devices[:0]
	for _, d := range devices {
		if !isBlacklistedDevice(d.Name) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

var alsaCardLine = regexp.MustCompile(`^card \d+:.*\[(.+?)\],\s*device \d+:\s*(.+?)\s*\[`)

// parseAlsaList shells out to an ALSA listing tool and parses its
// "card N: ... [Name], device M: ..." lines into AudioDevice entries.
func parseAlsaList(tool string, arg string, isInput bool) []AudioDevice {
	cmd := exec.Command(tool, arg)
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	var devices []AudioDevice
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		m := alsaCardLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1]) + " " + strings.TrimSpace(m[2])
		d := AudioDevice{Name: name}
		if isInput {
			one := uint32(1)
			d.InputChannels = &one
		} else {
			one := uint32(1)
			d.OutputChannels = &one
		}
		devices = append(devices, d)
	}
	return devices
}

// isBlacklistedDevice reports whether name matches a device known to
// crash scsynth during audio initialization — iOS continuity devices
// exposing incompatible stream formats.
func isBlacklistedDevice(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad")
}

// DefaultDeviceNames resolves the system's default output/input device
// names, if any were discovered as such.
func DefaultDeviceNames() (output *string, input *string) {
	for _, d := range EnumerateDevices() {
		if d.IsDefaultOutput && output == nil {
			name := d.Name
			output = &name
		}
		if d.IsDefaultInput && input == nil {
			name := d.Name
			input = &name
		}
	}
	return output, input
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "audio_devices.json"
	}
	return filepath.Join(home, ".config", "imbolc", "audio_devices.json")
}

// LoadDeviceConfig reads the persisted device config, falling back to
// NewAudioDeviceConfig() if the file is absent or unparseable.
func LoadDeviceConfig() AudioDeviceConfig {
	path := configPath()
	contents, err := os.ReadFile(path)
	if err != nil {
		return NewAudioDeviceConfig()
	}

	var raw struct {
		InputDevice  *string `json:"input_device"`
		OutputDevice *string `json:"output_device"`
		BufferSize   uint64  `json:"buffer_size"`
		SampleRate   uint32  `json:"sample_rate"`
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(contents, &raw); err != nil {
		return NewAudioDeviceConfig()
	}

	cfg := NewAudioDeviceConfig()
	cfg.InputDevice = raw.InputDevice
	cfg.OutputDevice = raw.OutputDevice
	if bs, ok := bufferSizeFromSamples(raw.BufferSize); ok {
		cfg.BufferSize = bs
	}
	if raw.SampleRate != 0 {
		cfg.SampleRate = raw.SampleRate
	}
	return cfg
}

// SaveDeviceConfig persists cfg to ~/.config/imbolc/audio_devices.json,
// creating the parent directory if needed. Write failures are silent,
// matching the original's best-effort save.
func SaveDeviceConfig(cfg AudioDeviceConfig) {
	path := configPath()
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	out := struct {
		InputDevice  *string `json:"input_device"`
		OutputDevice *string `json:"output_device"`
		BufferSize   uint32  `json:"buffer_size"`
		SampleRate   uint32  `json:"sample_rate"`
	}{cfg.InputDevice, cfg.OutputDevice, cfg.BufferSize.AsSamples(), cfg.SampleRate}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(out, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}
