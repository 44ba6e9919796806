package devices

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferSizeLatencyMs(t *testing.T) {
	assert.InDelta(t, 11.6099, float64(B512.LatencyMs(44100)), 0.001)
	assert.InDelta(t, 1.4512, float64(B64.LatencyMs(44100)), 0.001)
}

func TestDefaultAudioDeviceConfig(t *testing.T) {
	cfg := NewAudioDeviceConfig()
	assert.Equal(t, B512, cfg.BufferSize)
	assert.Equal(t, uint32(44100), cfg.SampleRate)
	assert.Nil(t, cfg.InputDevice)
	assert.Nil(t, cfg.OutputDevice)
}

func TestIsBlacklistedDevice(t *testing.T) {
	assert.True(t, isBlacklistedDevice("iPhone Microphone"))
	assert.True(t, isBlacklistedDevice("Someone's iPad"))
	assert.False(t, isBlacklistedDevice("Built-in Audio"))
}

func TestLoadDeviceConfigMissingFileReturnsDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := LoadDeviceConfig()
	assert.Equal(t, NewAudioDeviceConfig(), cfg)
}

func TestSaveThenLoadDeviceConfigRoundTrips(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	name := "Built-in Audio"
	cfg := AudioDeviceConfig{OutputDevice: &name, BufferSize: B1024, SampleRate: 48000}
	SaveDeviceConfig(cfg)

	path := filepath.Join(home, ".config", "imbolc", "audio_devices.json")
	_, err := os.Stat(path)
	assert.NoError(t, err)

	loaded := LoadDeviceConfig()
	assert.Equal(t, B1024, loaded.BufferSize)
	assert.Equal(t, uint32(48000), loaded.SampleRate)
	assert.NotNil(t, loaded.OutputDevice)
	assert.Equal(t, "Built-in Audio", *loaded.OutputDevice)
}

func TestBufferSizeFromSamplesUnknownFallsBackToDefault(t *testing.T) {
	_, ok := bufferSizeFromSamples(777)
	assert.False(t, ok)
}

func TestMidiOutputDevicesDoesNotPanicWithoutHardware(t *testing.T) {
	assert.NotPanics(t, func() {
		MidiOutputDevices()
	})
}
