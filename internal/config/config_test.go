package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestLoadEmbeddedConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := Load()
	defaults := cfg.Defaults()

	assert.Equal(t, uint16(120), defaults.BPM)
	assert.Equal(t, types.KeyC, defaults.Key)
	assert.Equal(t, types.ScaleMajor, defaults.Scale)
	assert.InDelta(t, 440.0, defaults.TuningA4, 1e-6)
	assert.Equal(t, [2]uint8{4, 4}, defaults.TimeSignature)
	assert.False(t, defaults.Snap)
	assert.Equal(t, uint8(8), cfg.DefaultBusCount())
}

func TestUserConfigOverridesOnlySetFields(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "imbolc")
	assert.NoError(t, os.MkdirAll(dir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[defaults]
bpm = 140
key = "D#"
`), 0o644))

	cfg := Load()
	defaults := cfg.Defaults()

	assert.Equal(t, uint16(140), defaults.BPM)
	assert.Equal(t, types.KeyDSharp, defaults.Key)
	// fields the user file omitted stay at the embedded default.
	assert.Equal(t, types.ScaleMajor, defaults.Scale)
	assert.InDelta(t, 440.0, defaults.TuningA4, 1e-6)
}

func TestMalformedUserConfigFallsBackToEmbedded(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "imbolc")
	assert.NoError(t, os.MkdirAll(dir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not valid toml [["), 0o644))

	cfg := Load()
	defaults := cfg.Defaults()
	assert.Equal(t, uint16(120), defaults.BPM)
}

func TestParseKeys(t *testing.T) {
	k, ok := parseKey("C")
	assert.True(t, ok)
	assert.Equal(t, types.KeyC, k)

	k, ok = parseKey("C#")
	assert.True(t, ok)
	assert.Equal(t, types.KeyCSharp, k)

	k, ok = parseKey("Fs")
	assert.True(t, ok)
	assert.Equal(t, types.KeyFSharp, k)

	_, ok = parseKey("X")
	assert.False(t, ok)
}

func TestParseScales(t *testing.T) {
	s, ok := parseScale("Major")
	assert.True(t, ok)
	assert.Equal(t, types.ScaleMajor, s)

	s, ok = parseScale("Blues")
	assert.True(t, ok)
	assert.Equal(t, types.ScaleBlues, s)

	_, ok = parseScale("Nope")
	assert.False(t, ok)
}
