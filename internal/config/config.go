// Package config loads the project's startup defaults: an embedded
// config.toml, optionally overridden field-by-field by a user config file
// at $XDG_CONFIG_HOME/imbolc/config.toml (or $HOME/.config/imbolc on
// platforms without XDG_CONFIG_HOME set). A missing or malformed user file
// is a warning, never a fatal error — the embedded defaults always load.
//
// Grounded on config.rs: same embed-then-merge shape, same
// field-is-present-if-non-nil merge semantics (Option<T> becomes a
// pointer), same key/scale name parsing.
package config

import (
	_ "embed"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/schollz/imbolc/internal/types"
)

//go:embed config.toml
var embeddedDefault []byte

type fileShape struct {
	Defaults defaultsShape `toml:"defaults"`
}

type defaultsShape struct {
	BPM           *uint16  `toml:"bpm"`
	Key           *string  `toml:"key"`
	Scale         *string  `toml:"scale"`
	TuningA4      *float32 `toml:"tuning_a4"`
	TimeSignature *[2]uint8 `toml:"time_signature"`
	Snap          *bool    `toml:"snap"`
	BusCount      *uint8   `toml:"bus_count"`
}

// Config holds the fully merged defaults.defaults table.
type Config struct {
	defaults defaultsShape
}

// Load parses the embedded config.toml, then merges a user override file
// on top if one exists and parses cleanly.
func Load() *Config {
	var base fileShape
	if err := toml.Unmarshal(embeddedDefault, &base); err != nil {
		panic("config: embedded config.toml failed to parse: " + err.Error())
	}

	if path, ok := userConfigPath(); ok {
		if contents, err := os.ReadFile(path); err == nil {
			var user fileShape
			if err := toml.Unmarshal(contents, &user); err != nil {
				log.Printf("config: ignoring malformed config %s: %v", path, err)
			} else {
				mergeDefaults(&base.Defaults, user.Defaults)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("config: could not read config %s: %v", path, err)
		}
	}

	return &Config{defaults: base.Defaults}
}

func userConfigPath() (string, bool) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "imbolc", "config.toml"), true
}

// mergeDefaults overwrites every base field the user file actually set,
// leaving fields the user omitted at the embedded value.
func mergeDefaults(base *defaultsShape, user defaultsShape) {
	if user.BPM != nil {
		base.BPM = user.BPM
	}
	if user.Key != nil {
		base.Key = user.Key
	}
	if user.Scale != nil {
		base.Scale = user.Scale
	}
	if user.TuningA4 != nil {
		base.TuningA4 = user.TuningA4
	}
	if user.TimeSignature != nil {
		base.TimeSignature = user.TimeSignature
	}
	if user.Snap != nil {
		base.Snap = user.Snap
	}
	if user.BusCount != nil {
		base.BusCount = user.BusCount
	}
}

// DefaultBusCount returns the configured default mixing-bus count for new
// projects.
func (c *Config) DefaultBusCount() uint8 {
	if c.defaults.BusCount != nil {
		return *c.defaults.BusCount
	}
	return types.DefaultBusCount
}

// Defaults returns the configured MusicalSettings, falling back field by
// field to types.NewMusicalSettings() for anything left unset.
func (c *Config) Defaults() types.MusicalSettings {
	fallback := types.NewMusicalSettings()
	out := fallback

	if c.defaults.BPM != nil {
		out.BPM = *c.defaults.BPM
	}
	if c.defaults.Key != nil {
		if k, ok := parseKey(*c.defaults.Key); ok {
			out.Key = k
		}
	}
	if c.defaults.Scale != nil {
		if s, ok := parseScale(*c.defaults.Scale); ok {
			out.Scale = s
		}
	}
	if c.defaults.TuningA4 != nil {
		out.TuningA4 = *c.defaults.TuningA4
	}
	if c.defaults.TimeSignature != nil {
		out.TimeSignature = *c.defaults.TimeSignature
	}
	if c.defaults.Snap != nil {
		out.Snap = *c.defaults.Snap
	}

	return out
}

func parseKey(s string) (types.Key, bool) {
	switch s {
	case "C":
		return types.KeyC, true
	case "C#", "Cs":
		return types.KeyCSharp, true
	case "D":
		return types.KeyD, true
	case "D#", "Ds":
		return types.KeyDSharp, true
	case "E":
		return types.KeyE, true
	case "F":
		return types.KeyF, true
	case "F#", "Fs":
		return types.KeyFSharp, true
	case "G":
		return types.KeyG, true
	case "G#", "Gs":
		return types.KeyGSharp, true
	case "A":
		return types.KeyA, true
	case "A#", "As":
		return types.KeyASharp, true
	case "B":
		return types.KeyB, true
	default:
		return 0, false
	}
}

func parseScale(s string) (types.Scale, bool) {
	switch s {
	case "Major":
		return types.ScaleMajor, true
	case "Minor":
		return types.ScaleMinor, true
	case "Dorian":
		return types.ScaleDorian, true
	case "Mixolydian":
		return types.ScaleMixolydian, true
	case "Pentatonic":
		return types.ScalePentatonic, true
	case "Blues":
		return types.ScaleBlues, true
	case "Chromatic":
		return types.ScaleChromatic, true
	default:
		return 0, false
	}
}
