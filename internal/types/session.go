package types

// Key is one of the twelve pitch classes, used for display and for any
// scale-aware tooling layered above the core.
type Key int

const (
	KeyC Key = iota
	KeyCSharp
	KeyD
	KeyDSharp
	KeyE
	KeyF
	KeyFSharp
	KeyG
	KeyGSharp
	KeyA
	KeyASharp
	KeyB
)

func (k Key) String() string {
	switch k {
	case KeyC:
		return "C"
	case KeyCSharp:
		return "C#"
	case KeyD:
		return "D"
	case KeyDSharp:
		return "D#"
	case KeyE:
		return "E"
	case KeyF:
		return "F"
	case KeyFSharp:
		return "F#"
	case KeyG:
		return "G"
	case KeyGSharp:
		return "G#"
	case KeyA:
		return "A"
	case KeyASharp:
		return "A#"
	case KeyB:
		return "B"
	default:
		return "?"
	}
}

type Scale int

const (
	ScaleMajor Scale = iota
	ScaleMinor
	ScaleDorian
	ScaleMixolydian
	ScalePentatonic
	ScaleBlues
	ScaleChromatic
)

func (s Scale) String() string {
	switch s {
	case ScaleMajor:
		return "Major"
	case ScaleMinor:
		return "Minor"
	case ScaleDorian:
		return "Dorian"
	case ScaleMixolydian:
		return "Mixolydian"
	case ScalePentatonic:
		return "Pentatonic"
	case ScaleBlues:
		return "Blues"
	case ScaleChromatic:
		return "Chromatic"
	default:
		return "?"
	}
}

// HumanizeSettings are the session-wide default humanize amounts that a
// track's Groove overrides fall back to.
type HumanizeSettings struct {
	Velocity float32
	Timing   float32
}

// ClickTrackState is the metronome's enablement/volume/mute state.
type ClickTrackState struct {
	Enabled bool
	Volume  float32
	Muted   bool
}

func NewClickTrackState() ClickTrackState {
	return ClickTrackState{Volume: 0.7}
}

// MixerSelection names which mixer section the UI has focused; carried in
// SessionState purely as UI-adjacent state the core never inspects.
type MixerSelectionKind int

const (
	MixerSelInstrument MixerSelectionKind = iota
	MixerSelLayerGroup
	MixerSelBus
	MixerSelMaster
)

type MixerSelection struct {
	Kind  MixerSelectionKind
	Index int
	Bus   BusID
}

// MusicalSettings is the subset of session fields cheap to clone for
// editing: key, scale, bpm, tuning, snap, time signature.
type MusicalSettings struct {
	Key           Key
	Scale         Scale
	BPM           uint16
	TuningA4      float32
	Snap          bool
	TimeSignature [2]uint8
}

func NewMusicalSettings() MusicalSettings {
	return MusicalSettings{Key: KeyC, Scale: ScaleMajor, BPM: 120, TuningA4: 440.0, TimeSignature: [2]uint8{4, 4}}
}

// SessionState is the project-level container: musical settings, humanize
// defaults, click track, mixer selection. The piano roll, automation
// lanes, and per-track state live alongside it in Snapshot rather than
// nested inside, since the Go core keeps the three sub-snapshots
// (instruments, piano roll, automation) as siblings consumed
// independently by the step engines (spec.md §4.1 step 2's entry kinds
// mirror this split).
type SessionState struct {
	MusicalSettings
	Humanize       HumanizeSettings
	ClickTrack     ClickTrackState
	MixerSelection MixerSelection
	BusCount       uint8
}

func NewSessionState() *SessionState {
	return &SessionState{
		MusicalSettings: NewMusicalSettings(),
		ClickTrack:      NewClickTrackState(),
		BusCount:        DefaultBusCount,
	}
}

// SetBPM sets BPM and the caller must also sync PianoRollSnapshot.BPM to
// preserve invariant 8 — done explicitly at each call site
// (automation's Global(Bpm) handler and the engine's SetBpm command)
// rather than import-cycling SessionState into PianoRollSnapshot.
func (s *SessionState) SetBPM(bpm uint16) {
	s.BPM = bpm
}
