package types

// SourceKind tags which engine produces sound for a Track.
type SourceKind int

const (
	SourceOscillator SourceKind = iota
	SourceSampler
	SourceDrumKit
	SourceAudioInput
	SourceBusInput
	SourcePluginHost
)

func (k SourceKind) String() string {
	switch k {
	case SourceOscillator:
		return "oscillator"
	case SourceSampler:
		return "sampler"
	case SourceDrumKit:
		return "drum-kit"
	case SourceAudioInput:
		return "audio-input"
	case SourceBusInput:
		return "bus-input"
	case SourcePluginHost:
		return "plugin-host"
	default:
		return "unknown"
	}
}

// OutputTarget is either the master bus or a numbered bus.
type OutputTarget struct {
	Master bool
	Bus    BusID
}

// Send routes a fixed-level tap of a track's output to a bus.
type Send struct {
	Bus   BusID
	Level float32
}

// MixerStrip is the shared level/pan/mute/solo/send shape used by tracks,
// buses, and layer groups alike.
type MixerStrip struct {
	Level float32
	Pan   float32
	Mute  bool
	Solo  bool
	Sends []Send
}

func NewMixerStrip() MixerStrip {
	return MixerStrip{Level: 1.0, Pan: 0.0}
}

// FilterKind is a closed tagged union of supported filter types; new kinds
// are added here, never via open extension.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterLowPass
	FilterHighPass
	FilterBandPass
	FilterComb
)

// EffectKind is a closed tagged union of supported insert-effect types.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectReverb
	EffectDelay
	EffectDistortion
	EffectChorus
)

// EffectSlot is one ordered entry in a track or bus's effect chain.
type EffectSlot struct {
	ID      EffectID
	Kind    EffectKind
	Mix     float32
	Params  map[string]float32
}

// ProcessingChain bundles a track's filter, optional EQ, and ordered
// effect slots.
type ProcessingChain struct {
	Filter   FilterKind
	EQBands  []EQBand
	Effects  []EffectSlot
}

type EQKind int

const (
	EQBell EQKind = iota
	EQLowShelf
	EQHighShelf
)

type EQBand struct {
	Kind      EQKind
	FreqHz    float32
	GainDB    float32
	Q         float32
}

// LFOTarget names the parameter an LFO modulates; closed union.
type LFOTarget int

const (
	LFOTargetNone LFOTarget = iota
	LFOTargetPitch
	LFOTargetAmp
	LFOTargetFilterCutoff
	LFOTargetPan
)

type LFO struct {
	Enabled bool
	Target  LFOTarget
	RateHz  float32
	Depth   float32
}

// AmpEnvelope mirrors the teacher's attack/decay/sustain/release mapping
// style (types.AttackToSeconds et al.) but operates on float seconds
// directly rather than a hex-byte wire encoding, since the new Track model
// has no tracker column representation to map from.
type AmpEnvelope struct {
	AttackSeconds  float32
	DecaySeconds   float32
	SustainLevel   float32
	ReleaseSeconds float32
}

func DefaultAmpEnvelope() AmpEnvelope {
	return AmpEnvelope{AttackSeconds: 0.01, DecaySeconds: 0.1, SustainLevel: 0.8, ReleaseSeconds: 0.3}
}

type ModulationBlock struct {
	LFO LFO
	Amp AmpEnvelope
}

// ChordShape is an optional fixed chord voicing applied to a track's note
// input; nil means no chord shaping.
type ChordShape struct {
	IntervalsSemitones []int
}

type NoteInputBlock struct {
	Arpeggiator ArpConfig
	Chord       *ChordShape
}

// Groove holds per-track overrides for swing, humanize, and timing offset.
// Each field (other than TimingOffsetMs, which has no global fallback) is
// a pointer so nil means "fall back to the session global".
type Groove struct {
	SwingAmount      *float32
	SwingGrid        *SwingGrid
	HumanizeVelocity *float32
	HumanizeTiming   *float32
	TimingOffsetMs   float32
}

type SwingGrid int

const (
	SwingGridEighths SwingGrid = iota
	SwingGridSixteenths
	SwingGridBoth
)

// SamplerConfig is the source-specific sub-state for SourceSampler tracks.
type SamplerConfig struct {
	BufferID BufferID
	Path     string
}

// Track is one instrument in the project: identity, source, processing
// chain, mixer strip, modulation, note input, groove, and optional
// source-specific sub-state (sampler config XOR drum sequencer).
type Track struct {
	ID         TrackID
	Name       string
	Source     SourceKind
	Chain      ProcessingChain
	Mixer      MixerStrip
	Output     OutputTarget
	Modulation ModulationBlock
	NoteInput  NoteInputBlock
	Groove     Groove
	Active     bool

	GroupID *GroupID // nil if not a member of any layer group

	Sampler *SamplerConfig
	Drum    *DrumSequencer
}

// NewTrack returns a Track with idiomatic defaults: active, unmuted,
// unity gain, centered pan, no arp, no groove overrides.
func NewTrack(id TrackID, source SourceKind) *Track {
	return &Track{
		ID:     id,
		Source: source,
		Mixer:  NewMixerStrip(),
		Output: OutputTarget{Master: true},
		Modulation: ModulationBlock{
			Amp: DefaultAmpEnvelope(),
		},
		Active: true,
	}
}

// OffsetPitch returns pitch unchanged; neither the track's Chord shape nor
// its layer-group membership alters the pitch here.
func (t *Track) OffsetPitch(pitch uint8) uint8 {
	return pitch
}

// Bus is a mix bus: up to 8 by default, feeding the master.
type Bus struct {
	ID     BusID
	Mixer  MixerStrip
	Chain  ProcessingChain
}

const (
	DefaultBusCount = 8
	MaxBuses        = 8
)

// LayerGroup is a cross-track fan-out set identified by GroupID. Per
// DESIGN NOTES, membership is modeled by set-membership (TrackIDs here,
// Track.GroupID back on the member) rather than back-pointers; siblings
// are resolved by lookup at use sites.
type LayerGroup struct {
	ID       GroupID
	TrackIDs []TrackID
	Mixer    MixerStrip
	EQBands  []EQBand
}
