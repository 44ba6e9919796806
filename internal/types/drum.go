package types

const (
	NumPads      = 12
	DefaultSteps = 16
	NumPatterns  = 4
)

// StepResolution is the grid subdivision for a drum sequencer or
// arpeggiator: how many steps fit in one beat.
type StepResolution int

const (
	ResQuarter StepResolution = iota
	ResEighth
	ResSixteenth // default
	ResThirtySecond
)

func (r StepResolution) StepsPerBeat() float64 {
	switch r {
	case ResQuarter:
		return 1.0
	case ResEighth:
		return 2.0
	case ResSixteenth:
		return 4.0
	case ResThirtySecond:
		return 8.0
	default:
		return 4.0
	}
}

func (r StepResolution) Label() string {
	switch r {
	case ResQuarter:
		return "1/4"
	case ResEighth:
		return "1/8"
	case ResSixteenth:
		return "1/16"
	case ResThirtySecond:
		return "1/32"
	default:
		return "?"
	}
}

// DrumStep is one cell in a drum pattern.
type DrumStep struct {
	Active      bool
	Velocity    uint8 // 1-127, default 100
	Probability float32 // 0.0-1.0, default 1.0
	PitchOffset int8  // semitone offset, default 0
}

func NewDrumStep() DrumStep {
	return DrumStep{Velocity: 100, Probability: 1.0}
}

// DrumPad is a slot mapping to either a sample buffer or an instrument
// trigger target; exactly one of BufferID/InstrumentID is meaningful,
// distinguished by IsInstrumentTrigger.
type DrumPad struct {
	BufferID     *BufferID
	InstrumentID *TrackID
	TriggerFreq  float32 // base frequency for instrument triggers, default 440

	Name       string
	Level      float32 // 0.0-1.0, default 0.8
	SliceStart float32 // 0.0-1.0, default 0.0
	SliceEnd   float32 // 0.0-1.0, default 1.0
	Reverse    bool
	Pitch      int8 // semitone offset, -24..24
}

func NewDrumPad() DrumPad {
	return DrumPad{TriggerFreq: 440.0, Level: 0.8, SliceEnd: 1.0}
}

func (p DrumPad) IsInstrumentTrigger() bool {
	return p.InstrumentID != nil
}

// DrumPattern is a pads x steps matrix of step cells.
type DrumPattern struct {
	Steps  [][]DrumStep // [NumPads][Length]
	Length int
}

func NewDrumPattern(length int) DrumPattern {
	steps := make([][]DrumStep, NumPads)
	for i := range steps {
		row := make([]DrumStep, length)
		for j := range row {
			row[j] = NewDrumStep()
		}
		steps[i] = row
	}
	return DrumPattern{Steps: steps, Length: length}
}

// DrumSequencer is the source-specific sub-state for SourceDrumKit tracks:
// up to 12 pads, up to 4 patterns, a current pattern index, step
// resolution, swing, and an optional chain.
type DrumSequencer struct {
	Pads           []DrumPad
	Patterns       []DrumPattern
	CurrentPattern int

	Playing         bool
	CurrentStep     int
	StepAccumulator float64
	LastPlayedStep  *int // nil = never fired; mirrors Rust Option<usize>

	SwingAmount    float32
	Chain          []int
	ChainEnabled   bool
	ChainPosition  int
	StepResolution StepResolution
}

func NewDrumSequencer() *DrumSequencer {
	pads := make([]DrumPad, NumPads)
	for i := range pads {
		pads[i] = NewDrumPad()
	}
	patterns := make([]DrumPattern, NumPatterns)
	for i := range patterns {
		patterns[i] = NewDrumPattern(DefaultSteps)
	}
	return &DrumSequencer{
		Pads:           pads,
		Patterns:       patterns,
		StepResolution: ResSixteenth,
	}
}

func (d *DrumSequencer) Pattern() *DrumPattern {
	return &d.Patterns[d.CurrentPattern]
}

// Euclidean generates a Euclidean rhythm of length steps with pulses true
// entries evenly distributed via Bjorklund's algorithm, then rotated right
// by rotation. Grounded on drum_sequencer.rs's euclidean_rhythm, including
// its boundary behaviors (k=0 all-false, k=n all-true, k>n clamped).
func Euclidean(pulses, steps, rotation int) []bool {
	if steps == 0 {
		return nil
	}
	if pulses > steps {
		pulses = steps
	}
	if pulses == 0 {
		return make([]bool, steps)
	}
	if pulses == steps {
		out := make([]bool, steps)
		for i := range out {
			out[i] = true
		}
		return out
	}

	pattern := make([][]bool, 0, pulses)
	remainder := make([][]bool, 0, steps-pulses)
	for i := 0; i < steps; i++ {
		if i < pulses {
			pattern = append(pattern, []bool{true})
		} else {
			remainder = append(remainder, []bool{false})
		}
	}

	for len(remainder) > 1 {
		minLen := len(pattern)
		if len(remainder) < minLen {
			minLen = len(remainder)
		}
		newPattern := make([][]bool, 0, minLen)
		for i := 0; i < minLen; i++ {
			combined := append(append([]bool{}, pattern[i]...), remainder[i]...)
			newPattern = append(newPattern, combined)
		}
		leftoverPattern := append([][]bool{}, pattern[minLen:]...)
		leftoverRemainder := append([][]bool{}, remainder[minLen:]...)
		pattern = newPattern
		if len(leftoverPattern) > 0 {
			remainder = leftoverPattern
		} else {
			remainder = leftoverRemainder
		}
	}

	result := make([]bool, 0, steps)
	for _, p := range pattern {
		result = append(result, p...)
	}
	for _, r := range remainder {
		result = append(result, r...)
	}
	if len(result) > steps {
		result = result[:steps]
	}

	if rotation > 0 && len(result) > 0 {
		rot := rotation % len(result)
		if rot > 0 {
			rotated := make([]bool, len(result))
			copy(rotated, result[len(result)-rot:])
			copy(rotated[rot:], result[:len(result)-rot])
			result = rotated
		}
	}

	return result
}
