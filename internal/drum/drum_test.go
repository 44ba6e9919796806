package drum

import (
	"testing"

	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

type fakeEngine struct {
	running  bool
	hits     []types.BufferID
	amps     []float32
	triggers []float32
}

func (f *fakeEngine) IsRunning() bool { return f.running }
func (f *fakeEngine) PlayDrumHit(trackID types.TrackID, bufferID types.BufferID, amp, sliceStart, sliceEnd, rate float32, offsetSecs float64) {
	f.hits = append(f.hits, bufferID)
	f.amps = append(f.amps, amp)
}
func (f *fakeEngine) TriggerInstrumentOneshot(trackID types.TrackID, freq, amp float32, offsetSecs float64) {
	f.triggers = append(f.triggers, freq)
}

type fakeFeedback struct {
	steps []int
}

func (f *fakeFeedback) DrumStep(trackID types.TrackID, step int) {
	f.steps = append(f.steps, step)
}

func mkDrumTrack() *types.Track {
	tr := types.NewTrack(1, types.SourceDrumKit)
	tr.Drum = types.NewDrumSequencer()
	tr.Drum.Playing = true
	bufID := types.BufferID(5)
	tr.Drum.Pads[0].BufferID = &bufID
	tr.Drum.Patterns[0].Steps[0][0].Active = true
	return tr
}

func TestBootFireWhenNoThresholdCrossed(t *testing.T) {
	tr := mkDrumTrack()
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	r := rng.NewState(1)

	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, fb, 0, 0)

	assert.Equal(t, []int{0}, fb.steps)
	assert.Len(t, engine.hits, 1)
}

func TestNoBootFireAfterAlreadyPlayedStep(t *testing.T) {
	tr := mkDrumTrack()
	zero := 0
	tr.Drum.LastPlayedStep = &zero
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	r := rng.NewState(1)

	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, fb, 0, 0)

	assert.Empty(t, fb.steps)
}

func TestStoppedPlayingResetsLastPlayedStep(t *testing.T) {
	tr := mkDrumTrack()
	tr.Drum.Playing = false
	zero := 3
	tr.Drum.LastPlayedStep = &zero
	engine := &fakeEngine{running: true}
	r := rng.NewState(1)

	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, nil, 0, 0)

	assert.Nil(t, tr.Drum.LastPlayedStep)
}

func TestSwingThresholdDelaysOddNextStep(t *testing.T) {
	tr := mkDrumTrack()
	tr.Drum.SwingAmount = 0.5
	zero := 0
	tr.Drum.LastPlayedStep = &zero
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	r := rng.NewState(1)

	stepsPerBeat := tr.Drum.StepResolution.StepsPerBeat()
	stepsPerSecond := (120.0 / 60.0) * stepsPerBeat
	secsPerStep := 1.0 / stepsPerSecond

	// just under the swung 1.25 threshold -> should not cross yet
	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, fb, 0, secsPerStep*1.2)
	assert.Empty(t, fb.steps)

	// enough more elapsed to cross the swung threshold
	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, fb, 0, secsPerStep*0.1)
	assert.Equal(t, []int{1}, fb.steps)
}

func TestHumanizeVelocityFallsBackToSessionWhenGrooveUnset(t *testing.T) {
	tr := mkDrumTrack()
	tr.Groove.HumanizeVelocity = nil
	fb := &fakeFeedback{}

	flat := types.NewSessionState()
	flat.Humanize.Velocity = 0
	engineFlat := &fakeEngine{running: true}
	Tick([]*types.Track{tr}, 120, flat, engineFlat, rng.NewState(7), fb, 0, 0)

	tr2 := mkDrumTrack()
	tr2.Groove.HumanizeVelocity = nil
	humanized := types.NewSessionState()
	humanized.Humanize.Velocity = 1.0
	engineHumanized := &fakeEngine{running: true}
	Tick([]*types.Track{tr2}, 120, humanized, engineHumanized, rng.NewState(7), fb, 0, 0)

	assert.Len(t, engineFlat.amps, 1)
	assert.Len(t, engineHumanized.amps, 1)
	assert.NotEqual(t, engineFlat.amps[0], engineHumanized.amps[0])
}

func TestInstrumentTriggerPadDeferredAfterLoop(t *testing.T) {
	tr := mkDrumTrack()
	instID := types.TrackID(9)
	tr.Drum.Pads[0].BufferID = nil
	tr.Drum.Pads[0].InstrumentID = &instID
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	r := rng.NewState(1)

	Tick([]*types.Track{tr}, 120, types.NewSessionState(), engine, r, fb, 0, 0)

	assert.Len(t, engine.triggers, 1)
	assert.Empty(t, engine.hits)
}
