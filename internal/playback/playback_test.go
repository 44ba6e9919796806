package playback

import (
	"testing"

	"github.com/schollz/imbolc/internal/automation"
	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

type fakeEngine struct {
	running        bool
	spawned        []uint8
	released       []uint8
	releaseOffsets []float64
}

func (f *fakeEngine) IsRunning() bool { return f.running }
func (f *fakeEngine) SpawnVoice(trackID types.TrackID, pitch uint8, velocity float32, offsetSecs float64) {
	f.spawned = append(f.spawned, pitch)
}
func (f *fakeEngine) ReleaseVoice(trackID types.TrackID, pitch uint8, offsetSecs float64) {
	f.released = append(f.released, pitch)
	f.releaseOffsets = append(f.releaseOffsets, offsetSecs)
}
func (f *fakeEngine) SendAutomationBundle(messages []automation.Message, offsetSecs float64) {}

type fakeResolver struct {
	tracks map[types.TrackID]*types.Track
}

func (f *fakeResolver) LayerGroupMembers(trackID types.TrackID) []types.TrackID {
	return []types.TrackID{trackID}
}
func (f *fakeResolver) Track(trackID types.TrackID) (*types.Track, bool) {
	tr, ok := f.tracks[trackID]
	return tr, ok
}
func (f *fakeResolver) AnySolo() bool { return false }

type fakeFeedback struct {
	playheads []uint32
	bpms      []uint16
}

func (f *fakeFeedback) PlayheadPosition(tick uint32) { f.playheads = append(f.playheads, tick) }
func (f *fakeFeedback) BpmUpdate(bpm uint16)          { f.bpms = append(f.bpms, bpm) }

func setup(t *testing.T) (*types.PianoRollSnapshot, *types.Track) {
	piano := types.NewPianoRollSnapshot()
	piano.Playing = true
	piano.BPM = 120
	piano.TicksPerBeat = 480
	piano.LoopEnd = 480 * 4
	tr := types.NewTrack(1, types.SourceOscillator)
	tr.Active = true
	piano.AddTrack(1)
	piano.Tracks[1].Notes = []types.Note{{Tick: 10, Duration: 100, Pitch: 60, Velocity: 100, Probability: 1.0}}
	return piano, tr
}

func TestNoWrapSpawnsNoteWithinRange(t *testing.T) {
	piano, tr := setup(t)
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	active := []ActiveNote{}
	arpStates := map[types.TrackID]*types.ArpPlayState{}
	r := rng.NewState(1)
	acc := 0.0

	// elapsed large enough to cross tick 10 in one frame
	elapsed := (20.0 / (120.0 / 60.0 * 480.0))
	Tick(piano, []*types.Track{tr}, types.NewSessionState(), nil, engine, resolver, &active, arpStates, r, fb, 0, elapsed, &acc)

	assert.Equal(t, []uint8{60}, engine.spawned)
	assert.Len(t, fb.playheads, 1)
}

func TestWrapScansBothRanges(t *testing.T) {
	piano, tr := setup(t)
	piano.Playhead = piano.LoopEnd - 5
	piano.Tracks[1].Notes = []types.Note{{Tick: 2, Duration: 50, Pitch: 61, Velocity: 90, Probability: 1.0}}
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	active := []ActiveNote{}
	arpStates := map[types.TrackID]*types.ArpPlayState{}
	r := rng.NewState(1)
	acc := 0.0

	elapsed := 10.0 / (120.0 / 60.0 * 480.0)
	Tick(piano, []*types.Track{tr}, types.NewSessionState(), nil, engine, resolver, &active, arpStates, r, fb, 0, elapsed, &acc)

	assert.Equal(t, []uint8{61}, engine.spawned)
}

func TestNoteOffOffsetReflectsRemainingTicksAtScheduleTime(t *testing.T) {
	piano, tr := setup(t)
	piano.Tracks[1].Notes = nil // no new notes this tick, only the pre-seeded active note ends
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	active := []ActiveNote{{TrackID: 1, Pitch: 60, RemainingTicks: 5}}
	arpStates := map[types.TrackID]*types.ArpPlayState{}
	r := rng.NewState(1)
	acc := 0.0
	lookahead := 0.02

	// tickDelta = 10 ticks at 120bpm/480ppq, so the note (5 ticks left) ends
	// partway through this frame rather than right at its start.
	secsPerTick := 60.0 / (120.0 * 480.0)
	elapsed := 10.0 * secsPerTick
	Tick(piano, []*types.Track{tr}, types.NewSessionState(), nil, engine, resolver, &active, arpStates, r, fb, lookahead, elapsed, &acc)

	assert.Equal(t, []uint8{60}, engine.released)
	expected := 5.0*secsPerTick + lookahead
	assert.InDelta(t, expected, engine.releaseOffsets[0], 1e-9)
	assert.NotEqual(t, lookahead, engine.releaseOffsets[0])
}

func TestArpEnabledBuffersInsteadOfSpawning(t *testing.T) {
	piano, tr := setup(t)
	tr.NoteInput.Arpeggiator.Enabled = true
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	engine := &fakeEngine{running: true}
	fb := &fakeFeedback{}
	active := []ActiveNote{}
	arpStates := map[types.TrackID]*types.ArpPlayState{}
	r := rng.NewState(1)
	acc := 0.0

	elapsed := 20.0 / (120.0 / 60.0 * 480.0)
	Tick(piano, []*types.Track{tr}, types.NewSessionState(), nil, engine, resolver, &active, arpStates, r, fb, 0, elapsed, &acc)

	assert.Empty(t, engine.spawned)
	assert.Contains(t, arpStates[1].HeldNotes, uint8(60))
}
