package arp

import (
	"testing"

	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

type fakeVoices struct {
	spawned  []uint8
	released []uint8
}

func (f *fakeVoices) SpawnVoice(trackID types.TrackID, pitch uint8, velocity float32, offsetSecs float64) {
	f.spawned = append(f.spawned, pitch)
}

func (f *fakeVoices) ReleaseVoice(trackID types.TrackID, pitch uint8, offsetSecs float64) {
	f.released = append(f.released, pitch)
}

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

func mkTrack(id types.TrackID, enabled bool, dir types.ArpDirection) *types.Track {
	tr := types.NewTrack(id, types.SourceOscillator)
	tr.Active = true
	tr.NoteInput.Arpeggiator = types.ArpConfig{Enabled: enabled, Direction: dir, Rate: types.ResQuarter, Octaves: 1, Gate: 0.8}
	return tr
}

func TestUpDirectionCyclesForward(t *testing.T) {
	tr := mkTrack(1, true, types.ArpUp)
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	voices := &fakeVoices{}
	states := map[types.TrackID]*types.ArpPlayState{}
	state := types.NewArpPlayState()
	state.AddHeldNote(60)
	state.AddHeldNote(64)
	state.AddHeldNote(67)
	states[1] = state

	r := rng.NewState(1)
	// bpm=60, Quarter => 1 step/sec; elapsed=1s triggers exactly one step
	Tick([]*types.Track{tr}, 60, states, resolver, voices, r, 0, 1.0)

	assert.Len(t, voices.spawned, 1)
}

func TestEmptyHeldNotesReleasesCurrentPitch(t *testing.T) {
	tr := mkTrack(1, true, types.ArpUp)
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	voices := &fakeVoices{}
	states := map[types.TrackID]*types.ArpPlayState{}
	state := types.NewArpPlayState()
	pitch := uint8(60)
	state.CurrentPitch = &pitch
	states[1] = state

	r := rng.NewState(1)
	Tick([]*types.Track{tr}, 60, states, resolver, voices, r, 0, 1.0)

	assert.Equal(t, []uint8{60}, voices.released)
	assert.Nil(t, states[1].CurrentPitch)
}

func TestDisabledTrackStateIsCleanedUp(t *testing.T) {
	tr := mkTrack(1, false, types.ArpUp)
	resolver := &fakeResolver{tracks: map[types.TrackID]*types.Track{1: tr}}
	voices := &fakeVoices{}
	states := map[types.TrackID]*types.ArpPlayState{}
	pitch := uint8(60)
	states[1] = &types.ArpPlayState{CurrentPitch: &pitch}

	r := rng.NewState(1)
	Tick([]*types.Track{tr}, 60, states, resolver, voices, r, 0, 0)

	assert.Equal(t, []uint8{60}, voices.released)
	_, exists := states[1]
	assert.False(t, exists)
}

func TestUpDownBouncesAtBoundaries(t *testing.T) {
	sequence := []uint8{60, 64, 67}
	state := types.NewArpPlayState()
	r := rng.NewState(1)

	var got []uint8
	for i := 0; i < 6; i++ {
		p := nextPitch(sequence, state, types.ArpUpDown, r)
		got = append(got, p)
	}
	// up from start: idx 1,2 then bounce to idx1(descending),0, then ascend 1,2
	assert.Equal(t, []uint8{64, 67, 64, 60, 64, 67}, got)
}
