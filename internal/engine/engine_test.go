package engine

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/schollz/imbolc/internal/backend"
	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

type recordingTransport struct {
	packets []osc.Packet
}

func (t *recordingTransport) Send(p osc.Packet) error {
	t.packets = append(t.packets, p)
	return nil
}

func newTestScheduler() (*Scheduler, *recordingTransport) {
	tr := &recordingTransport{}
	be := backend.New(tr)
	return NewScheduler(be), tr
}

func TestMaxElapsedClampsHitch(t *testing.T) {
	s, _ := newTestScheduler()
	s.local.PianoRoll.Playing = true
	beforePlayhead := s.local.PianoRoll.Playhead
	s.lastTick = time.Now().Add(-10 * time.Second)
	s.tick()

	// a 10s hitch clamped to MaxElapsed (250ms) must advance the playhead
	// by at most a quarter-second's worth of ticks, not a full 10 seconds'
	// worth — otherwise a GC pause would make playback jump ahead.
	maxTicks := uint32(MaxElapsed.Seconds()*(float64(s.local.PianoRoll.BPM)/60.0)*float64(s.local.PianoRoll.TicksPerBeat)) + 1
	assert.LessOrEqual(t, s.local.PianoRoll.Playhead-beforePlayhead, maxTicks)
}

func TestSendRoutesPriorityAndNonPriorityChannels(t *testing.T) {
	s, _ := newTestScheduler()
	s.Send(types.Cmd{Kind: types.CmdSpawnVoice, TrackID: 1, Pitch: 60, Velocity: 0.8})
	s.Send(types.Cmd{Kind: types.CmdUpdateSession, Session: types.NewSessionState()})

	assert.Len(t, s.priority, 1)
	assert.Len(t, s.cmds, 1)
}

func TestSetBpmCmdUpdatesSessionAndPianoRollTogether(t *testing.T) {
	s, _ := newTestScheduler()
	s.local.Tracks = nil
	s.apply(types.Cmd{Kind: types.CmdSetBpm, BPM: 140})

	assert.Equal(t, uint16(140), s.local.Session.BPM)
	assert.Equal(t, float32(140), s.local.PianoRoll.BPM)

	fb := <-s.feedback
	assert.Equal(t, types.FeedbackBpmUpdate, fb.Kind)
	assert.Equal(t, uint16(140), fb.BPM)
}

func TestSpawnVoiceSendsBundleAndTracksVoice(t *testing.T) {
	s, tr := newTestScheduler()
	track := types.NewTrack(1, types.SourceOscillator)
	s.local.Tracks = []*types.Track{track}

	s.SpawnVoice(1, 60, 0.9, 0)

	assert.Len(t, tr.packets, 1)
	assert.Len(t, s.voices.VoicesForTrack(1), 1)
}

func TestReleaseVoiceMarksReleasedAndSendsBundle(t *testing.T) {
	s, tr := newTestScheduler()
	track := types.NewTrack(1, types.SourceOscillator)
	s.local.Tracks = []*types.Track{track}

	s.SpawnVoice(1, 60, 0.9, 0)
	tr.packets = nil

	s.ReleaseVoice(1, 60, 0)

	assert.Len(t, tr.packets, 1)
	voices := s.voices.VoicesForTrack(1)
	assert.Len(t, voices, 1)
	assert.True(t, voices[0].IsReleased())
}

func TestTickAppliesQueuedCommandsBeforeEngineTicks(t *testing.T) {
	s, _ := newTestScheduler()
	s.Send(types.Cmd{Kind: types.CmdSetBpm, BPM: 100})
	s.tick()

	assert.Equal(t, uint16(100), s.local.Session.BPM)
}

func TestShutdownCmdDrainsAllVoices(t *testing.T) {
	s, tr := newTestScheduler()
	track := types.NewTrack(1, types.SourceOscillator)
	s.local.Tracks = []*types.Track{track}
	s.SpawnVoice(1, 60, 0.9, 0)
	tr.packets = nil

	s.apply(types.Cmd{Kind: types.CmdShutdown})

	assert.Empty(t, s.voices.Voices())
	assert.Len(t, tr.packets, 1)
	assert.False(t, s.connected)
}
