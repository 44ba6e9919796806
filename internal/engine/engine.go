// Package engine is the top-level scheduler: the ~100Hz tick loop that
// drains the event log, consumes a fresh triple-buffered snapshot if one
// arrived, runs the arpeggiator, drum, and playback engines plus the
// automation evaluator in a fixed order, reaps expired voices, and emits
// feedback. It also owns the command channel the front end sends Cmds
// through and dispatches each Cmd into the relevant mutation.
//
// Grounded on spec.md §4.1 for the loop shape and on commands.rs for the
// Cmd dispatch taxonomy; the goroutine-per-loop/channel-based command
// intake replaces the Rust engine's crossbeam_channel + dedicated thread,
// following the teacher's preference for plain goroutines over a runtime
// abstraction.
package engine

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/schollz/imbolc/internal/arp"
	"github.com/schollz/imbolc/internal/automation"
	"github.com/schollz/imbolc/internal/backend"
	"github.com/schollz/imbolc/internal/drum"
	"github.com/schollz/imbolc/internal/eventlog"
	"github.com/schollz/imbolc/internal/playback"
	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/triplebuffer"
	"github.com/schollz/imbolc/internal/types"
	"github.com/schollz/imbolc/internal/voicealloc"
)

// TickRate is the scheduler's target cadence.
const TickRate = time.Second / 100

// ScheduleLookaheadSecs is the constant offset added to every bundle's
// timestamp so step-engine sub-tick timing survives scheduling jitter.
const ScheduleLookaheadSecs = 0.02

// MaxElapsed clamps a hitch (GC pause, OS scheduling stall) so the
// scheduler never tries to "catch up" by simulating a huge elapsed span.
const MaxElapsed = 250 * time.Millisecond

// groupRecord is the target group new voice synths are spawned into.
const groupRecord = backend.GroupRecord

// Snapshot is the full triple-buffered payload handed from the front end
// to the scheduler: tracks, session, piano roll, and automation lanes.
type Snapshot struct {
	Tracks      []*types.Track
	LayerGroups []*types.LayerGroup
	Session     *types.SessionState
	PianoRoll   *types.PianoRollSnapshot
	Automation  []types.AutomationLane
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Session: types.NewSessionState(), PianoRoll: types.NewPianoRollSnapshot()}
}

// trackIndex resolves track lookups and layer-group fan-out by set
// membership, per the spec's no-back-pointers design note. It structurally
// satisfies both arp.Resolver and playback.Resolver.
type trackIndex struct {
	byID   map[types.TrackID]*types.Track
	groups map[types.GroupID]*types.LayerGroup
}

func buildTrackIndex(snap *Snapshot) *trackIndex {
	idx := &trackIndex{byID: make(map[types.TrackID]*types.Track), groups: make(map[types.GroupID]*types.LayerGroup)}
	for _, tr := range snap.Tracks {
		idx.byID[tr.ID] = tr
	}
	for _, g := range snap.LayerGroups {
		idx.groups[g.ID] = g
	}
	return idx
}

func (idx *trackIndex) Track(id types.TrackID) (*types.Track, bool) {
	tr, ok := idx.byID[id]
	return tr, ok
}

func (idx *trackIndex) LayerGroupMembers(id types.TrackID) []types.TrackID {
	tr, ok := idx.byID[id]
	if !ok || tr.GroupID == nil {
		return []types.TrackID{id}
	}
	group, ok := idx.groups[*tr.GroupID]
	if !ok {
		return []types.TrackID{id}
	}
	return group.TrackIDs
}

func (idx *trackIndex) AnySolo() bool {
	for _, tr := range idx.byID {
		if tr.Mixer.Solo {
			return true
		}
	}
	return false
}

// Scheduler is the tick loop. Run owns a single goroutine; Send, Feedback,
// State (for writing snapshots) and Log are the methods called from others.
type Scheduler struct {
	backend *backend.Backend
	voices  *voicealloc.Allocator
	logw    *eventlog.Writer
	logr    *eventlog.Reader
	state   *triplebuffer.Buffer[Snapshot]

	feedback chan types.Feedback
	cmds     chan types.Cmd
	priority chan types.Cmd

	local     Snapshot
	arpStates map[types.TrackID]*types.ArpPlayState
	active    []playback.ActiveNote
	rng       *rng.State

	tickAccumulator float64
	lastTick        time.Time
	connected       bool
}

func NewScheduler(be *backend.Backend) *Scheduler {
	logw, logr := eventlog.NewWriter()
	return &Scheduler{
		backend:   be,
		voices:    voicealloc.NewAllocator(),
		logw:      logw,
		logr:      logr,
		state:     triplebuffer.NewWith(*NewSnapshot()),
		feedback:  make(chan types.Feedback, 256),
		cmds:      make(chan types.Cmd, 256),
		priority:  make(chan types.Cmd, 256),
		local:     *NewSnapshot(),
		arpStates: make(map[types.TrackID]*types.ArpPlayState),
		rng:       rng.NewState(0xC0FFEE),
		connected: true,
	}
}

// Send enqueues a command, routing priority commands to a separate lane
// so voice/parameter/transport edits aren't stuck behind slower
// state-sync or server-lifecycle traffic.
func (s *Scheduler) Send(cmd types.Cmd) {
	ch := s.cmds
	if cmd.IsPriority() {
		ch = s.priority
	}
	select {
	case ch <- cmd:
	default:
		log.Printf("engine: command channel full, dropping %v", cmd.Kind)
	}
}

// Feedback returns the channel feedback events are published on.
func (s *Scheduler) Feedback() <-chan types.Feedback {
	return s.feedback
}

// State exposes the snapshot triple buffer so a state-sync transport
// can publish full snapshots independent of per-Cmd mutation.
func (s *Scheduler) State() *triplebuffer.Buffer[Snapshot] {
	return s.state
}

// Log returns the event-log writer, for components appending checkpoint
// or action entries (e.g. the storage autosave path observing mutations).
func (s *Scheduler) Log() *eventlog.Writer {
	return s.logw
}

func (s *Scheduler) emit(f types.Feedback) {
	select {
	case s.feedback <- f:
	default:
		log.Printf("engine: feedback channel full, dropping %v", f.Kind)
	}
}

// Run drives the tick loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.lastTick = time.Now()
	ticker := time.NewTicker(TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick implements spec.md §4.1's 8-step loop body.
func (s *Scheduler) tick() {
	now := time.Now()
	elapsed := now.Sub(s.lastTick)
	s.lastTick = now
	if elapsed > MaxElapsed {
		elapsed = MaxElapsed
	}

	s.drainCmdChannel(s.priority)
	s.drainCmdChannel(s.cmds)
	s.drainLog()

	if s.state.HasFresh() {
		s.state.ReadWith(func(snap *Snapshot) {
			s.local = *snap
		})
	}

	idx := buildTrackIndex(&s.local)
	elapsedSecs := elapsed.Seconds()

	arp.Tick(s.local.Tracks, s.local.Session.BPM, s.arpStates, idx, s, s.rng, ScheduleLookaheadSecs, elapsedSecs)
	drum.Tick(s.local.Tracks, s.local.Session.BPM, s.local.Session, s, s.rng, s, ScheduleLookaheadSecs, elapsedSecs)
	if s.local.PianoRoll.Playing {
		playback.Tick(s.local.PianoRoll, s.local.Tracks, s.local.Session, s.local.Automation, s, idx,
			&s.active, s.arpStates, s.rng, s, ScheduleLookaheadSecs, elapsedSecs, &s.tickAccumulator)
	}

	s.voices.CleanupExpired(now)
}

func (s *Scheduler) drainCmdChannel(ch chan types.Cmd) {
	for {
		select {
		case cmd := <-ch:
			s.apply(cmd)
		default:
			return
		}
	}
}

// drainLog applies queued event-log entries within a fixed time budget,
// per spec.md §4.1 step 2.
func (s *Scheduler) drainLog() {
	deadline := time.Now().Add(2 * time.Millisecond)
	for time.Now().Before(deadline) {
		entries := s.logr.DrainN(32)
		if len(entries) == 0 {
			return
		}
		for _, e := range entries {
			s.applyLogEntry(e)
		}
	}
}

func (s *Scheduler) applyLogEntry(e *eventlog.Entry) {
	switch e.Kind {
	case eventlog.KindCheckpoint:
		if snap, ok := e.Payload.(Snapshot); ok {
			s.local = snap
		}
	case eventlog.KindPianoRollUpdate:
		if pr, ok := e.Payload.(*types.PianoRollSnapshot); ok {
			s.local.PianoRoll = pr
		}
	case eventlog.KindAutomationUpdate:
		if lanes, ok := e.Payload.([]types.AutomationLane); ok {
			s.local.Automation = lanes
		}
	}
}

// apply dispatches one Cmd, per commands.rs's taxonomy.
func (s *Scheduler) apply(cmd types.Cmd) {
	switch cmd.Kind {
	case types.CmdConnect:
		s.connected = true
		s.emit(types.Feedback{Kind: types.FeedbackServerStarted})
	case types.CmdDisconnect, types.CmdStopServer:
		s.connected = false
		s.emit(types.Feedback{Kind: types.FeedbackServerStopped})
	case types.CmdStartServer, types.CmdRestartServer:
		s.connected = true
	case types.CmdUpdateSession:
		if cmd.Session != nil {
			s.local.Session = cmd.Session
		}
	case types.CmdUpdatePianoRoll:
		if cmd.PianoRoll != nil {
			s.local.PianoRoll = cmd.PianoRoll
		}
	case types.CmdUpdateAutomationLanes:
		s.local.Automation = cmd.Automation
	case types.CmdSetPlaying:
		s.local.PianoRoll.Playing = cmd.Playing
	case types.CmdResetPlayhead:
		s.local.PianoRoll.Playhead = s.local.PianoRoll.LoopStart
	case types.CmdSetBpm:
		s.local.Session.SetBPM(cmd.BPM)
		s.local.PianoRoll.BPM = float32(cmd.BPM)
		s.emit(types.Feedback{Kind: types.FeedbackBpmUpdate, BPM: cmd.BPM})
	case types.CmdSpawnVoice:
		s.SpawnVoice(cmd.TrackID, cmd.Pitch, cmd.Velocity, 0)
	case types.CmdReleaseVoice:
		s.ReleaseVoice(cmd.TrackID, cmd.Pitch, 0)
	case types.CmdReleaseAllVoices:
		s.releaseAllVoices(cmd.TrackID)
	case types.CmdPlayDrumHit:
		s.PlayDrumHit(cmd.TrackID, cmd.BufferID, cmd.Velocity, 0, 1, 1, 0)
	case types.CmdShutdown:
		s.releaseAllVoices(0)
		s.connected = false
	}
}

func (s *Scheduler) releaseAllVoices(trackID types.TrackID) {
	var drained []*types.Voice
	if trackID == 0 {
		drained = s.voices.DrainAll()
	} else {
		drained = s.voices.DrainTrack(trackID)
	}
	for _, v := range drained {
		s.sendReleaseBundle(v, 0)
	}
}

// --- arp.Voices / playback.Engine / drum.Engine wiring ---

func (s *Scheduler) IsRunning() bool {
	return s.connected
}

func synthDefFor(tr *types.Track) string {
	switch tr.Source {
	case types.SourceSampler:
		return "imbolcSampler"
	case types.SourceDrumKit:
		return "imbolcDrum"
	default:
		return "imbolcVoice"
	}
}

func (s *Scheduler) SpawnVoice(trackID types.TrackID, pitch uint8, velocity float32, offsetSecs float64) {
	now := time.Now()
	stolen := s.voices.Steal(trackID, pitch, now)
	for _, v := range stolen {
		s.sendReleaseBundle(v, offsetSecs)
	}

	var track *types.Track
	for _, t := range s.local.Tracks {
		if t.ID == trackID {
			track = t
			break
		}
	}
	if track == nil {
		return
	}

	buses := s.voices.AllocControlBuses()
	nodeID := s.backend.NextNodeID()
	voice := &types.Voice{TrackID: trackID, Pitch: pitch, Velocity: velocity, SpawnTime: now, Buses: buses}
	voice.ID = types.VoiceID(nodeID)
	s.voices.Add(voice)

	freq := float32(440.0) * pow2((float32(pitch)-69.0)/12.0)
	controls := []backend.RawArg{
		backend.Str("freq"), backend.Float(freq),
		backend.Str("gate"), backend.Float(1.0),
		backend.Str("amp"), backend.Float(velocity),
	}
	msg := backend.SpawnNode(synthDefFor(track), nodeID, 1, groupRecord, controls)
	at := s.scheduleTime(offsetSecs)
	if err := s.backend.SendBundle([]backend.Message{msg}, at); err != nil {
		log.Printf("engine: spawn voice send failed: %v", err)
	}
}

func (s *Scheduler) ReleaseVoice(trackID types.TrackID, pitch uint8, offsetSecs float64) {
	releaseSeconds := float32(0.3)
	for _, t := range s.local.Tracks {
		if t.ID == trackID {
			releaseSeconds = t.Modulation.Amp.ReleaseSeconds
			break
		}
	}
	v := s.voices.MarkReleased(trackID, pitch, releaseSeconds, time.Now())
	if v == nil {
		return
	}
	s.sendReleaseBundle(v, offsetSecs)
}

func (s *Scheduler) sendReleaseBundle(v *types.Voice, offsetSecs float64) {
	msg := backend.SetNode(int32(v.ID), []backend.RawArg{backend.Str("gate"), backend.Float(0.0)})
	at := s.scheduleTime(offsetSecs)
	if err := s.backend.SendBundle([]backend.Message{msg}, at); err != nil {
		log.Printf("engine: release voice send failed: %v", err)
	}
}

func (s *Scheduler) scheduleTime(offsetSecs float64) time.Time {
	if offsetSecs <= 0 {
		return backend.BundleImmediate
	}
	return time.Now().Add(time.Duration(offsetSecs * float64(time.Second)))
}

func (s *Scheduler) SendAutomationBundle(messages []automation.Message, offsetSecs float64) {
	if len(messages) == 0 {
		return
	}
	var built []backend.Message
	for _, m := range messages {
		built = append(built, backend.SetNode(int32(m.Target.TrackID), []backend.RawArg{
			backend.Str(m.Target.NamedParam), backend.Float(m.Value),
		}))
	}
	at := s.scheduleTime(offsetSecs)
	if err := s.backend.SendBundle(built, at); err != nil {
		log.Printf("engine: automation bundle send failed: %v", err)
	}
}

func (s *Scheduler) PlayheadPosition(tick uint32) {
	s.emit(types.Feedback{Kind: types.FeedbackPlayheadPosition, Playhead: tick})
}

func (s *Scheduler) BpmUpdate(bpm uint16) {
	s.emit(types.Feedback{Kind: types.FeedbackBpmUpdate, BPM: bpm})
}

func (s *Scheduler) PlayDrumHit(trackID types.TrackID, bufferID types.BufferID, amp, sliceStart, sliceEnd, rate float32, offsetSecs float64) {
	nodeID := s.backend.NextNodeID()
	controls := []backend.RawArg{
		backend.Str("buf"), backend.Int(int32(bufferID)),
		backend.Str("amp"), backend.Float(amp),
		backend.Str("startPos"), backend.Float(sliceStart),
		backend.Str("endPos"), backend.Float(sliceEnd),
		backend.Str("rate"), backend.Float(rate),
	}
	msg := backend.SpawnNode("imbolcDrumHit", nodeID, 1, groupRecord, controls)
	at := s.scheduleTime(offsetSecs)
	if err := s.backend.SendBundle([]backend.Message{msg}, at); err != nil {
		log.Printf("engine: drum hit send failed: %v", err)
	}
}

func (s *Scheduler) TriggerInstrumentOneshot(trackID types.TrackID, freq, amp float32, offsetSecs float64) {
	var track *types.Track
	for _, t := range s.local.Tracks {
		if t.ID == trackID {
			track = t
			break
		}
	}
	if track == nil {
		return
	}
	nodeID := s.backend.NextNodeID()
	controls := []backend.RawArg{
		backend.Str("freq"), backend.Float(freq),
		backend.Str("amp"), backend.Float(amp),
		backend.Str("gate"), backend.Float(1.0),
	}
	msg := backend.SpawnNode(synthDefFor(track), nodeID, 1, groupRecord, controls)
	at := s.scheduleTime(offsetSecs)
	if err := s.backend.SendBundle([]backend.Message{msg}, at); err != nil {
		log.Printf("engine: instrument one-shot send failed: %v", err)
	}
}

func (s *Scheduler) DrumStep(trackID types.TrackID, step int) {
	s.emit(types.Feedback{Kind: types.FeedbackDrumStepPosition, Step: step})
}

func pow2(exp float32) float32 {
	return float32(math.Pow(2, float64(exp)))
}
