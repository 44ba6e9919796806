// Package playback implements the piano-roll tick: advance the playhead
// by the elapsed ticks this frame, binary-search each track's note list
// over the (possibly loop-wrapped) scan range, and for every note fan out
// to layer-group siblings, buffer into the arpeggiator if the target has
// one enabled, or else resolve groove/swing/humanize and spawn a voice.
// Automation lanes are evaluated at the new playhead once per tick.
//
// Grounded on playback.rs line for line, including its wrapped-scan-range
// construction, its eighth/sixteenth swing-grid check (eighth wins ties),
// and its arp-hold-vs-spawn branch (the decision recorded in SPEC_FULL.md
// §9: for an arp-enabled target the pitch is added to the held notes of
// the caller's shared arpStates map, so this package never imports
// internal/arp).
package playback

import (
	"sort"

	"github.com/schollz/imbolc/internal/automation"
	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
)

// Engine is the subset of the backend a playback tick needs.
type Engine interface {
	IsRunning() bool
	SpawnVoice(trackID types.TrackID, pitch uint8, velocity float32, offsetSecs float64)
	ReleaseVoice(trackID types.TrackID, pitch uint8, offsetSecs float64)
	SendAutomationBundle(messages []automation.Message, offsetSecs float64)
}

// Resolver answers track-topology questions without this package owning
// track storage.
type Resolver interface {
	LayerGroupMembers(trackID types.TrackID) []types.TrackID
	Track(trackID types.TrackID) (*types.Track, bool)
	AnySolo() bool
}

// Feedback receives playhead/bpm events for UI/monitor consumption.
type Feedback interface {
	PlayheadPosition(tick uint32)
	BpmUpdate(bpm uint16)
}

// ActiveNote tracks a sounding note's remaining duration in ticks so its
// note-off can be scheduled (or, for an arp-enabled target, so the pitch
// can be dropped from the arp's held-notes set instead of releasing a
// voice that was never spawned).
type ActiveNote struct {
	TrackID        types.TrackID
	Pitch          uint8
	RemainingTicks uint32
}

type noteOn struct {
	trackID      types.TrackID
	pitch        uint8
	velocity     uint8
	duration     uint32
	noteTick     uint32
	probability  float32
	ticksFromOld float64
}

// Tick advances piano by elapsedSecs worth of ticks and dispatches notes,
// arp buffering, and automation for this frame.
func Tick(
	piano *types.PianoRollSnapshot,
	tracks []*types.Track,
	session *types.SessionState,
	lanes []types.AutomationLane,
	engine Engine,
	resolver Resolver,
	activeNotes *[]ActiveNote,
	arpStates map[types.TrackID]*types.ArpPlayState,
	r *rng.State,
	feedback Feedback,
	scheduleLookaheadSecs float64,
	elapsedSecs float64,
	tickAccumulator *float64,
) {
	if !piano.Playing {
		return
	}

	*tickAccumulator += elapsedSecs * (float64(piano.BPM) / 60.0) * float64(piano.TicksPerBeat)
	tickDelta := uint32(*tickAccumulator)
	*tickAccumulator -= float64(tickDelta)

	if tickDelta == 0 {
		return
	}

	oldPlayhead := piano.Playhead
	piano.Advance(tickDelta)
	newPlayhead := piano.Playhead

	type scanRange struct {
		start, end uint32
		baseTicks  float64
	}
	var scanRanges []scanRange
	wrapped := newPlayhead < oldPlayhead
	if wrapped {
		scanRanges = []scanRange{
			{oldPlayhead, piano.LoopEnd, 0.0},
			{piano.LoopStart, newPlayhead, float64(piano.LoopEnd - oldPlayhead)},
		}
	} else {
		scanRanges = []scanRange{{oldPlayhead, newPlayhead, 0.0}}
	}

	secsPerTick := 60.0 / (float64(piano.BPM) * float64(piano.TicksPerBeat))

	var noteOns []noteOn
	anySolo := resolver.AnySolo()
	for _, trackID := range piano.TrackOrder {
		track, ok := piano.Tracks[trackID]
		if !ok {
			continue
		}
		targets := resolver.LayerGroupMembers(trackID)

		for _, sr := range scanRanges {
			notes := track.Notes
			startIdx := sort.Search(len(notes), func(i int) bool { return notes[i].Tick >= sr.start })
			endIdx := sort.Search(len(notes), func(i int) bool { return notes[i].Tick >= sr.end })

			for _, note := range notes[startIdx:endIdx] {
				ticksFromOld := sr.baseTicks + float64(note.Tick-sr.start)
				for _, targetID := range targets {
					tr, ok := resolver.Track(targetID)
					skip := !ok || !tr.Active || (anySolo && !tr.Mixer.Solo) || (!anySolo && tr.Mixer.Mute)
					if skip {
						continue
					}
					noteOns = append(noteOns, noteOn{targetID, note.Pitch, note.Velocity, note.Duration, note.Tick, note.Probability, ticksFromOld})
				}
			}
		}
	}

	if engine.IsRunning() {
		globalSwing := piano.SwingAmount
		globalHumanizeVel := session.Humanize.Velocity
		globalHumanizeTime := session.Humanize.Timing

		for _, n := range noteOns {
			if n.probability < 1.0 && r.Next() > n.probability {
				continue
			}

			tr, _ := resolver.Track(n.trackID)
			effectiveSwing := globalSwing
			effectiveSwingGrid := types.SwingGridEighths // default
			effectiveHumanizeVel := globalHumanizeVel
			effectiveHumanizeTime := globalHumanizeTime
			var timingOffsetMs float32
			if tr != nil {
				if tr.Groove.SwingAmount != nil {
					effectiveSwing = *tr.Groove.SwingAmount
				}
				if tr.Groove.SwingGrid != nil {
					effectiveSwingGrid = *tr.Groove.SwingGrid
				}
				if tr.Groove.HumanizeVelocity != nil {
					effectiveHumanizeVel = *tr.Groove.HumanizeVelocity
				}
				if tr.Groove.HumanizeTiming != nil {
					effectiveHumanizeTime = *tr.Groove.HumanizeTiming
				}
				timingOffsetMs = tr.Groove.TimingOffsetMs
			}

			arpEnabled := tr != nil && tr.NoteInput.Arpeggiator.Enabled
			if arpEnabled {
				state, ok := arpStates[n.trackID]
				if !ok {
					state = types.NewArpPlayState()
					arpStates[n.trackID] = state
				}
				state.AddHeldNote(n.pitch)
				*activeNotes = append(*activeNotes, ActiveNote{n.trackID, n.pitch, n.duration})
				continue
			}

			offset := n.ticksFromOld*secsPerTick + scheduleLookaheadSecs
			offset += float64(timingOffsetMs) / 1000.0

			if effectiveSwing > 0 {
				tpb := float64(piano.TicksPerBeat)
				eighth := tpb / 2.0
				sixteenth := tpb / 4.0
				posInBeat := float64(n.noteTick) % tpb

				applyEighth := (effectiveSwingGrid == types.SwingGridEighths || effectiveSwingGrid == types.SwingGridBoth) && absF(posInBeat-eighth) < 1.0
				applySixteenth := (effectiveSwingGrid == types.SwingGridSixteenths || effectiveSwingGrid == types.SwingGridBoth) &&
					(absF(posInBeat-sixteenth) < 1.0 || absF(posInBeat-sixteenth*3.0) < 1.0)

				if applyEighth {
					offset += float64(effectiveSwing) * eighth * secsPerTick * 0.5
				} else if applySixteenth {
					offset += float64(effectiveSwing) * sixteenth * secsPerTick * 0.5
				}
			}

			if effectiveHumanizeTime > 0 {
				jitter := (r.Next() - 0.5) * 2 * effectiveHumanizeTime * 0.02
				offset += float64(jitter)
				if offset < 0 {
					offset = 0
				}
			}

			velF := float32(n.velocity) / 127.0
			if effectiveHumanizeVel > 0 {
				jitter := (r.Next() - 0.5) * 2 * effectiveHumanizeVel * (30.0 / 127.0)
				velF = clamp(velF+jitter, 0.01, 1.0)
			}

			engine.SpawnVoice(n.trackID, n.pitch, velF, offset)
			*activeNotes = append(*activeNotes, ActiveNote{n.trackID, n.pitch, n.duration})
		}

		messages, bpmChanged := automation.EvaluateAll(lanes, newPlayhead, session, piano)
		if bpmChanged != nil && feedback != nil {
			feedback.BpmUpdate(*bpmChanged)
		}
		engine.SendAutomationBundle(messages, scheduleLookaheadSecs)
	}

	var noteOffs []ActiveNote
	kept := (*activeNotes)[:0:0]
	for _, n := range *activeNotes {
		if n.RemainingTicks <= tickDelta {
			noteOffs = append(noteOffs, ActiveNote{n.TrackID, n.Pitch, n.RemainingTicks})
		} else {
			n.RemainingTicks -= tickDelta
			kept = append(kept, n)
		}
	}
	*activeNotes = kept

	if engine.IsRunning() {
		for _, n := range noteOffs {
			if state, ok := arpStates[n.TrackID]; ok {
				state.RemoveHeldNote(n.Pitch)
				continue
			}
			offset := float64(n.RemainingTicks)*secsPerTick + scheduleLookaheadSecs
			engine.ReleaseVoice(n.TrackID, n.Pitch, offset)
		}
	}

	if feedback != nil {
		feedback.PlayheadPosition(newPlayhead)
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
