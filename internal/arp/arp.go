// Package arp implements the arpeggiator tick: for every arp-enabled
// track with held notes, it steps through an octave-expanded note
// sequence at a rate derived from BPM and the configured subdivision,
// spawning and releasing voices across the track's layer-group siblings.
//
// Grounded on arpeggiator_tick.rs line for line, including its Up/Down/
// UpDown-bounce/Random stepping and deferred-release-before-spawn order.
package arp

import (
	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
)

// Voices is the subset of the engine an arp tick needs: spawn/release by
// track id with a schedule offset in seconds, kept as an interface so this
// package never imports the engine (avoiding the import cycle the Open
// Question in SPEC_FULL.md's §9 calls out for playback<->arp).
type Voices interface {
	SpawnVoice(trackID types.TrackID, pitch uint8, velocity float32, offsetSecs float64)
	ReleaseVoice(trackID types.TrackID, pitch uint8, offsetSecs float64)
}

// Resolver answers the track-topology questions the tick needs without
// this package owning track storage.
type Resolver interface {
	LayerGroupMembers(trackID types.TrackID) []types.TrackID
	Track(trackID types.TrackID) (*types.Track, bool)
	AnySolo() bool
}

// Tick advances every arp-enabled track's play state by elapsedSecs,
// spawning/releasing voices as steps fire.
func Tick(tracks []*types.Track, bpm uint16, states map[types.TrackID]*types.ArpPlayState, resolver Resolver, voices Voices, r *rng.State, scheduleLookaheadSecs, elapsedSecs float64) {
	type enabled struct {
		id     types.TrackID
		config types.ArpConfig
	}
	var arpTracks []enabled
	for _, tr := range tracks {
		if tr.NoteInput.Arpeggiator.Enabled {
			arpTracks = append(arpTracks, enabled{tr.ID, tr.NoteInput.Arpeggiator})
		}
	}

	for _, e := range arpTracks {
		state, ok := states[e.id]
		if !ok {
			state = types.NewArpPlayState()
			states[e.id] = state
		}

		if len(state.HeldNotes) == 0 {
			if state.CurrentPitch != nil {
				releaseAcrossGroup(resolver, voices, e.id, *state.CurrentPitch, 0)
				state.CurrentPitch = nil
			}
			continue
		}

		sequence := buildSequence(state.HeldNotes, e.config.Octaves)
		if len(sequence) == 0 {
			continue
		}

		stepsPerSecond := (float64(bpm) / 60.0) * e.config.Rate.StepsPerBeat()
		state.Accumulator += elapsedSecs * stepsPerSecond

		stepDuration := 0.0
		if stepsPerSecond > 0 {
			stepDuration = 1.0 / stepsPerSecond
		}
		stepOffset := scheduleLookaheadSecs

		for state.Accumulator >= 1.0 {
			state.Accumulator -= 1.0

			if state.CurrentPitch != nil {
				releaseAcrossGroup(resolver, voices, e.id, *state.CurrentPitch, stepOffset)
				state.CurrentPitch = nil
			}

			pitch := nextPitch(sequence, state, e.config.Direction, r)

			spawnAcrossGroup(resolver, voices, e.id, pitch, 0.8, stepOffset)
			state.CurrentPitch = &pitch
			stepOffset += stepDuration
		}
	}

	for id, state := range states {
		if trackArpEnabled(tracks, id) {
			continue
		}
		if state.CurrentPitch != nil {
			releaseAcrossGroup(resolver, voices, id, *state.CurrentPitch, 0)
		}
		delete(states, id)
	}
}

func trackArpEnabled(tracks []*types.Track, id types.TrackID) bool {
	for _, tr := range tracks {
		if tr.ID == id {
			return tr.NoteInput.Arpeggiator.Enabled
		}
	}
	return false
}

func buildSequence(heldNotes []uint8, octaves int) []uint8 {
	var seq []uint8
	for octave := 0; octave < octaves; octave++ {
		for _, note := range heldNotes {
			pitched := int16(note) + int16(octave)*12
			if pitched >= 0 && pitched <= 127 {
				seq = append(seq, uint8(pitched))
			}
		}
	}
	return seq
}

func nextPitch(sequence []uint8, state *types.ArpPlayState, dir types.ArpDirection, r *rng.State) uint8 {
	n := len(sequence)
	switch dir {
	case types.ArpUp:
		state.StepIndex = (state.StepIndex + 1) % n
		return sequence[state.StepIndex]
	case types.ArpDown:
		if state.StepIndex == 0 {
			state.StepIndex = n - 1
		} else {
			state.StepIndex--
		}
		return sequence[state.StepIndex]
	case types.ArpUpDown:
		if n <= 1 {
			return sequence[0]
		}
		if state.Ascending {
			state.StepIndex++
			if state.StepIndex >= n {
				state.StepIndex = n - 2
				state.Ascending = false
			}
		} else {
			if state.StepIndex == 0 {
				state.StepIndex = 1
				state.Ascending = true
			} else {
				state.StepIndex--
			}
		}
		idx := state.StepIndex
		if idx > n-1 {
			idx = n - 1
		}
		return sequence[idx]
	case types.ArpRandom:
		return sequence[r.NextIndex(n)]
	default:
		return sequence[0]
	}
}

func releaseAcrossGroup(resolver Resolver, voices Voices, trackID types.TrackID, pitch uint8, offset float64) {
	for _, target := range resolver.LayerGroupMembers(trackID) {
		releasePitch := pitch
		if tr, ok := resolver.Track(target); ok {
			releasePitch = tr.OffsetPitch(pitch)
		}
		voices.ReleaseVoice(target, releasePitch, offset)
	}
}

func spawnAcrossGroup(resolver Resolver, voices Voices, trackID types.TrackID, pitch uint8, velocity float32, offset float64) {
	anySolo := resolver.AnySolo()
	for _, target := range resolver.LayerGroupMembers(trackID) {
		tr, ok := resolver.Track(target)
		if !ok || !tr.Active {
			continue
		}
		if anySolo && !tr.Mixer.Solo {
			continue
		}
		if !anySolo && tr.Mixer.Mute {
			continue
		}
		voices.SpawnVoice(target, tr.OffsetPitch(pitch), velocity, offset)
	}
}
