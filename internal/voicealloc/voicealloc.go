// Package voicealloc is the engine's per-track voice pool: it tracks every
// sounding or releasing voice, allocates the (freq, gate, velocity)
// control-bus triple each voice needs, and steals the least valuable
// voice when a track would otherwise exceed its polyphony ceiling.
//
// Grounded on voice_allocator.rs's VoiceAllocator/steal_score.
package voicealloc

import (
	"time"

	"github.com/schollz/imbolc/internal/types"
)

// MaxVoicesPerTrack caps concurrent voices per track before stealing
// kicks in.
const MaxVoicesPerTrack = 16

// Allocator owns every track's voices and the control-bus watermark.
type Allocator struct {
	voices []*types.Voice

	nextAudioBus   int32
	nextControlBus int32
	controlBusPool []types.ControlBusTriple
}

func NewAllocator() *Allocator {
	return &Allocator{nextAudioBus: 16}
}

// AllocControlBuses pops a freed triple from the pool if available,
// otherwise assigns 3 consecutive bus ids from the watermark and advances
// it by 3; the watermark never regresses.
func (a *Allocator) AllocControlBuses() types.ControlBusTriple {
	if n := len(a.controlBusPool); n > 0 {
		t := a.controlBusPool[n-1]
		a.controlBusPool = a.controlBusPool[:n-1]
		return t
	}
	t := types.ControlBusTriple{
		Freq:     a.nextControlBus,
		Gate:     a.nextControlBus + 1,
		Velocity: a.nextControlBus + 2,
	}
	a.nextControlBus += 3
	return t
}

// ReturnControlBuses pushes a triple back onto the free pool for reuse.
func (a *Allocator) ReturnControlBuses(t types.ControlBusTriple) {
	a.controlBusPool = append(a.controlBusPool, t)
}

// Add registers a newly spawned voice.
func (a *Allocator) Add(v *types.Voice) {
	a.voices = append(a.voices, v)
}

// Steal removes and returns voices that must be freed before trackID can
// sound pitch: any voice on that track at the same pitch (a retrigger always
// steals its own prior voice regardless of release state), plus — if the
// track is now at or over its polyphony ceiling — the single
// lowest-scored candidate.
func (a *Allocator) Steal(trackID types.TrackID, pitch uint8, now time.Time) []*types.Voice {
	var stolen []*types.Voice

	kept := a.voices[:0:0]
	active := 0
	for _, v := range a.voices {
		if v.TrackID == trackID && v.Pitch == pitch {
			stolen = append(stolen, v)
			continue
		}
		if v.TrackID == trackID && !v.IsReleased() {
			active++
		}
		kept = append(kept, v)
	}
	a.voices = kept

	if active >= MaxVoicesPerTrack {
		if idx := a.findStealCandidate(trackID, now); idx >= 0 {
			stolen = append(stolen, a.voices[idx])
			a.voices = append(a.voices[:idx], a.voices[idx+1:]...)
		}
	}

	return stolen
}

func (a *Allocator) findStealCandidate(trackID types.TrackID, now time.Time) int {
	best := -1
	var bestScore float64
	for i, v := range a.voices {
		if v.TrackID != trackID {
			continue
		}
		s := stealScore(v, now)
		if best == -1 || s < bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

// stealScore ranks a voice for stealing: lower is stolen first. Released
// voices close to the end of their release envelope score lowest; among
// sustaining voices, quieter and older voices score lower.
func stealScore(v *types.Voice, now time.Time) float64 {
	if v.IsReleased() {
		elapsed := now.Sub(v.Release.ReleasedAt).Seconds()
		progress := 1.0
		if v.Release.ReleaseSeconds > 0 {
			progress = elapsed / float64(v.Release.ReleaseSeconds)
			if progress > 1 {
				progress = 1
			}
		}
		return (1.0 - progress) * 999.0
	}
	age := now.Sub(v.SpawnTime).Seconds()
	return 1000.0 + float64(v.Velocity)*500.0 + 500.0/(1.0+age)
}

// MarkReleased transitions the first non-released matching voice into its
// release phase, returning it for the caller to schedule a gate-off bundle.
func (a *Allocator) MarkReleased(trackID types.TrackID, pitch uint8, releaseSeconds float32, now time.Time) *types.Voice {
	for _, v := range a.voices {
		if v.TrackID == trackID && v.Pitch == pitch && !v.IsReleased() {
			v.Release = &types.ReleaseState{ReleasedAt: now, ReleaseSeconds: releaseSeconds}
			return v
		}
	}
	return nil
}

// DrainAll removes and returns every voice, for a full-stop / shutdown.
func (a *Allocator) DrainAll() []*types.Voice {
	out := a.voices
	a.voices = nil
	return out
}

// DrainTrack removes and returns every voice belonging to trackID.
func (a *Allocator) DrainTrack(trackID types.TrackID) []*types.Voice {
	var out []*types.Voice
	kept := a.voices[:0:0]
	for _, v := range a.voices {
		if v.TrackID == trackID {
			out = append(out, v)
		} else {
			kept = append(kept, v)
		}
	}
	a.voices = kept
	return out
}

// CleanupExpired drops released voices whose release envelope plus a
// 1.5s tail has fully elapsed, returning their buses to the pool.
func (a *Allocator) CleanupExpired(now time.Time) {
	kept := a.voices[:0:0]
	for _, v := range a.voices {
		if v.IsReleased() {
			elapsed := now.Sub(v.Release.ReleasedAt).Seconds()
			if elapsed >= float64(v.Release.ReleaseSeconds)+1.5 {
				a.ReturnControlBuses(v.Buses)
				continue
			}
		}
		kept = append(kept, v)
	}
	a.voices = kept
}

// VoicesForTrack returns every voice (sustaining or releasing) on trackID.
func (a *Allocator) VoicesForTrack(trackID types.TrackID) []*types.Voice {
	var out []*types.Voice
	for _, v := range a.voices {
		if v.TrackID == trackID {
			out = append(out, v)
		}
	}
	return out
}

// Voices returns every live voice across all tracks.
func (a *Allocator) Voices() []*types.Voice {
	return a.voices
}

// SyncBusWatermarks advances the audio/control bus watermarks forward
// only, never regressing below what is already allocated via the pool.
func (a *Allocator) SyncBusWatermarks(audioBus, controlBus int32) {
	if audioBus > a.nextAudioBus {
		a.nextAudioBus = audioBus
	}
	if controlBus > a.nextControlBus {
		a.nextControlBus = controlBus
	}
}
