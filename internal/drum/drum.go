// Package drum implements the drum step engine tick: per drum-kit track,
// accumulate elapsed time into a step counter (swing-adjusted), fire every
// step boundary crossed this tick with a precise sub-tick offset, and
// dispatch each active, probability-gated cell as either a one-shot
// sample hit or an instrument trigger.
//
// Grounded line for line on drum_tick.rs, including its boot-fire
// fallback (fire the current step once if no threshold was crossed and it
// is not the step that was played last), its swing-threshold branch, and its
// collect-then-execute split for instrument triggers (avoiding aliasing
// the instrument snapshot while iterating it).
package drum

import (
	"math"

	"github.com/schollz/imbolc/internal/rng"
	"github.com/schollz/imbolc/internal/types"
)

// Engine is the subset of the backend a drum tick needs.
type Engine interface {
	IsRunning() bool
	PlayDrumHit(trackID types.TrackID, bufferID types.BufferID, amp, sliceStart, sliceEnd, rate float32, offsetSecs float64)
	TriggerInstrumentOneshot(trackID types.TrackID, freq, amp float32, offsetSecs float64)
}

// Feedback receives per-step position events for UI/monitor consumption.
type Feedback interface {
	DrumStep(trackID types.TrackID, step int)
}

type instrumentTrigger struct {
	trackID types.TrackID
	freq    float32
	amp     float32
	offset  float64
}

// Tick advances every drum-kit track's sequencer by elapsedSecs.
func Tick(tracks []*types.Track, bpm uint16, session *types.SessionState, engine Engine, r *rng.State, feedback Feedback, scheduleLookaheadSecs, elapsedSecs float64) {
	var triggers []instrumentTrigger

	for _, tr := range tracks {
		seq := tr.Drum
		if seq == nil {
			continue
		}
		if !seq.Playing {
			seq.LastPlayedStep = nil
			continue
		}

		pattern := seq.Pattern()
		patternLength := pattern.Length
		stepsPerBeat := seq.StepResolution.StepsPerBeat()
		stepsPerSecond := (float64(bpm) / 60.0) * stepsPerBeat
		if stepsPerSecond <= 0 {
			continue
		}
		secsPerStepUnit := 1.0 / stepsPerSecond

		oldAccum := seq.StepAccumulator
		seq.StepAccumulator += elapsedSecs * stepsPerSecond

		type stepHit struct {
			step       int
			patternIdx int
			offsetSecs float64
		}
		var stepsToPlay []stepHit
		thresholdConsumed := 0.0

		for {
			nextStep := (seq.CurrentStep + 1) % patternLength
			var swingThreshold float64
			switch {
			case seq.SwingAmount > 0 && nextStep%2 == 1:
				swingThreshold = 1.0 + float64(seq.SwingAmount)*0.5
			case seq.SwingAmount > 0 && seq.CurrentStep%2 == 1:
				swingThreshold = 1.0 - float64(seq.SwingAmount)*0.5
			default:
				swingThreshold = 1.0
			}

			if seq.StepAccumulator < swingThreshold {
				break
			}

			seq.StepAccumulator -= swingThreshold
			thresholdConsumed += swingThreshold

			next := seq.CurrentStep + 1
			if next >= patternLength {
				if seq.ChainEnabled && len(seq.Chain) > 0 {
					seq.ChainPosition = (seq.ChainPosition + 1) % len(seq.Chain)
					nextPattern := seq.Chain[seq.ChainPosition]
					if nextPattern < len(seq.Patterns) {
						seq.CurrentPattern = nextPattern
					}
				}
				seq.CurrentStep = 0
			} else {
				seq.CurrentStep = next
			}

			offsetSecs := (thresholdConsumed-oldAccum)*secsPerStepUnit + scheduleLookaheadSecs
			if offsetSecs < scheduleLookaheadSecs {
				offsetSecs = scheduleLookaheadSecs
			}

			stepsToPlay = append(stepsToPlay, stepHit{seq.CurrentStep, seq.CurrentPattern, offsetSecs})
		}

		if len(stepsToPlay) == 0 && (seq.LastPlayedStep == nil || *seq.LastPlayedStep != seq.CurrentStep) {
			stepsToPlay = append(stepsToPlay, stepHit{seq.CurrentStep, seq.CurrentPattern, scheduleLookaheadSecs})
		}

		for _, hit := range stepsToPlay {
			if engine.IsRunning() && !tr.Mixer.Mute {
				pat := &seq.Patterns[hit.patternIdx]
				for padIdx := range seq.Pads {
					pad := &seq.Pads[padIdx]
					if padIdx >= len(pat.Steps) || hit.step >= len(pat.Steps[padIdx]) {
						continue
					}
					step := &pat.Steps[padIdx][hit.step]
					if !step.Active {
						continue
					}

					if step.Probability < 1.0 {
						if r.Next() > step.Probability {
							continue
						}
					}

					humanizeVel := derefOr(tr.Groove.HumanizeVelocity, session.Humanize.Velocity)
					humanizeTime := derefOr(tr.Groove.HumanizeTiming, session.Humanize.Timing)
					timingOffsetMs := tr.Groove.TimingOffsetMs

					finalOffset := hit.offsetSecs + float64(timingOffsetMs)/1000.0

					if humanizeTime > 0 {
						jitter := (r.Next() - 0.5) * 2 * humanizeTime * 0.02
						finalOffset += float64(jitter)
						if finalOffset < 0 {
							finalOffset = 0
						}
					}

					amp := (float32(step.Velocity) / 127.0) * pad.Level
					if humanizeVel > 0 {
						jitter := (r.Next() - 0.5) * 2 * humanizeVel * (30.0 / 127.0)
						amp = clamp(amp+jitter, 0.01, 1.0)
					}

					totalPitch := int16(pad.Pitch) + int16(step.PitchOffset)

					if pad.IsInstrumentTrigger() {
						freq := pad.TriggerFreq * pow2(float32(totalPitch)/12.0)
						triggers = append(triggers, instrumentTrigger{*pad.InstrumentID, freq, amp, finalOffset})
					} else if pad.BufferID != nil {
						pitchRate := pow2(float32(totalPitch) / 12.0)
						rate := pitchRate
						if pad.Reverse {
							rate = -pitchRate
						}
						engine.PlayDrumHit(tr.ID, *pad.BufferID, amp, pad.SliceStart, pad.SliceEnd, rate, finalOffset)
					}
				}
			}
			if feedback != nil {
				feedback.DrumStep(tr.ID, hit.step)
			}
			step := hit.step
			seq.LastPlayedStep = &step
		}
	}

	for _, tg := range triggers {
		engine.TriggerInstrumentOneshot(tg.trackID, tg.freq, tg.amp, tg.offset)
	}
}

func derefOr(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
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

func pow2(exp float32) float32 {
	return float32(math.Pow(2, float64(exp)))
}
