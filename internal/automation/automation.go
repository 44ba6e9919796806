// Package automation evaluates automation lanes at a given playhead tick:
// binary search to the surrounding point pair, interpolate by the
// segment's curve, then map the normalized [0,1] result into the lane's
// physical [Min,Max] range.
//
// Grounded directly on spec.md §4.5 for the evaluator shape and on
// param.rs's Param{min,max} physical-range convention for the final
// mapping step.
package automation

import (
	"math"
	"sort"

	"github.com/schollz/imbolc/internal/types"
)

// Evaluate returns the lane's physical-range value at tick, or ok=false if
// the lane has no points or is disabled.
func Evaluate(lane *types.AutomationLane, tick uint32) (value float32, ok bool) {
	if !lane.Enabled || len(lane.Points) == 0 {
		return 0, false
	}
	points := lane.Points

	idx := sort.Search(len(points), func(i int) bool { return points[i].Tick > tick })
	var normalized float32
	switch {
	case idx == 0:
		normalized = points[0].Value
	case idx == len(points):
		normalized = points[len(points)-1].Value
	default:
		p0, p1 := points[idx-1], points[idx]
		if p1.Tick == p0.Tick {
			normalized = p1.Value
		} else {
			t := float32(tick-p0.Tick) / float32(p1.Tick-p0.Tick)
			normalized = interpolate(p0, p1, t)
		}
	}

	return lane.Min + normalized*(lane.Max-lane.Min), true
}

// interpolate blends p0 -> p1 at fraction t per the segment's curve,
// using p0's curve to choose the shape of the segment, matching the
// piecewise interpolation used by automation envelopes generally: Linear,
// Exponential (t^2), Step (hold p0), SCurve (smoothstep).
func interpolate(p0, p1 types.Point, t float32) float32 {
	switch p0.Curve {
	case types.CurveStep:
		return p0.Value
	case types.CurveExponential:
		tt := t * t
		return p0.Value + (p1.Value-p0.Value)*tt
	case types.CurveSCurve:
		tt := t * t * (3 - 2*t)
		return p0.Value + (p1.Value-p0.Value)*tt
	default: // CurveLinear
		return p0.Value + (p1.Value-p0.Value)*t
	}
}

// Message is one resolved automation effect to apply this tick: either a
// direct session mutation (Global(Bpm)) or a backend parameter update.
type Message struct {
	Target types.AutomationTarget
	Value  float32
}

// EvaluateAll evaluates every enabled lane at tick. Global(Bpm) lanes are
// applied directly to session and piano roll (mirroring invariant 8) and
// only surface a BpmUpdate feedback when the value actually changed beyond
// float32 epsilon, matching playback.rs's special case; every other lane
// becomes a Message for the backend to apply as part of the tick's bundle.
func EvaluateAll(lanes []types.AutomationLane, tick uint32, session *types.SessionState, piano *types.PianoRollSnapshot) ([]Message, *uint16) {
	var messages []Message
	var bpmChanged *uint16

	for i := range lanes {
		lane := &lanes[i]
		value, ok := Evaluate(lane, tick)
		if !ok {
			continue
		}

		if lane.Target.Kind == types.TargetGlobal && lane.Target.Global == types.GlobalBpm {
			newBPM := uint16(value)
			if math.Abs(float64(newBPM)-float64(session.BPM)) > float64(epsilon) {
				session.SetBPM(newBPM)
				piano.BPM = float32(newBPM)
				bpmChanged = &newBPM
			}
			continue
		}

		messages = append(messages, Message{Target: lane.Target, Value: value})
	}

	return messages, bpmChanged
}

const epsilon = float32(1.0e-6)
