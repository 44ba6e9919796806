package automation

import (
	"testing"

	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

func lane(points ...types.Point) *types.AutomationLane {
	return &types.AutomationLane{Enabled: true, Min: 0, Max: 1, Points: points}
}

func TestEvaluateLinear(t *testing.T) {
	l := lane(types.Point{Tick: 0, Value: 0, Curve: types.CurveLinear}, types.Point{Tick: 100, Value: 1, Curve: types.CurveLinear})
	v, ok := Evaluate(l, 50)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 0.001)
}

func TestEvaluateStepHoldsFirstPoint(t *testing.T) {
	l := lane(types.Point{Tick: 0, Value: 0, Curve: types.CurveStep}, types.Point{Tick: 100, Value: 1, Curve: types.CurveStep})
	v, ok := Evaluate(l, 99)
	assert.True(t, ok)
	assert.Equal(t, float32(0), v)
}

func TestEvaluateExponential(t *testing.T) {
	l := lane(types.Point{Tick: 0, Value: 0, Curve: types.CurveExponential}, types.Point{Tick: 100, Value: 1, Curve: types.CurveExponential})
	v, _ := Evaluate(l, 50)
	assert.InDelta(t, 0.25, v, 0.001)
}

func TestEvaluateSCurveSymmetric(t *testing.T) {
	l := lane(types.Point{Tick: 0, Value: 0, Curve: types.CurveSCurve}, types.Point{Tick: 100, Value: 1, Curve: types.CurveSCurve})
	v, _ := Evaluate(l, 50)
	assert.InDelta(t, 0.5, v, 0.001)
}

func TestEvaluateBeforeFirstAndAfterLastClamp(t *testing.T) {
	l := lane(types.Point{Tick: 10, Value: 0.3}, types.Point{Tick: 20, Value: 0.9})
	v, _ := Evaluate(l, 0)
	assert.Equal(t, float32(0.3), v)
	v, _ = Evaluate(l, 1000)
	assert.Equal(t, float32(0.9), v)
}

func TestEvaluatePhysicalRangeMapping(t *testing.T) {
	l := &types.AutomationLane{Enabled: true, Min: 20, Max: 20000, Points: []types.Point{{Tick: 0, Value: 0}, {Tick: 100, Value: 1}}}
	v, _ := Evaluate(l, 100)
	assert.InDelta(t, 20000, v, 0.01)
}

func TestEvaluateAllGlobalBpmOnlyEmitsOnChange(t *testing.T) {
	session := types.NewSessionState()
	piano := types.NewPianoRollSnapshot()
	session.BPM = 120
	piano.BPM = 120

	target := types.AutomationTarget{Kind: types.TargetGlobal, Global: types.GlobalBpm}
	lanes := []types.AutomationLane{{
		Enabled: true, Target: target, Min: 120, Max: 120,
		Points: []types.Point{{Tick: 0, Value: 1}},
	}}

	_, changed := EvaluateAll(lanes, 0, session, piano)
	assert.Nil(t, changed)
	assert.Equal(t, uint16(120), session.BPM)
}

func TestEvaluateAllGlobalBpmChangesWhenDifferent(t *testing.T) {
	session := types.NewSessionState()
	piano := types.NewPianoRollSnapshot()
	session.BPM = 120
	piano.BPM = 120

	target := types.AutomationTarget{Kind: types.TargetGlobal, Global: types.GlobalBpm}
	lanes := []types.AutomationLane{{
		Enabled: true, Target: target, Min: 140, Max: 140,
		Points: []types.Point{{Tick: 0, Value: 1}},
	}}

	_, changed := EvaluateAll(lanes, 0, session, piano)
	assert.NotNil(t, changed)
	assert.Equal(t, uint16(140), *changed)
	assert.Equal(t, uint16(140), session.BPM)
	assert.Equal(t, float32(140), piano.BPM)
}
