package voicealloc

import (
	"testing"
	"time"

	"github.com/schollz/imbolc/internal/types"
	"github.com/stretchr/testify/assert"
)

func mkVoice(track types.TrackID, pitch uint8, vel float32, spawn time.Time) *types.Voice {
	return &types.Voice{TrackID: track, Pitch: pitch, Velocity: vel, SpawnTime: spawn}
}

func TestAllocControlBusesWatermarkAdvance(t *testing.T) {
	a := NewAllocator()
	t1 := a.AllocControlBuses()
	t2 := a.AllocControlBuses()
	assert.Equal(t, types.ControlBusTriple{Freq: 0, Gate: 1, Velocity: 2}, t1)
	assert.Equal(t, types.ControlBusTriple{Freq: 3, Gate: 4, Velocity: 5}, t2)
}

func TestReturnedControlBusesReused(t *testing.T) {
	a := NewAllocator()
	t1 := a.AllocControlBuses()
	a.ReturnControlBuses(t1)
	t2 := a.AllocControlBuses()
	assert.Equal(t, t1, t2)
}

func TestSamePitchRetriggerAlwaysSteals(t *testing.T) {
	a := NewAllocator()
	now := time.Now()
	v := mkVoice(1, 60, 0.5, now)
	a.Add(v)
	stolen := a.Steal(1, 60, now)
	assert.Equal(t, []*types.Voice{v}, stolen)
}

func TestStealsQuietestOldestWhenOverCeiling(t *testing.T) {
	a := NewAllocator()
	now := time.Now()
	for i := 0; i < MaxVoicesPerTrack; i++ {
		v := mkVoice(1, uint8(i), 0.9, now)
		a.Add(v)
	}
	quiet := mkVoice(1, 100, 0.1, now.Add(-10*time.Second))
	a.Add(quiet)

	stolen := a.Steal(1, 200, now)
	assert.Len(t, stolen, 1)
	assert.Same(t, quiet, stolen[0])
}

func TestStealScoreReleasedNearEndIsLowest(t *testing.T) {
	now := time.Now()
	almostDone := &types.Voice{Release: &types.ReleaseState{ReleasedAt: now.Add(-900 * time.Millisecond), ReleaseSeconds: 1.0}}
	justReleased := &types.Voice{Release: &types.ReleaseState{ReleasedAt: now, ReleaseSeconds: 1.0}}
	assert.Less(t, stealScore(almostDone, now), stealScore(justReleased, now))
}

func TestMarkReleasedTransitionsVoice(t *testing.T) {
	a := NewAllocator()
	now := time.Now()
	v := mkVoice(1, 60, 0.5, now)
	a.Add(v)
	got := a.MarkReleased(1, 60, 0.3, now)
	assert.Same(t, v, got)
	assert.True(t, got.IsReleased())
}

func TestCleanupExpiredReturnsBusesAndDrops(t *testing.T) {
	a := NewAllocator()
	now := time.Now()
	buses := a.AllocControlBuses()
	v := &types.Voice{TrackID: 1, Pitch: 60, Buses: buses, Release: &types.ReleaseState{ReleasedAt: now.Add(-5 * time.Second), ReleaseSeconds: 0.5}}
	a.Add(v)
	a.CleanupExpired(now)
	assert.Empty(t, a.Voices())
	reused := a.AllocControlBuses()
	assert.Equal(t, buses, reused)
}

func TestSyncBusWatermarksNeverRegresses(t *testing.T) {
	a := NewAllocator()
	a.AllocControlBuses()
	a.AllocControlBuses()
	before := a.nextControlBus
	a.SyncBusWatermarks(16, 1)
	assert.Equal(t, before, a.nextControlBus)
	a.SyncBusWatermarks(16, 100)
	assert.Equal(t, int32(100), a.nextControlBus)
}
