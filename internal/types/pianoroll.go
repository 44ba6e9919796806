package types

import "sort"

// Note is one entry in a piano-roll track's note list.
type Note struct {
	Tick        uint32
	Duration    uint32
	Pitch       uint8
	Velocity    uint8
	Probability float32 // 0.0-1.0, default 1.0 (always play)
}

// PianoRollTrack is a track_id plus its ordered, tick-sorted note list.
// Grounded on original_source's piano_roll.rs Track (renamed here to avoid
// colliding with types.Track).
type PianoRollTrack struct {
	TrackID     TrackID
	Notes       []Note
	Polyphonic  bool
}

// ToggleNote removes the note at (pitch, tick) if one exists, else inserts
// one at the correct sorted position — mirrors piano_roll.rs's
// toggle_note/partition_point idiom using sort.Search for the binary
// insertion point.
func (t *PianoRollTrack) ToggleNote(pitch uint8, tick, duration uint32, velocity uint8) {
	for i, n := range t.Notes {
		if n.Pitch == pitch && n.Tick == tick {
			t.Notes = append(t.Notes[:i], t.Notes[i+1:]...)
			return
		}
	}
	insertPos := sort.Search(len(t.Notes), func(i int) bool { return t.Notes[i].Tick >= tick })
	t.Notes = append(t.Notes, Note{})
	copy(t.Notes[insertPos+1:], t.Notes[insertPos:])
	t.Notes[insertPos] = Note{Tick: tick, Duration: duration, Pitch: pitch, Velocity: velocity, Probability: 1.0}
}

// NotesInRange returns notes whose tick lies in [startTick, endTick), via
// binary search over the sorted note list (the partition_point idiom from
// playback.rs).
func (t *PianoRollTrack) NotesInRange(startTick, endTick uint32) []Note {
	startIdx := sort.Search(len(t.Notes), func(i int) bool { return t.Notes[i].Tick >= startTick })
	endIdx := sort.Search(len(t.Notes), func(i int) bool { return t.Notes[i].Tick >= endTick })
	if startIdx >= endIdx {
		return nil
	}
	return t.Notes[startIdx:endIdx]
}

// PianoRollSnapshot is the piano-roll sub-snapshot: tracks, transport, loop
// region, and the musical-time settings the playback engine needs. BPM is
// mirrored here and on SessionState per invariant 8 — callers must update
// both atomically (see SessionState.SetBPM).
type PianoRollSnapshot struct {
	Tracks        map[TrackID]*PianoRollTrack
	TrackOrder    []TrackID
	BPM           float32
	TimeSignature [2]uint8

	Playing bool
	Looping bool
	LoopStart uint32
	LoopEnd   uint32
	Playhead  uint32

	TicksPerBeat uint32
	SwingAmount  float32
}

func NewPianoRollSnapshot() *PianoRollSnapshot {
	return &PianoRollSnapshot{
		Tracks:        make(map[TrackID]*PianoRollTrack),
		BPM:           120.0,
		TimeSignature: [2]uint8{4, 4},
		Looping:       true,
		LoopStart:     0,
		LoopEnd:       480 * 16,
		TicksPerBeat:  480,
	}
}

func (p *PianoRollSnapshot) AddTrack(id TrackID) {
	if _, ok := p.Tracks[id]; ok {
		return
	}
	p.Tracks[id] = &PianoRollTrack{TrackID: id, Polyphonic: true}
	p.TrackOrder = append(p.TrackOrder, id)
}

func (p *PianoRollSnapshot) RemoveTrack(id TrackID) {
	delete(p.Tracks, id)
	for i, tid := range p.TrackOrder {
		if tid == id {
			p.TrackOrder = append(p.TrackOrder[:i], p.TrackOrder[i+1:]...)
			break
		}
	}
}

// Advance moves the playhead forward by ticks, wrapping into
// [loop_start, loop_end) when looping is enabled, per piano_roll.rs.
func (p *PianoRollSnapshot) Advance(ticks uint32) {
	if !p.Playing {
		return
	}
	p.Playhead += ticks
	if p.Looping && p.Playhead >= p.LoopEnd {
		p.Playhead = p.LoopStart + (p.Playhead - p.LoopEnd)
	}
}

func (p *PianoRollSnapshot) BeatToTick(beat uint32) uint32 {
	return beat * p.TicksPerBeat
}

func (p *PianoRollSnapshot) TickToBeat(tick uint32) float32 {
	return float32(tick) / float32(p.TicksPerBeat)
}

func (p *PianoRollSnapshot) TicksPerBar() uint32 {
	return p.TicksPerBeat * uint32(p.TimeSignature[0])
}
