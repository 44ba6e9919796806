package types

import "time"

// ReleaseState is present once a voice has been gated off; absent while
// sustaining.
type ReleaseState struct {
	ReleasedAt     time.Time
	ReleaseSeconds float32
}

// ControlBusTriple is the (freq, gate, velocity) control-bus allocation a
// voice holds for its lifetime.
type ControlBusTriple struct {
	Freq     int32
	Gate     int32
	Velocity int32
}

// Voice is one sounding (or releasing) note on a track.
type Voice struct {
	ID       VoiceID
	TrackID  TrackID
	Pitch    uint8
	Velocity float32 // normalized 0.0-1.0
	SpawnTime time.Time

	Release *ReleaseState // nil while sustaining

	Buses ControlBusTriple
}

func (v *Voice) IsReleased() bool {
	return v.Release != nil
}
