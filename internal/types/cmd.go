package types

// CmdKind is the closed union of control-plane commands the engine accepts
// from its front end, grounded on commands.rs's AudioCmd enum.
type CmdKind int

const (
	CmdConnect CmdKind = iota
	CmdDisconnect
	CmdStartServer
	CmdStopServer
	CmdRestartServer
	CmdUpdateSession
	CmdUpdatePianoRoll
	CmdUpdateAutomationLanes
	CmdSetPlaying
	CmdResetPlayhead
	CmdSetBpm
	CmdRebuildRouting
	CmdSetSourceParam
	CmdSetFilterParam
	CmdSetEffectParam
	CmdSetLfoParam
	CmdSetBusMixerParams
	CmdSetMasterParams
	CmdSpawnVoice
	CmdReleaseVoice
	CmdReleaseAllVoices
	CmdPlayDrumHit
	CmdLoadSample
	CmdFreeSamples
	CmdStartRecording
	CmdStopRecording
	CmdApplyAutomation
	CmdShutdown
)

// Cmd is the flat tagged-union command value sent to the engine's command
// channel; only the fields relevant to Kind are populated. Modeled as a
// struct rather than an interface for the same reason as AutomationTarget:
// a plain, comparable value that is cheap to construct at call sites and
// easy to route on priority without a type switch per enqueue.
type Cmd struct {
	Kind CmdKind

	TrackID    TrackID
	BusID      BusID
	EffectID   EffectID
	FilterKind FilterKind
	ParamName  string
	ParamIndex uint32
	Value      float32

	Pitch    uint8
	Velocity float32

	PadIndex int

	BufferID BufferID
	Path     string

	BPM uint16

	Playing bool

	Session     *SessionState
	PianoRoll   *PianoRollSnapshot
	Automation  []AutomationLane
}

// IsPriority classifies a command for the engine's two-lane channel setup:
// voice management, parameter edits, playback transport, and automation
// application jump the state-sync/server-lifecycle/recording queue,
// grounded on commands.rs's is_priority().
func (c Cmd) IsPriority() bool {
	switch c.Kind {
	case CmdSpawnVoice, CmdReleaseVoice, CmdReleaseAllVoices, CmdPlayDrumHit,
		CmdSetSourceParam, CmdSetFilterParam, CmdSetEffectParam, CmdSetLfoParam,
		CmdSetBusMixerParams, CmdSetMasterParams,
		CmdSetPlaying, CmdResetPlayhead, CmdSetBpm,
		CmdApplyAutomation:
		return true
	default:
		return false
	}
}
