// Package backend is the adapter between the engine's tick output and a
// SuperCollider-style synthesis server: it builds OSC messages and
// bundles, owns the node-id/buffer-id watermarks, and hands finished
// packets to a transport (go-osc over UDP in production, a recording fake
// in tests).
//
// Grounded on recording.rs's BackendMessage/RawArg/send_bundle shape, and
// on the teacher's sendOSCInstrumentMessage for the go-osc construction
// idiom (osc.NewMessage(addr) then repeated msg.Append(arg)).
package backend

import (
	"time"

	"github.com/hypebeast/go-osc/osc"
)

// BundleImmediate is the sentinel timestamp meaning "execute as soon as
// the server receives the bundle", mirroring BUNDLE_IMMEDIATE.
var BundleImmediate = time.Time{}

// RawArg is one OSC argument of a known wire type.
type RawArg struct {
	kind  rawArgKind
	i     int32
	f     float32
	s     string
}

type rawArgKind int

const (
	argInt rawArgKind = iota
	argFloat
	argString
)

func Int(v int32) RawArg    { return RawArg{kind: argInt, i: v} }
func Float(v float32) RawArg { return RawArg{kind: argFloat, f: v} }
func Str(v string) RawArg   { return RawArg{kind: argString, s: v} }

func (a RawArg) appendTo(msg *osc.Message) {
	switch a.kind {
	case argInt:
		msg.Append(a.i)
	case argFloat:
		msg.Append(a.f)
	case argString:
		msg.Append(a.s)
	}
}

// Message is one OSC address plus its argument list, the unit the engine
// assembles before handing a batch to SendBundle.
type Message struct {
	Addr string
	Args []RawArg
}

func (m Message) toOSC() *osc.Message {
	msg := osc.NewMessage(m.Addr)
	for _, a := range m.Args {
		a.appendTo(msg)
	}
	return msg
}

// Transport is the thing a Backend sends finished OSC packets through;
// production wires an *osc.Client, tests wire a recording fake.
type Transport interface {
	Send(packet osc.Packet) error
}

// Backend owns outgoing OSC transport plus the node-id and buffer-id
// watermarks used to name newly spawned synths and loaded buffers.
type Backend struct {
	transport Transport

	nextNodeID   int32
	nextBufferID int32
}

func New(transport Transport) *Backend {
	return &Backend{transport: transport, nextNodeID: 1000, nextBufferID: 0}
}

// NextNodeID allocates and returns the next synth node id.
func (b *Backend) NextNodeID() int32 {
	id := b.nextNodeID
	b.nextNodeID++
	return id
}

// NextBufferID allocates and returns the next sample buffer id.
func (b *Backend) NextBufferID() int32 {
	id := b.nextBufferID
	b.nextBufferID++
	return id
}

// SpawnNode builds an /s_new message for a new synth instance.
func SpawnNode(synthDef string, nodeID, addAction, targetID int32, controls []RawArg) Message {
	args := []RawArg{Str(synthDef), Int(nodeID), Int(addAction), Int(targetID)}
	args = append(args, controls...)
	return Message{Addr: "/s_new", Args: args}
}

// SetNode builds an /n_set message updating a running node's controls.
func SetNode(nodeID int32, controls []RawArg) Message {
	args := []RawArg{Int(nodeID)}
	args = append(args, controls...)
	return Message{Addr: "/n_set", Args: args}
}

// FreeNode builds an /n_free message.
func FreeNode(nodeID int32) Message {
	return Message{Addr: "/n_free", Args: []RawArg{Int(nodeID)}}
}

// AllocBuffer builds a /b_alloc message for a number-of-frames buffer.
func AllocBuffer(bufferID, numFrames, numChannels int32) Message {
	return Message{Addr: "/b_alloc", Args: []RawArg{Int(bufferID), Int(numFrames), Int(numChannels)}}
}

// FreeBuffer builds a /b_free message.
func FreeBuffer(bufferID int32) Message {
	return Message{Addr: "/b_free", Args: []RawArg{Int(bufferID)}}
}

// LoadBufferFromFile builds a /b_allocRead message, loading a sample file
// straight into a newly allocated buffer.
func LoadBufferFromFile(bufferID int32, path string) Message {
	return Message{Addr: "/b_allocRead", Args: []RawArg{Int(bufferID), Str(path)}}
}

// WriteBufferHeader builds a /b_write message for streaming a ring buffer
// to disk (used by recording and export), matching recording.rs's args:
// path, "wav", "float", numFrames=0 (until closed), startFrame=0, leaveOpen=1.
func WriteBufferHeader(bufferID int32, path string) Message {
	return Message{Addr: "/b_write", Args: []RawArg{
		Int(bufferID), Str(path), Str("wav"), Str("float"), Int(0), Int(0), Int(1),
	}}
}

// CloseBuffer builds a /b_close message, flushing a streamed recording
// buffer's header and closing the file.
func CloseBuffer(bufferID int32) Message {
	return Message{Addr: "/b_close", Args: []RawArg{Int(bufferID)}}
}

// SendBundle wraps messages in an OSC bundle timestamped at, or sent
// immediately when at equals BundleImmediate, and hands it to the
// transport.
func (b *Backend) SendBundle(messages []Message, at time.Time) error {
	bundle := osc.NewBundle(at)
	for _, m := range messages {
		bundle.Append(m.toOSC())
	}
	return b.transport.Send(bundle)
}

// SendMessage sends a single message with no bundle wrapper.
func (b *Backend) SendMessage(m Message) error {
	return b.transport.Send(m.toOSC())
}
