package backend

import "time"

// GroupRecord is the target group id disk-recording synths route into,
// kept separate from instrument groups so export bounces see the full mix.
const GroupRecord int32 = 2000

const (
	recordBufnum      int32 = 900
	exportBufnumStart int32 = 901
	ringBufferFrames  int32 = 131072
)

// Recording tracks one active disk-recording session's node/buffer ids.
type Recording struct {
	Bufnum    int32
	NodeID    int32
	Path      string
	StartedAt time.Time
}

// StartRecording allocates a ring buffer, opens it for streaming disk
// write, and spawns the DiskOut synth reading from bus, all as one
// immediate bundle so the three steps apply atomically.
func (b *Backend) StartRecording(bus int32, path string) (*Recording, error) {
	nodeID := b.NextNodeID()
	messages := []Message{
		AllocBuffer(recordBufnum, ringBufferFrames, 2),
		WriteBufferHeader(recordBufnum, path),
		SpawnNode("imbolc_disk_record", nodeID, 1, GroupRecord, []RawArg{
			Str("bufnum"), Float(float32(recordBufnum)),
			Str("in"), Float(float32(bus)),
		}),
	}
	if err := b.SendBundle(messages, BundleImmediate); err != nil {
		return nil, err
	}
	return &Recording{Bufnum: recordBufnum, NodeID: nodeID, Path: path, StartedAt: time.Now()}, nil
}

// StopRecording frees the DiskOut node and closes the buffer's file
// header as one bundle; the caller must free the buffer itself after a
// short delay (via WriteBufferToDisk's caller, or FreeBuffer directly)
// once scsynth has flushed the write.
func (b *Backend) StopRecording(rec *Recording) error {
	messages := []Message{
		FreeNode(rec.NodeID),
		CloseBuffer(rec.Bufnum),
	}
	return b.SendBundle(messages, BundleImmediate)
}

// WriteBufferToDisk frees a buffer that was closed by StopRecording, once
// the caller has waited long enough for scsynth to flush it (500ms in the
// original engine).
func (b *Backend) WriteBufferToDisk(bufferID int32) error {
	return b.SendMessage(FreeBuffer(bufferID))
}

// StartExportStems opens one DiskOut recorder per (bus, path) pair,
// numbering buffers and nodes sequentially from exportBufnumStart, all in
// a single bundle for atomic start.
func (b *Backend) StartExportStems(busPaths []struct {
	Bus  int32
	Path string
}) ([]*Recording, error) {
	var messages []Message
	var recs []*Recording
	for i, bp := range busPaths {
		bufnum := exportBufnumStart + int32(i)
		nodeID := b.NextNodeID()
		messages = append(messages,
			AllocBuffer(bufnum, ringBufferFrames, 2),
			WriteBufferHeader(bufnum, bp.Path),
			SpawnNode("imbolc_disk_record", nodeID, 1, GroupRecord, []RawArg{
				Str("bufnum"), Float(float32(bufnum)),
				Str("in"), Float(float32(bp.Bus)),
			}),
		)
		recs = append(recs, &Recording{Bufnum: bufnum, NodeID: nodeID, Path: bp.Path, StartedAt: time.Now()})
	}
	if err := b.SendBundle(messages, BundleImmediate); err != nil {
		return nil, err
	}
	return recs, nil
}
