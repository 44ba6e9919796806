package backend

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
)

type recordingTransport struct {
	packets []osc.Packet
}

func (t *recordingTransport) Send(p osc.Packet) error {
	t.packets = append(t.packets, p)
	return nil
}

func TestNodeAndBufferWatermarksAdvance(t *testing.T) {
	b := New(&recordingTransport{})
	assert.Equal(t, int32(1000), b.NextNodeID())
	assert.Equal(t, int32(1001), b.NextNodeID())
	assert.Equal(t, int32(0), b.NextBufferID())
	assert.Equal(t, int32(1), b.NextBufferID())
}

func TestSpawnNodeMessageShape(t *testing.T) {
	msg := SpawnNode("imbolc_voice", 42, 1, 0, []RawArg{Str("freq"), Float(440)})
	assert.Equal(t, "/s_new", msg.Addr)
	assert.Len(t, msg.Args, 6)
}

func TestSendBundleReachesTransport(t *testing.T) {
	tr := &recordingTransport{}
	b := New(tr)
	err := b.SendBundle([]Message{FreeNode(1)}, time.Now())
	assert.NoError(t, err)
	assert.Len(t, tr.packets, 1)
}

func TestStartStopRecordingBundlesThreeThenTwoMessages(t *testing.T) {
	tr := &recordingTransport{}
	b := New(tr)
	rec, err := b.StartRecording(0, "/tmp/out.wav")
	assert.NoError(t, err)
	assert.NotNil(t, rec)

	err = b.StopRecording(rec)
	assert.NoError(t, err)
	assert.Len(t, tr.packets, 2)
}
